package usecase

import (
	"context"
	"errors"
	"fmt"

	"ciclo/internal/domain"
)

type PlaceOrderInput struct {
	OrderID   string
	ListingID string
	Quantity  float64
	Domain    string
	Channel   string

	// Used only when the listing does not exist yet and is created on first
	// reference.
	Category  domain.ListingCategory
	Product   string
	UnitPrice float64
}

// orderCategories maps each core role to the listing categories it may order
// from.
var orderCategories = map[domain.CoreRole]map[domain.ListingCategory]bool{
	domain.RoleBuyer:    {domain.CategoryOutputsProducer: true, domain.CategoryAuctionP2P: true},
	domain.RoleIndustry: {domain.CategoryOutputsProducer: true},
	domain.RoleProducer: {domain.CategoryInputsIndustry: true},
	domain.RoleAdmin: {
		domain.CategoryOutputsProducer: true,
		domain.CategoryInputsIndustry:  true,
		domain.CategoryAuctionP2P:      true,
	},
}

// defaultOrderCategory picks the category for a listing created on first
// reference when the caller supplies none.
var defaultOrderCategory = map[domain.CoreRole]domain.ListingCategory{
	domain.RoleBuyer:    domain.CategoryOutputsProducer,
	domain.RoleIndustry: domain.CategoryOutputsProducer,
	domain.RoleProducer: domain.CategoryInputsIndustry,
	domain.RoleAdmin:    domain.CategoryOutputsProducer,
}

func (k *Kernel) PlaceOrder(ctx context.Context, actor domain.Actor, input PlaceOrderInput) (domain.Order, error) {
	var out domain.Order
	orderID := input.OrderID
	if orderID == "" {
		orderID = k.idgen()
	}
	payload := map[string]any{
		"order_id":   orderID,
		"listing_id": input.ListingID,
		"quantity":   input.Quantity,
	}
	err := k.execute(ctx, actor, domain.OpPlaceOrder, payload, func(ctx context.Context) error {
		if input.ListingID == "" {
			return fmt.Errorf("%w: listing id is required", domain.ErrInvalidArgument)
		}
		if input.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			listing, err := repos.Listings.Get(ctx, actor.TenantID, input.ListingID)
			if errors.Is(err, domain.ErrNotFound) {
				listing, err = k.createListingOnFirstReference(ctx, repos, actor, input)
			}
			if err != nil {
				return err
			}
			if listing.Status != domain.ListingPublished {
				return fmt.Errorf("%w: listing %s is not published", domain.ErrFailedPrecondition, listing.ID)
			}
			role := domain.NormalizeRole(actor.Role)
			if !orderCategories[role][listing.Category] {
				return fmt.Errorf("%w: role %s may not order from %s listings", domain.ErrFailedPrecondition, role, listing.Category)
			}
			if listing.UnitPrice <= 0 {
				return fmt.Errorf("%w: listing unit price must be positive", domain.ErrFailedPrecondition)
			}
			now := k.clock().UTC()
			order := domain.Order{
				ID:          orderID,
				TenantID:    actor.TenantID,
				ListingID:   listing.ID,
				Buyer:       actor.ID,
				Quantity:    input.Quantity,
				UnitPrice:   listing.UnitPrice,
				TotalAmount: domain.Round2(listing.UnitPrice * input.Quantity),
				Status:      domain.OrderCreated,
				Domain:      input.Domain,
				Channel:     input.Channel,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			out, err = repos.Orders.Save(ctx, order)
			return err
		})
	})
	return out, err
}

// createListingOnFirstReference creates the listing when an order references
// an id that does not exist yet. The created listing is PUBLISHED with the
// order's quantity as initial stock; the caller's role picks the category
// when the input carries none.
func (k *Kernel) createListingOnFirstReference(ctx context.Context, repos RepoSet, actor domain.Actor, input PlaceOrderInput) (domain.Listing, error) {
	if input.UnitPrice <= 0 {
		return domain.Listing{}, fmt.Errorf("%w: unit price is required to create listing %s", domain.ErrInvalidArgument, input.ListingID)
	}
	category := input.Category
	if category == "" {
		category = defaultOrderCategory[domain.NormalizeRole(actor.Role)]
	}
	now := k.clock().UTC()
	listing := domain.Listing{
		ID:                input.ListingID,
		TenantID:          actor.TenantID,
		Category:          category,
		Mode:              domain.ModeFixedPrice,
		Product:           input.Product,
		AvailableQuantity: input.Quantity,
		UnitPrice:         input.UnitPrice,
		Status:            domain.ListingPublished,
		Domain:            input.Domain,
		Channel:           input.Channel,
		CreatedBy:         actor.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return repos.Listings.Save(ctx, listing)
}

// ReserveStock transitions the order to RESERVED and decrements the listing's
// available quantity inside one transaction. Concurrent reservations against
// the same listing never oversell: the re-read and decrement happen under the
// same transactional lock.
func (k *Kernel) ReserveStock(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error) {
	var out domain.Order
	payload := map[string]any{"order_id": orderID}
	err := k.execute(ctx, actor, domain.OpReserveStock, payload, func(ctx context.Context) error {
		if orderID == "" {
			return fmt.Errorf("%w: order id is required", domain.ErrInvalidArgument)
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			order, err := repos.Orders.Get(ctx, actor.TenantID, orderID)
			if err != nil {
				return err
			}
			listing, err := repos.Listings.Get(ctx, actor.TenantID, order.ListingID)
			if err != nil {
				return err
			}
			if err := domain.AssertTransition(domain.KindOrder, string(order.Status), string(domain.OrderReserved)); err != nil {
				return err
			}
			if order.Quantity > listing.AvailableQuantity {
				return fmt.Errorf("%w: insufficient stock: requested %v, available %v",
					domain.ErrFailedPrecondition, order.Quantity, listing.AvailableQuantity)
			}
			now := k.clock().UTC()
			listing.AvailableQuantity -= order.Quantity
			listing.UpdatedAt = now
			if _, err := repos.Listings.Save(ctx, listing); err != nil {
				return err
			}
			order.Status = domain.OrderReserved
			order.UpdatedAt = now
			out, err = repos.Orders.Save(ctx, order)
			return err
		})
	})
	return out, err
}
