package usecase

import (
	"context"
	"errors"
	"fmt"

	"ciclo/internal/domain"
)

type PublishListingInput struct {
	ListingID string
	Category  domain.ListingCategory
	Mode      domain.ListingMode
	Product   string
	Quantity  float64
	UnitPrice float64
	Domain    string
	Channel   string
}

// publishCategories maps each core role to the listing categories it may
// publish. A producer may not publish an industrial-input listing; a supplier
// may only publish industrial-input listings.
var publishCategories = map[domain.CoreRole]map[domain.ListingCategory]bool{
	domain.RoleProducer: {domain.CategoryOutputsProducer: true, domain.CategoryAuctionP2P: true},
	domain.RoleSupplier: {domain.CategoryInputsIndustry: true},
	domain.RoleIndustry: {domain.CategoryInputsIndustry: true},
	domain.RoleAdmin: {
		domain.CategoryOutputsProducer: true,
		domain.CategoryInputsIndustry:  true,
		domain.CategoryAuctionP2P:      true,
	},
}

func (k *Kernel) PublishListing(ctx context.Context, actor domain.Actor, input PublishListingInput) (domain.Listing, error) {
	var out domain.Listing
	payload := map[string]any{
		"listing_id": input.ListingID,
		"category":   string(input.Category),
		"product":    input.Product,
		"quantity":   input.Quantity,
		"unit_price": input.UnitPrice,
	}
	err := k.execute(ctx, actor, domain.OpPublishListing, payload, func(ctx context.Context) error {
		if input.Product == "" {
			return fmt.Errorf("%w: product name is required", domain.ErrInvalidArgument)
		}
		if input.UnitPrice <= 0 {
			return fmt.Errorf("%w: unit price must be positive", domain.ErrInvalidArgument)
		}
		if input.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
		}
		role := domain.NormalizeRole(actor.Role)
		if !publishCategories[role][input.Category] {
			return fmt.Errorf("%w: role %s may not publish %s listings", domain.ErrFailedPrecondition, role, input.Category)
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			listing, err := k.resolveListing(ctx, repos, actor, input)
			if err != nil {
				return err
			}
			if listing.Status != domain.ListingPublished {
				if err := domain.AssertTransition(domain.KindListing, string(listing.Status), string(domain.ListingPublished)); err != nil {
					return err
				}
				listing.Status = domain.ListingPublished
			}
			listing.Product = input.Product
			listing.AvailableQuantity = input.Quantity
			listing.UnitPrice = input.UnitPrice
			listing.UpdatedAt = k.clock().UTC()
			out, err = repos.Listings.Save(ctx, listing)
			return err
		})
	})
	return out, err
}

// resolveListing upserts the listing on first reference. Category is
// immutable once set.
func (k *Kernel) resolveListing(ctx context.Context, repos RepoSet, actor domain.Actor, input PublishListingInput) (domain.Listing, error) {
	if input.ListingID != "" {
		listing, err := repos.Listings.Get(ctx, actor.TenantID, input.ListingID)
		if err == nil {
			if input.Category != "" && listing.Category != input.Category {
				return domain.Listing{}, fmt.Errorf("%w: listing category is immutable", domain.ErrFailedPrecondition)
			}
			return listing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Listing{}, err
		}
	}
	id := input.ListingID
	if id == "" {
		id = k.idgen()
	}
	mode := input.Mode
	if mode == "" {
		mode = domain.ModeFixedPrice
	}
	now := k.clock().UTC()
	return domain.Listing{
		ID:        id,
		TenantID:  actor.TenantID,
		Category:  input.Category,
		Mode:      mode,
		Status:    domain.ListingDraft,
		Domain:    input.Domain,
		Channel:   input.Channel,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (k *Kernel) PauseListing(ctx context.Context, actor domain.Actor, listingID string) (domain.Listing, error) {
	return k.transitionListing(ctx, actor, domain.OpPauseListing, listingID, domain.ListingPaused)
}

func (k *Kernel) CloseListing(ctx context.Context, actor domain.Actor, listingID string) (domain.Listing, error) {
	return k.transitionListing(ctx, actor, domain.OpCloseListing, listingID, domain.ListingClosed)
}

func (k *Kernel) transitionListing(ctx context.Context, actor domain.Actor, op domain.OperationType, listingID string, target domain.ListingStatus) (domain.Listing, error) {
	var out domain.Listing
	payload := map[string]any{"listing_id": listingID, "status": string(target)}
	err := k.execute(ctx, actor, op, payload, func(ctx context.Context) error {
		if listingID == "" {
			return fmt.Errorf("%w: listing id is required", domain.ErrInvalidArgument)
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			listing, err := repos.Listings.Get(ctx, actor.TenantID, listingID)
			if err != nil {
				return err
			}
			if listing.Status == target {
				out = listing
				return nil
			}
			if err := domain.AssertTransition(domain.KindListing, string(listing.Status), string(target)); err != nil {
				return err
			}
			listing.Status = target
			listing.UpdatedAt = k.clock().UTC()
			out, err = repos.Listings.Save(ctx, listing)
			return err
		})
	})
	return out, err
}
