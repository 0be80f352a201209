package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ciclo/internal/domain"
	"ciclo/internal/infra/memstore"
	"ciclo/internal/usecase"
)

const tenant = "tenant-1"

var (
	producer  = domain.Actor{ID: "user-producer", Role: "produtor", TenantID: tenant}
	buyer     = domain.Actor{ID: "user-buyer", Role: "comprador", TenantID: tenant}
	supplier  = domain.Actor{ID: "user-supplier", Role: "fornecedor", TenantID: tenant}
	industry  = domain.Actor{ID: "user-industry", Role: "industria", TenantID: tenant}
	logistics = domain.Actor{ID: "user-logistics", Role: "logistica", TenantID: tenant}
	platform  = domain.Actor{ID: "user-platform", Role: "plataforma", TenantID: tenant}
	support   = domain.Actor{ID: "user-support", Role: "suporte", TenantID: tenant}
)

type testEnv struct {
	kernel *usecase.Kernel
	store  *memstore.Store
	audit  *memstore.AuditLog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	audit := memstore.NewAuditLog()
	ledger := usecase.NewLedger(audit)
	var n int
	kernel := usecase.NewKernel(store, ledger, usecase.KernelOptions{
		Clock: func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
		IDGen: func() string {
			n++
			return fmt.Sprintf("id-%04d", n)
		},
	})
	return &testEnv{kernel: kernel, store: store, audit: audit}
}

func (env *testEnv) publishListing(t *testing.T, actor domain.Actor, category domain.ListingCategory, qty, price float64) domain.Listing {
	t.Helper()
	listing, err := env.kernel.PublishListing(context.Background(), actor, usecase.PublishListingInput{
		Category:  category,
		Product:   "soybeans",
		Quantity:  qty,
		UnitPrice: price,
	})
	if err != nil {
		t.Fatalf("publish listing: %v", err)
	}
	return listing
}

// advanceToDelivered runs a fresh order through reserve, contract, escrow,
// dispatch and delivery.
func (env *testEnv) advanceToDelivered(t *testing.T) domain.Order {
	t.Helper()
	ctx := context.Background()
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 100, 2.00)

	order, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{ListingID: listing.ID, Quantity: 100})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order, err = env.kernel.ReserveStock(ctx, producer, order.ID); err != nil {
		t.Fatalf("reserve stock: %v", err)
	}
	if _, err = env.kernel.SignContract(ctx, buyer, usecase.SignContractInput{
		OrderID:   order.ID,
		Terms:     "full delivery within 30 days",
		Evidences: []domain.Evidence{contractDocument()},
	}); err != nil {
		t.Fatalf("sign contract: %v", err)
	}
	if _, err = env.kernel.CreateEscrow(ctx, buyer, usecase.CreateEscrowInput{
		OrderID:      order.ID,
		Amount:       order.TotalAmount,
		TemplateCode: domain.TemplateMarketplace,
	}); err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	if order, err = env.kernel.ConfirmDispatch(ctx, logistics, usecase.ConfirmDispatchInput{
		OrderID:   order.ID,
		Evidences: []domain.Evidence{dispatchEvidence()},
	}); err != nil {
		t.Fatalf("confirm dispatch: %v", err)
	}
	if order, err = env.kernel.ConfirmDelivery(ctx, logistics, usecase.ConfirmDeliveryInput{
		OrderID:   order.ID,
		Evidences: []domain.Evidence{deliveryEvidence()},
	}); err != nil {
		t.Fatalf("confirm delivery: %v", err)
	}
	return order
}

func contractDocument() domain.Evidence {
	return domain.Evidence{
		Type:      domain.EvidenceTypeB,
		Documents: []domain.Document{{Kind: "contract", StorageRef: "s3://docs/contract.pdf"}},
	}
}

func dispatchEvidence() domain.Evidence {
	return domain.Evidence{
		Type:       domain.EvidenceTypeA,
		StorageRef: "s3://photos/dispatch.jpg",
		GPS:        &domain.GeoPoint{Lat: -15.79, Lng: -47.88},
	}
}

func deliveryEvidence() domain.Evidence {
	return domain.Evidence{
		Type:       domain.EvidenceTypeA,
		StorageRef: "s3://photos/delivery.jpg",
		GPS:        &domain.GeoPoint{Lat: -23.55, Lng: -46.63},
	}
}

func TestFullLifecycle_SettlesOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.advanceToDelivered(t)

	settlement, err := env.kernel.ReleaseSettlement(ctx, platform, usecase.ReleaseSettlementInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("release settlement: %v", err)
	}
	if settlement.Status != domain.SettlementReleased {
		t.Fatalf("settlement status = %s, want RELEASED", settlement.Status)
	}
	milestones := settlement.Milestones
	if !milestones.M1 || !milestones.M2 || !milestones.M3 || !milestones.M4 || !milestones.M5 {
		t.Fatalf("milestones = %+v, want all reached", milestones)
	}
	if len(settlement.SplitHistory) != 1 {
		t.Fatalf("split history length = %d, want 1", len(settlement.SplitHistory))
	}
	split := settlement.SplitHistory[0]
	want := map[domain.SplitParty]float64{
		domain.PartyProducer:  174.00,
		domain.PartyPlatform:  16.00,
		domain.PartyLogistics: 10.00,
	}
	for _, item := range split.Items {
		if item.Amount != want[item.Party] {
			t.Fatalf("%s split = %.2f, want %.2f", item.Party, item.Amount, want[item.Party])
		}
	}

	order, err = env.kernel.GetOrder(ctx, tenant, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != domain.OrderSettled {
		t.Fatalf("order status = %s, want SETTLED", order.Status)
	}

	result, err := env.kernel.VerifyAudit(ctx, tenant, usecase.VerifyOptions{})
	if err != nil {
		t.Fatalf("verify audit: %v", err)
	}
	if !result.Valid {
		t.Fatalf("audit chain invalid after lifecycle: %+v", result)
	}

	entries, err := env.kernel.ListOrderAudit(ctx, tenant, order.ID, 0)
	if err != nil {
		t.Fatalf("list order audit: %v", err)
	}
	seen := make(map[domain.OperationType]bool)
	for _, entry := range entries {
		if entry.Status == domain.AuditSuccess {
			seen[entry.OperationType] = true
		}
	}
	for _, op := range []domain.OperationType{
		domain.OpPlaceOrder, domain.OpReserveStock, domain.OpSignContract,
		domain.OpCreateEscrow, domain.OpConfirmDispatch, domain.OpConfirmDelivery,
		domain.OpReleaseSettle,
	} {
		if !seen[op] {
			t.Fatalf("missing SUCCESS audit entry for %s", op)
		}
	}
}

func TestReleaseSettlement_BlockedWithoutDelivery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 50, 10.00)

	order, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{ListingID: listing.ID, Quantity: 10})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err = env.kernel.ReserveStock(ctx, producer, order.ID); err != nil {
		t.Fatalf("reserve stock: %v", err)
	}
	if _, err = env.kernel.SignContract(ctx, buyer, usecase.SignContractInput{
		OrderID:   order.ID,
		Evidences: []domain.Evidence{contractDocument()},
	}); err != nil {
		t.Fatalf("sign contract: %v", err)
	}
	if _, err = env.kernel.CreateEscrow(ctx, buyer, usecase.CreateEscrowInput{
		OrderID:      order.ID,
		Amount:       order.TotalAmount,
		TemplateCode: domain.TemplateMarketplace,
	}); err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	if _, err = env.kernel.ConfirmDispatch(ctx, logistics, usecase.ConfirmDispatchInput{
		OrderID:   order.ID,
		Evidences: []domain.Evidence{dispatchEvidence()},
	}); err != nil {
		t.Fatalf("confirm dispatch: %v", err)
	}

	_, err = env.kernel.ReleaseSettlement(ctx, platform, usecase.ReleaseSettlementInput{OrderID: order.ID})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("expected failed precondition, got %v", err)
	}
	if !strings.Contains(err.Error(), string(domain.OpConfirmDelivery)) {
		t.Fatalf("error should name the missing operation, got %q", err)
	}

	settlement, err := env.kernel.GetSettlement(ctx, tenant, mustSettlementID(t, env, order.ID))
	if err != nil {
		t.Fatalf("get settlement: %v", err)
	}
	if settlement.Status != domain.SettlementEscrowed {
		t.Fatalf("settlement status = %s, want ESCROWED untouched", settlement.Status)
	}
	if len(settlement.SplitHistory) != 0 {
		t.Fatal("split must not run when the gate blocks")
	}
}

func mustSettlementID(t *testing.T, env *testEnv, orderID string) string {
	t.Helper()
	order, err := env.kernel.GetOrder(context.Background(), tenant, orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.SettlementID == "" {
		t.Fatal("order has no settlement")
	}
	return order.SettlementID
}

func TestPartialThenFinalRelease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.advanceToDelivered(t)

	settlement, err := env.kernel.ReleaseSettlement(ctx, platform, usecase.ReleaseSettlementInput{
		OrderID: order.ID,
		Partial: true,
		Amount:  50.00,
	})
	if err != nil {
		t.Fatalf("partial release: %v", err)
	}
	if settlement.Status != domain.SettlementPartialReleased {
		t.Fatalf("settlement status = %s, want PARTIAL_RELEASED", settlement.Status)
	}
	if len(settlement.Releases) != 1 || !settlement.Releases[0].Partial {
		t.Fatalf("releases = %+v, want one partial release", settlement.Releases)
	}

	order, err = env.kernel.GetOrder(ctx, tenant, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != domain.OrderDelivered {
		t.Fatalf("order status = %s, partial release must not settle", order.Status)
	}

	settlement, err = env.kernel.ReleaseSettlement(ctx, platform, usecase.ReleaseSettlementInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("final release: %v", err)
	}
	if settlement.Status != domain.SettlementReleased {
		t.Fatalf("settlement status = %s, want RELEASED", settlement.Status)
	}
	if len(settlement.Releases) != 2 {
		t.Fatalf("releases = %d, want partial plus final", len(settlement.Releases))
	}
	if settlement.Releases[1].Amount != 150.00 {
		t.Fatalf("final release amount = %v, want escrow minus the partial", settlement.Releases[1].Amount)
	}
	var total float64
	for _, r := range settlement.Releases {
		total += r.Amount
	}
	if total != settlement.EscrowAmount {
		t.Fatalf("released total = %v, want the escrow amount %v", total, settlement.EscrowAmount)
	}
}

func TestReleaseSettlement_RoleDenied(t *testing.T) {
	env := newTestEnv(t)
	order := env.advanceToDelivered(t)

	_, err := env.kernel.ReleaseSettlement(context.Background(), buyer, usecase.ReleaseSettlementInput{OrderID: order.ID})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for buyer, got %v", err)
	}
}

func TestExecute_RejectedAttemptIsAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.kernel.PublishListing(ctx, buyer, usecase.PublishListingInput{
		Category:  domain.CategoryOutputsProducer,
		Product:   "soybeans",
		Quantity:  1,
		UnitPrice: 1,
	})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	entries, err := env.audit.ListRange(ctx, tenant, domain.DefaultStream, 1, 0, 10)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1 rejection", len(entries))
	}
	entry := entries[0]
	if entry.Status != domain.AuditRejected {
		t.Fatalf("audit status = %s, want REJECTED", entry.Status)
	}
	if entry.Payload["reason"] != "ROLE_DENIED" {
		t.Fatalf("audit reason = %v, want ROLE_DENIED", entry.Payload["reason"])
	}
}

func TestExecute_UnmappedRoleDenied(t *testing.T) {
	env := newTestEnv(t)
	wizard := domain.Actor{ID: "user-w", Role: "wizard", TenantID: tenant}
	_, err := env.kernel.PlaceOrder(context.Background(), wizard, usecase.PlaceOrderInput{ListingID: "l-1", Quantity: 1})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for unmapped role, got %v", err)
	}
}

func TestExecute_MissingIdentity(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.kernel.PlaceOrder(context.Background(), domain.Actor{Role: "comprador"}, usecase.PlaceOrderInput{ListingID: "l-1", Quantity: 1})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestPublishListing_CategoryMatrix(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.kernel.PublishListing(ctx, producer, usecase.PublishListingInput{
		Category:  domain.CategoryInputsIndustry,
		Product:   "fertilizer",
		Quantity:  5,
		UnitPrice: 30,
	})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("producer publishing industry inputs should fail, got %v", err)
	}

	_, err = env.kernel.PublishListing(ctx, supplier, usecase.PublishListingInput{
		Category:  domain.CategoryOutputsProducer,
		Product:   "soybeans",
		Quantity:  5,
		UnitPrice: 30,
	})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("supplier publishing producer outputs should fail, got %v", err)
	}

	env.publishListing(t, supplier, domain.CategoryInputsIndustry, 5, 30)
	env.publishListing(t, producer, domain.CategoryAuctionP2P, 5, 30)
}

func TestPlaceOrder_CategoryMatrix(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inputs := env.publishListing(t, supplier, domain.CategoryInputsIndustry, 50, 12.00)
	outputs := env.publishListing(t, producer, domain.CategoryOutputsProducer, 50, 8.00)

	if _, err := env.kernel.PlaceOrder(ctx, producer, usecase.PlaceOrderInput{ListingID: inputs.ID, Quantity: 2}); err != nil {
		t.Fatalf("producer ordering industry inputs: %v", err)
	}
	if _, err := env.kernel.PlaceOrder(ctx, industry, usecase.PlaceOrderInput{ListingID: outputs.ID, Quantity: 2}); err != nil {
		t.Fatalf("industry ordering producer outputs: %v", err)
	}

	_, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{ListingID: inputs.ID, Quantity: 2})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("buyer ordering industry inputs should fail, got %v", err)
	}
	_, err = env.kernel.PlaceOrder(ctx, producer, usecase.PlaceOrderInput{ListingID: outputs.ID, Quantity: 2})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("producer ordering producer outputs should fail, got %v", err)
	}
}

func TestPublishListing_CategoryImmutable(t *testing.T) {
	env := newTestEnv(t)
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 10, 5.00)

	_, err := env.kernel.PublishListing(context.Background(), producer, usecase.PublishListingInput{
		ListingID: listing.ID,
		Category:  domain.CategoryAuctionP2P,
		Product:   "soybeans",
		Quantity:  10,
		UnitPrice: 5,
	})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("expected failed precondition on category change, got %v", err)
	}
}

func TestPublishListing_RepublishUpdatesStock(t *testing.T) {
	env := newTestEnv(t)
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 10, 5.00)

	updated, err := env.kernel.PublishListing(context.Background(), producer, usecase.PublishListingInput{
		ListingID: listing.ID,
		Category:  domain.CategoryOutputsProducer,
		Product:   "soybeans",
		Quantity:  25,
		UnitPrice: 6.50,
	})
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if updated.ID != listing.ID {
		t.Fatalf("republish created a new listing %s", updated.ID)
	}
	if updated.AvailableQuantity != 25 || updated.UnitPrice != 6.50 {
		t.Fatalf("republish did not update stock/price: %+v", updated)
	}
	if updated.Status != domain.ListingPublished {
		t.Fatalf("status = %s, want PUBLISHED", updated.Status)
	}
}

func TestPauseAndCloseListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 10, 5.00)

	paused, err := env.kernel.PauseListing(ctx, producer, listing.ID)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Status != domain.ListingPaused {
		t.Fatalf("status = %s, want PAUSED", paused.Status)
	}

	_, err = env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{ListingID: listing.ID, Quantity: 1})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("ordering from a paused listing should fail, got %v", err)
	}

	closed, err := env.kernel.CloseListing(ctx, producer, listing.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != domain.ListingClosed {
		t.Fatalf("status = %s, want CLOSED", closed.Status)
	}

	_, err = env.kernel.PauseListing(ctx, producer, listing.ID)
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("closed listing is terminal, got %v", err)
	}
}

func TestReserveStock_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 5, 2.00)

	order, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{ListingID: listing.ID, Quantity: 8})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	_, err = env.kernel.ReserveStock(ctx, producer, order.ID)
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	got, err := env.kernel.GetListing(ctx, tenant, listing.ID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.AvailableQuantity != 5 {
		t.Fatalf("available quantity = %v, failed reservation must not decrement", got.AvailableQuantity)
	}
}

func TestReserveStock_ConcurrentNoOversell(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 10, 2.00)

	first, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{ListingID: listing.ID, Quantity: 6})
	if err != nil {
		t.Fatalf("place first order: %v", err)
	}
	second, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{ListingID: listing.ID, Quantity: 6})
	if err != nil {
		t.Fatalf("place second order: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, orderID := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(slot int, id string) {
			defer wg.Done()
			_, results[slot] = env.kernel.ReserveStock(ctx, producer, id)
		}(i, orderID)
	}
	wg.Wait()

	var ok, failed int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrFailedPrecondition):
			failed++
		default:
			t.Fatalf("unexpected reservation error: %v", err)
		}
	}
	if ok != 1 || failed != 1 {
		t.Fatalf("reservations ok=%d failed=%d, want exactly one of each", ok, failed)
	}

	got, err := env.kernel.GetListing(ctx, tenant, listing.ID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.AvailableQuantity != 4 {
		t.Fatalf("available quantity = %v, want 4", got.AvailableQuantity)
	}
}

func TestSignContract_RequiresTypeBDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 10, 2.00)
	order, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{ListingID: listing.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err = env.kernel.ReserveStock(ctx, producer, order.ID); err != nil {
		t.Fatalf("reserve stock: %v", err)
	}

	_, err = env.kernel.SignContract(ctx, buyer, usecase.SignContractInput{OrderID: order.ID})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("expected failed precondition without TYPE_B document, got %v", err)
	}
}

func TestConfirmDispatch_RequiresEvidence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 10, 2.00)
	order, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{ListingID: listing.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err = env.kernel.ReserveStock(ctx, producer, order.ID); err != nil {
		t.Fatalf("reserve stock: %v", err)
	}
	if _, err = env.kernel.SignContract(ctx, buyer, usecase.SignContractInput{
		OrderID:   order.ID,
		Evidences: []domain.Evidence{contractDocument()},
	}); err != nil {
		t.Fatalf("sign contract: %v", err)
	}
	if _, err = env.kernel.CreateEscrow(ctx, buyer, usecase.CreateEscrowInput{
		OrderID:      order.ID,
		Amount:       order.TotalAmount,
		TemplateCode: domain.TemplateMarketplace,
	}); err != nil {
		t.Fatalf("create escrow: %v", err)
	}

	_, err = env.kernel.ConfirmDispatch(ctx, logistics, usecase.ConfirmDispatchInput{OrderID: order.ID})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("expected failed precondition without evidence, got %v", err)
	}

	got, err := env.kernel.GetOrder(ctx, tenant, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != domain.OrderEscrowCreated {
		t.Fatalf("order status = %s, rejected dispatch must not advance it", got.Status)
	}
}

func TestCreateEscrow_DuplicateRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 10, 2.00)
	order, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{ListingID: listing.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err = env.kernel.ReserveStock(ctx, producer, order.ID); err != nil {
		t.Fatalf("reserve stock: %v", err)
	}
	if _, err = env.kernel.SignContract(ctx, buyer, usecase.SignContractInput{
		OrderID:   order.ID,
		Evidences: []domain.Evidence{contractDocument()},
	}); err != nil {
		t.Fatalf("sign contract: %v", err)
	}
	if _, err = env.kernel.CreateEscrow(ctx, buyer, usecase.CreateEscrowInput{
		OrderID:      order.ID,
		Amount:       order.TotalAmount,
		TemplateCode: domain.TemplateMarketplace,
	}); err != nil {
		t.Fatalf("create escrow: %v", err)
	}

	_, err = env.kernel.CreateEscrow(ctx, buyer, usecase.CreateEscrowInput{
		OrderID:      order.ID,
		Amount:       order.TotalAmount,
		TemplateCode: domain.TemplateMarketplace,
	})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("expected failed precondition on duplicate escrow, got %v", err)
	}
}

func TestDisputeLifecycle_SegregationOfDuties(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.advanceToDelivered(t)

	dispute, err := env.kernel.OpenDispute(ctx, buyer, usecase.OpenDisputeInput{
		OrderID: order.ID,
		Reason:  "short delivery",
	})
	if err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	if dispute.Status != domain.DisputeOpen || dispute.TicketID == "" {
		t.Fatalf("dispute = %+v, want OPEN with linked ticket", dispute)
	}

	// The buyer opened the dispute; support staff may resolve, the buyer's
	// own account may not even if its role allowed the operation.
	buyerAsSupport := domain.Actor{ID: buyer.ID, Role: "suporte", TenantID: tenant}
	_, err = env.kernel.ResolveDispute(ctx, buyerAsSupport, usecase.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		Resolution: "refund",
	})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("expected segregation failure, got %v", err)
	}

	resolved, err := env.kernel.ResolveDispute(ctx, support, usecase.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		Resolution: "refund issued",
	})
	if err != nil {
		t.Fatalf("resolve dispute: %v", err)
	}
	if resolved.Status != domain.DisputeResolved || resolved.ResolvedBy != support.ID {
		t.Fatalf("resolved = %+v, want RESOLVED by support", resolved)
	}

	_, err = env.kernel.ResolveDispute(ctx, support, usecase.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		Resolution: "again",
	})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("resolved dispute is immutable, got %v", err)
	}
}

func TestResolveDispute_RejectedOutcome(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.advanceToDelivered(t)

	dispute, err := env.kernel.OpenDispute(ctx, buyer, usecase.OpenDisputeInput{OrderID: order.ID, Reason: "damaged goods"})
	if err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	rejected, err := env.kernel.ResolveDispute(ctx, support, usecase.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		Resolution: "no damage found",
		Rejected:   true,
	})
	if err != nil {
		t.Fatalf("reject dispute: %v", err)
	}
	if rejected.Status != domain.DisputeRejected {
		t.Fatalf("status = %s, want REJECTED", rejected.Status)
	}
}

func TestApproval_SegregationOfDuties(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.advanceToDelivered(t)

	dispute, err := env.kernel.OpenDispute(ctx, buyer, usecase.OpenDisputeInput{OrderID: order.ID, Reason: "late"})
	if err != nil {
		t.Fatalf("open dispute: %v", err)
	}

	approval, err := env.kernel.RequestApproval(ctx, support, usecase.RequestApprovalInput{
		TicketID: dispute.TicketID,
		Subject:  "escalate refund above threshold",
	})
	if err != nil {
		t.Fatalf("request approval: %v", err)
	}
	if approval.Status != domain.ApprovalPending {
		t.Fatalf("status = %s, want PENDING", approval.Status)
	}

	_, err = env.kernel.DecideApproval(ctx, support, usecase.DecideApprovalInput{
		ApprovalID: approval.ID,
		Approve:    true,
	})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("requester deciding own approval should fail, got %v", err)
	}

	decided, err := env.kernel.DecideApproval(ctx, platform, usecase.DecideApprovalInput{
		ApprovalID: approval.ID,
		Approve:    true,
		Rationale:  "within policy",
	})
	if err != nil {
		t.Fatalf("decide approval: %v", err)
	}
	if decided.Status != domain.ApprovalApproved || decided.DecidedBy != platform.ID {
		t.Fatalf("decided = %+v, want APPROVED by platform", decided)
	}

	_, err = env.kernel.DecideApproval(ctx, platform, usecase.DecideApprovalInput{ApprovalID: approval.ID, Approve: false})
	if !errors.Is(err, domain.ErrFailedPrecondition) {
		t.Fatalf("decided approval is immutable, got %v", err)
	}
}

func TestTenantIsolation_Reads(t *testing.T) {
	env := newTestEnv(t)
	listing := env.publishListing(t, producer, domain.CategoryOutputsProducer, 10, 2.00)

	_, err := env.kernel.GetListing(context.Background(), "tenant-2", listing.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cross-tenant read must miss, got %v", err)
	}
}

func TestPlaceOrder_CreatesListingOnFirstReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{
		ListingID: "l-fresh",
		Quantity:  3,
		Product:   "soybeans",
		UnitPrice: 4.50,
	})
	if err != nil {
		t.Fatalf("place order against unseen listing: %v", err)
	}
	if order.TotalAmount != 13.50 {
		t.Fatalf("total = %v, want 13.50", order.TotalAmount)
	}

	listing, err := env.kernel.GetListing(ctx, tenant, "l-fresh")
	if err != nil {
		t.Fatalf("created listing not found: %v", err)
	}
	if listing.Status != domain.ListingPublished {
		t.Fatalf("listing status = %s, want PUBLISHED", listing.Status)
	}
	if listing.Category != domain.CategoryOutputsProducer {
		t.Fatalf("listing category = %s, want the buyer default", listing.Category)
	}
	if listing.UnitPrice != 4.50 || listing.AvailableQuantity != 3 {
		t.Fatalf("listing = %+v, want price and stock from the first order", listing)
	}
	if listing.CreatedBy != buyer.ID {
		t.Fatalf("listing created by %s, want %s", listing.CreatedBy, buyer.ID)
	}

	// Same id again resolves the stored listing; the stored price wins.
	again, err := env.kernel.PlaceOrder(ctx, buyer, usecase.PlaceOrderInput{
		ListingID: "l-fresh",
		Quantity:  2,
		UnitPrice: 99.00,
	})
	if err != nil {
		t.Fatalf("place order against existing listing: %v", err)
	}
	if again.TotalAmount != 9.00 {
		t.Fatalf("total = %v, want 9.00 from the stored unit price", again.TotalAmount)
	}
}

func TestPlaceOrder_FirstReferenceRequiresPrice(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.kernel.PlaceOrder(context.Background(), buyer, usecase.PlaceOrderInput{
		ListingID: "l-unpriced",
		Quantity:  1,
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument without a unit price, got %v", err)
	}
}
