package domain

import (
	"errors"
	"testing"
)

func TestAssertTransition_OrderHappyPath(t *testing.T) {
	path := []OrderStatus{
		OrderCreated, OrderReserved, OrderContractPending, OrderEscrowCreated,
		OrderDispatched, OrderDelivered, OrderSettled, OrderClosed,
	}
	for i := 1; i < len(path); i++ {
		if err := AssertTransition(KindOrder, string(path[i-1]), string(path[i])); err != nil {
			t.Fatalf("transition %s -> %s: %v", path[i-1], path[i], err)
		}
	}
}

func TestAssertTransition_NoSkips(t *testing.T) {
	if err := AssertTransition(KindOrder, string(OrderCreated), string(OrderDispatched)); !errors.Is(err, ErrFailedPrecondition) {
		t.Fatalf("expected failed precondition for skipped states, got %v", err)
	}
	if err := AssertTransition(KindOrder, string(OrderDelivered), string(OrderReserved)); !errors.Is(err, ErrFailedPrecondition) {
		t.Fatalf("expected failed precondition for backwards move, got %v", err)
	}
}

func TestAssertTransition_TerminalStates(t *testing.T) {
	if err := AssertTransition(KindListing, string(ListingClosed), string(ListingPublished)); !errors.Is(err, ErrFailedPrecondition) {
		t.Fatalf("expected closed listing to be terminal, got %v", err)
	}
	if err := AssertTransition(KindDispute, string(DisputeResolved), string(DisputeOpen)); !errors.Is(err, ErrFailedPrecondition) {
		t.Fatalf("expected resolved dispute to be terminal, got %v", err)
	}
	if err := AssertTransition(KindSettlement, string(SettlementReleased), string(SettlementFailed)); !errors.Is(err, ErrFailedPrecondition) {
		t.Fatalf("expected released settlement to be terminal, got %v", err)
	}
}

func TestAssertTransition_ListingPauseResume(t *testing.T) {
	if err := AssertTransition(KindListing, string(ListingPublished), string(ListingPaused)); err != nil {
		t.Fatalf("publish -> pause: %v", err)
	}
	if err := AssertTransition(KindListing, string(ListingPaused), string(ListingPublished)); err != nil {
		t.Fatalf("pause -> publish: %v", err)
	}
}

func TestAssertTransition_UnknownKind(t *testing.T) {
	if err := AssertTransition(EntityKind("widget"), "A", "B"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for unknown kind, got %v", err)
	}
}
