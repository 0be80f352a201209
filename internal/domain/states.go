package domain

import "fmt"

type EntityKind string

const (
	KindListing    EntityKind = "listing"
	KindOrder      EntityKind = "order"
	KindContract   EntityKind = "contract"
	KindSettlement EntityKind = "settlement"
	KindDispute    EntityKind = "dispute"
)

// Transition graphs are fixed. Progress is monotonic; states with no entry
// are terminal.
var listingTransitions = map[ListingStatus][]ListingStatus{
	ListingDraft:     {ListingPublished},
	ListingPublished: {ListingPaused, ListingClosed},
	ListingPaused:    {ListingPublished, ListingClosed},
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderCreated:         {OrderReserved},
	OrderReserved:        {OrderContractPending},
	OrderContractPending: {OrderEscrowCreated},
	OrderEscrowCreated:   {OrderDispatched},
	OrderDispatched:      {OrderDelivered},
	OrderDelivered:       {OrderSettled},
	OrderSettled:         {OrderClosed},
}

var contractTransitions = map[ContractStatus][]ContractStatus{
	ContractDraft:  {ContractSigned},
	ContractSigned: {ContractActive, ContractTerminated},
	ContractActive: {ContractCompleted, ContractTerminated},
}

var settlementTransitions = map[SettlementStatus][]SettlementStatus{
	SettlementCreated:         {SettlementEscrowed, SettlementFailed},
	SettlementEscrowed:        {SettlementPartialReleased, SettlementReleased, SettlementFailed},
	SettlementPartialReleased: {SettlementReleased, SettlementFailed},
}

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeOpen:     {DisputeInReview, DisputeRejected},
	DisputeInReview: {DisputeResolved, DisputeRejected},
}

// AssertTransition fails with ErrFailedPrecondition when to is not reachable
// in one hop from from. Callers treat a transition to the current state as a
// no-op success by checking equality before calling this.
func AssertTransition(kind EntityKind, from, to string) error {
	var allowed []string
	switch kind {
	case KindListing:
		allowed = nextStates(listingTransitions, ListingStatus(from))
	case KindOrder:
		allowed = nextStates(orderTransitions, OrderStatus(from))
	case KindContract:
		allowed = nextStates(contractTransitions, ContractStatus(from))
	case KindSettlement:
		allowed = nextStates(settlementTransitions, SettlementStatus(from))
	case KindDispute:
		allowed = nextStates(disputeTransitions, DisputeStatus(from))
	default:
		return fmt.Errorf("%w: unknown entity kind %q", ErrInvalidArgument, kind)
	}
	for _, next := range allowed {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot transition from %s to %s", ErrFailedPrecondition, kind, from, to)
}

func nextStates[S ~string](graph map[S][]S, from S) []string {
	out := make([]string, 0, len(graph[from]))
	for _, next := range graph[from] {
		out = append(out, string(next))
	}
	return out
}
