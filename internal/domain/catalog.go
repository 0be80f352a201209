package domain

type OperationType string

const (
	OpPublishListing  OperationType = "listing.publish"
	OpPauseListing    OperationType = "listing.pause"
	OpCloseListing    OperationType = "listing.close"
	OpPlaceOrder      OperationType = "order.place"
	OpReserveStock    OperationType = "order.reserve_stock"
	OpSignContract    OperationType = "contract.sign"
	OpCreateEscrow    OperationType = "escrow.create"
	OpConfirmDispatch OperationType = "dispatch.confirm"
	OpConfirmDelivery OperationType = "delivery.confirm"
	OpReleaseSettle   OperationType = "settlement.release"
	OpOpenDispute     OperationType = "dispute.open"
	OpResolveDispute  OperationType = "dispute.resolve"
	OpRequestApproval OperationType = "approval.request"
	OpDecideApproval  OperationType = "approval.decide"
)

type OperationSpec struct {
	AllowedRoles   map[CoreRole]bool
	EvidencePolicy EvidencePolicy
	Machine        EntityKind
	Critical       bool
}

func roles(list ...CoreRole) map[CoreRole]bool {
	out := make(map[CoreRole]bool, len(list))
	for _, role := range list {
		out[role] = true
	}
	return out
}

var allMappedRoles = roles(RoleProducer, RoleBuyer, RoleSupplier, RoleIndustry,
	RoleLogistics, RolePlatform, RoleSupport, RoleAdmin)

// catalog is the sealed operation registry. One row per operation type; never
// mutated at runtime.
var catalog = map[OperationType]OperationSpec{
	OpPublishListing: {
		AllowedRoles:   roles(RoleProducer, RoleSupplier, RoleIndustry, RoleAdmin),
		EvidencePolicy: PolicyNone,
		Machine:        KindListing,
	},
	OpPauseListing: {
		AllowedRoles:   roles(RoleProducer, RoleSupplier, RoleIndustry, RoleAdmin),
		EvidencePolicy: PolicyNone,
		Machine:        KindListing,
	},
	OpCloseListing: {
		AllowedRoles:   roles(RoleProducer, RoleSupplier, RoleIndustry, RoleAdmin),
		EvidencePolicy: PolicyNone,
		Machine:        KindListing,
	},
	OpPlaceOrder: {
		AllowedRoles:   roles(RoleBuyer, RoleIndustry, RoleProducer, RoleAdmin),
		EvidencePolicy: PolicyNone,
		Machine:        KindOrder,
	},
	OpReserveStock: {
		AllowedRoles:   roles(RoleProducer, RoleSupplier, RolePlatform, RoleAdmin),
		EvidencePolicy: PolicyNone,
		Machine:        KindOrder,
	},
	OpSignContract: {
		AllowedRoles:   roles(RoleProducer, RoleBuyer, RoleSupplier, RoleIndustry, RoleAdmin),
		EvidencePolicy: PolicyContractBRequired,
		Machine:        KindContract,
	},
	OpCreateEscrow: {
		AllowedRoles:   roles(RoleBuyer, RolePlatform, RoleAdmin),
		EvidencePolicy: PolicyNone,
		Machine:        KindSettlement,
	},
	OpConfirmDispatch: {
		AllowedRoles:   roles(RoleLogistics, RoleProducer, RoleSupplier, RoleAdmin),
		EvidencePolicy: PolicyDispatchAOrTelemetry,
		Machine:        KindOrder,
	},
	OpConfirmDelivery: {
		AllowedRoles:   roles(RoleLogistics, RoleBuyer, RoleIndustry, RoleAdmin),
		EvidencePolicy: PolicyDeliveryAOptionalB,
		Machine:        KindOrder,
	},
	OpReleaseSettle: {
		AllowedRoles:   roles(RolePlatform, RoleAdmin),
		EvidencePolicy: PolicySettlementAuditGate,
		Machine:        KindSettlement,
		Critical:       true,
	},
	OpOpenDispute: {
		AllowedRoles:   roles(RoleBuyer, RoleProducer, RoleSupplier, RoleIndustry, RoleAdmin),
		EvidencePolicy: PolicyNone,
		Machine:        KindDispute,
	},
	OpResolveDispute: {
		AllowedRoles:   roles(RoleSupport, RoleAdmin),
		EvidencePolicy: PolicyNone,
		Machine:        KindDispute,
	},
	OpRequestApproval: {
		AllowedRoles:   allMappedRoles,
		EvidencePolicy: PolicyNone,
	},
	OpDecideApproval: {
		AllowedRoles:   roles(RoleSupport, RolePlatform, RoleAdmin),
		EvidencePolicy: PolicyNone,
	},
}

// LookupOperation resolves the catalog row for an operation type.
func LookupOperation(op OperationType) (OperationSpec, bool) {
	spec, ok := catalog[op]
	return spec, ok
}
