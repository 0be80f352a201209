package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"ciclo/internal/domain"
	"ciclo/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Kernel *usecase.Kernel

	// VerifyLimit caps a single /audit/verify pass when the request does
	// not set one.
	VerifyLimit int
}

func NewHandler(kernel *usecase.Kernel) *Handler {
	return &Handler{Kernel: kernel}
}

type evidenceRequest struct {
	Type        string            `json:"type"`
	StorageRef  string            `json:"storage_ref,omitempty"`
	ContentHash string            `json:"content_hash,omitempty"`
	GPS         *domain.GeoPoint  `json:"gps,omitempty"`
	Telemetry   *domain.Telemetry `json:"telemetry,omitempty"`
	Documents   []domain.Document `json:"documents,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

func toEvidences(reqs []evidenceRequest) []domain.Evidence {
	out := make([]domain.Evidence, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, domain.Evidence{
			Type:        domain.EvidenceType(strings.ToUpper(strings.TrimSpace(req.Type))),
			StorageRef:  req.StorageRef,
			ContentHash: req.ContentHash,
			GPS:         req.GPS,
			Telemetry:   req.Telemetry,
			Documents:   req.Documents,
			Metadata:    req.Metadata,
		})
	}
	return out
}

func (h *Handler) HandlePublishListing(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	var req struct {
		ListingID string  `json:"listing_id,omitempty"`
		Category  string  `json:"category"`
		Mode      string  `json:"mode"`
		Product   string  `json:"product"`
		Quantity  float64 `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
		Domain    string  `json:"domain,omitempty"`
		Channel   string  `json:"channel,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	listing, err := h.Kernel.PublishListing(c.Request.Context(), actor, usecase.PublishListingInput{
		ListingID: req.ListingID,
		Category:  domain.ListingCategory(req.Category),
		Mode:      domain.ListingMode(req.Mode),
		Product:   req.Product,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Domain:    req.Domain,
		Channel:   req.Channel,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": ToListingResponse(listing)})
}

func (h *Handler) HandlePauseListing(c *gin.Context) {
	h.transitionListing(c, h.Kernel.PauseListing)
}

func (h *Handler) HandleCloseListing(c *gin.Context) {
	h.transitionListing(c, h.Kernel.CloseListing)
}

func (h *Handler) transitionListing(c *gin.Context, op func(ctx context.Context, actor domain.Actor, listingID string) (domain.Listing, error)) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	listingID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	listing, err := op(c.Request.Context(), actor, listingID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": ToListingResponse(listing)})
}

func (h *Handler) HandleGetListing(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	listingID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	listing, err := h.Kernel.GetListing(c.Request.Context(), actor.TenantID, listingID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": ToListingResponse(listing)})
}

func (h *Handler) HandlePlaceOrder(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	var req struct {
		OrderID   string  `json:"order_id,omitempty"`
		ListingID string  `json:"listing_id"`
		Quantity  float64 `json:"quantity"`
		Domain    string  `json:"domain,omitempty"`
		Channel   string  `json:"channel,omitempty"`
		Category  string  `json:"category,omitempty"`
		Product   string  `json:"product,omitempty"`
		UnitPrice float64 `json:"unit_price,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	order, err := h.Kernel.PlaceOrder(c.Request.Context(), actor, usecase.PlaceOrderInput{
		OrderID:   req.OrderID,
		ListingID: req.ListingID,
		Quantity:  req.Quantity,
		Domain:    req.Domain,
		Channel:   req.Channel,
		Category:  domain.ListingCategory(req.Category),
		Product:   req.Product,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ToOrderResponse(order)})
}

func (h *Handler) HandleReserveStock(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	orderID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	order, err := h.Kernel.ReserveStock(c.Request.Context(), actor, orderID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ToOrderResponse(order)})
}

func (h *Handler) HandleGetOrder(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	orderID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	order, err := h.Kernel.GetOrder(c.Request.Context(), actor.TenantID, orderID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ToOrderResponse(order)})
}

func (h *Handler) HandleSignContract(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	orderID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Terms     string            `json:"terms,omitempty"`
		Evidences []evidenceRequest `json:"evidences"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	contract, err := h.Kernel.SignContract(c.Request.Context(), actor, usecase.SignContractInput{
		OrderID:   orderID,
		Terms:     req.Terms,
		Evidences: toEvidences(req.Evidences),
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": ToContractResponse(contract)})
}

func (h *Handler) HandleCreateEscrow(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	orderID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount       float64 `json:"amount"`
		TemplateCode string  `json:"template_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	settlement, err := h.Kernel.CreateEscrow(c.Request.Context(), actor, usecase.CreateEscrowInput{
		OrderID:      orderID,
		Amount:       req.Amount,
		TemplateCode: req.TemplateCode,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlement": ToSettlementResponse(settlement)})
}

func (h *Handler) HandleConfirmDispatch(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	orderID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Evidences []evidenceRequest `json:"evidences"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	order, err := h.Kernel.ConfirmDispatch(c.Request.Context(), actor, usecase.ConfirmDispatchInput{
		OrderID:   orderID,
		Evidences: toEvidences(req.Evidences),
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ToOrderResponse(order)})
}

func (h *Handler) HandleConfirmDelivery(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	orderID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Evidences       []evidenceRequest `json:"evidences"`
		RequireDocument bool              `json:"require_document"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	order, err := h.Kernel.ConfirmDelivery(c.Request.Context(), actor, usecase.ConfirmDeliveryInput{
		OrderID:              orderID,
		Evidences:            toEvidences(req.Evidences),
		RequireDocumentTypeB: req.RequireDocument,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ToOrderResponse(order)})
}

func (h *Handler) HandleReleaseSettlement(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	orderID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Partial bool    `json:"partial"`
		Amount  float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	settlement, err := h.Kernel.ReleaseSettlement(c.Request.Context(), actor, usecase.ReleaseSettlementInput{
		OrderID: orderID,
		Partial: req.Partial,
		Amount:  req.Amount,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlement": ToSettlementResponse(settlement)})
}

func (h *Handler) HandleGetSettlement(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	settlementID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	settlement, err := h.Kernel.GetSettlement(c.Request.Context(), actor.TenantID, settlementID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlement": ToSettlementResponse(settlement)})
}

func (h *Handler) HandleOpenDispute(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	var req struct {
		OrderID string `json:"order_id"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	dispute, err := h.Kernel.OpenDispute(c.Request.Context(), actor, usecase.OpenDisputeInput{
		OrderID: req.OrderID,
		Reason:  req.Reason,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispute": ToDisputeResponse(dispute)})
}

func (h *Handler) HandleResolveDispute(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	disputeID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Resolution string `json:"resolution"`
		Rejected   bool   `json:"rejected"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	dispute, err := h.Kernel.ResolveDispute(c.Request.Context(), actor, usecase.ResolveDisputeInput{
		DisputeID:  disputeID,
		Resolution: req.Resolution,
		Rejected:   req.Rejected,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispute": ToDisputeResponse(dispute)})
}

func (h *Handler) HandleGetDispute(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	disputeID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	dispute, err := h.Kernel.GetDispute(c.Request.Context(), actor.TenantID, disputeID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispute": ToDisputeResponse(dispute)})
}

func (h *Handler) HandleRequestApproval(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	var req struct {
		TicketID string `json:"ticket_id"`
		Subject  string `json:"subject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	approval, err := h.Kernel.RequestApproval(c.Request.Context(), actor, usecase.RequestApprovalInput{
		TicketID: req.TicketID,
		Subject:  req.Subject,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approval": ToApprovalResponse(approval)})
}

func (h *Handler) HandleDecideApproval(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	approvalID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Approve   bool   `json:"approve"`
		Rationale string `json:"rationale,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	approval, err := h.Kernel.DecideApproval(c.Request.Context(), actor, usecase.DecideApprovalInput{
		ApprovalID: approvalID,
		Approve:    req.Approve,
		Rationale:  req.Rationale,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approval": ToApprovalResponse(approval)})
}

func (h *Handler) HandleVerifyAudit(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	opts := usecase.VerifyOptions{
		Stream:   strings.TrimSpace(c.Query("stream")),
		StartSeq: queryInt64(c, "start_seq"),
		EndSeq:   queryInt64(c, "end_seq"),
		Limit:    int(queryInt64(c, "limit")),
	}
	if opts.Limit <= 0 {
		opts.Limit = h.VerifyLimit
	}
	result, err := h.Kernel.VerifyAudit(c.Request.Context(), actor.TenantID, opts)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":            result.Valid,
		"checked":          result.Checked,
		"first_broken_seq": result.FirstBrokenSeq,
	})
}

func (h *Handler) HandleListOrderAudit(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		return
	}
	orderID, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.Kernel.ListOrderAudit(c.Request.Context(), actor.TenantID, orderID, int(queryInt64(c, "limit")))
	if err != nil {
		WriteError(c, err)
		return
	}
	items := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ToAuditEntryResponse(entry))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func queryInt64(c *gin.Context, name string) int64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return value
}
