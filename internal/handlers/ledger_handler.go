package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fundledger/internal/models"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// LedgerHandler handles lot-accounting requests.
type LedgerHandler struct {
	ledgerService services.LedgerServicer
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerService services.LedgerServicer) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// RecordPurchaseRequest represents the request payload for recording a purchase lot.
type RecordPurchaseRequest struct {
	FundID        uint   `json:"fund_id" binding:"required"`
	IssuerID      uint   `json:"issuer_id" binding:"required"`
	ShareClassID  uint   `json:"share_class_id" binding:"required"`
	TradeDate     string `json:"trade_date" binding:"required,datetime=2006-01-02"`
	Quantity      string `json:"quantity" binding:"required,decimal_positive"`
	UnitPrice     string `json:"unit_price" binding:"required,decimal_nonneg"`
	Fees          string `json:"fees" binding:"omitempty,decimal_nonneg"`
	Taxes         string `json:"taxes" binding:"omitempty,decimal_nonneg"`
	Notes         string `json:"notes" binding:"max=500"`
	ExternalRef   string `json:"external_ref" binding:"max=128"`
	ImportBatchID string `json:"import_batch_id" binding:"max=64"`
}

// RecordDisposalRequest represents the request payload for recording a disposal.
type RecordDisposalRequest struct {
	FundID        uint   `json:"fund_id" binding:"required"`
	IssuerID      uint   `json:"issuer_id" binding:"required"`
	ShareClassID  uint   `json:"share_class_id" binding:"required"`
	TradeDate     string `json:"trade_date" binding:"required,datetime=2006-01-02"`
	Quantity      string `json:"quantity" binding:"required,decimal_positive"`
	UnitPrice     string `json:"unit_price" binding:"required,decimal_nonneg"`
	Fees          string `json:"fees" binding:"omitempty,decimal_nonneg"`
	Taxes         string `json:"taxes" binding:"omitempty,decimal_nonneg"`
	Notes         string `json:"notes" binding:"max=500"`
	ExternalRef   string `json:"external_ref" binding:"max=128"`
	ImportBatchID string `json:"import_batch_id" binding:"max=64"`
}

// RecordCorporateActionRequest represents the request payload for recording a
// split or bonus issue.
type RecordCorporateActionRequest struct {
	FundID        uint   `json:"fund_id" binding:"required"`
	IssuerID      uint   `json:"issuer_id" binding:"required"`
	ShareClassID  uint   `json:"share_class_id" binding:"required"`
	Kind          string `json:"kind" binding:"required,action_kind"`
	EffectiveDate string `json:"effective_date" binding:"required,datetime=2006-01-02"`
	RatioFrom     int64  `json:"ratio_from" binding:"required"`
	RatioTo       int64  `json:"ratio_to" binding:"required"`
	Details       string `json:"details" binding:"max=500"`
}

// RecomputeRequest represents the request payload for an explicit recompute.
type RecomputeRequest struct {
	FundID       uint   `json:"fund_id" binding:"required"`
	IssuerID     uint   `json:"issuer_id" binding:"required"`
	ShareClassID uint   `json:"share_class_id" binding:"required"`
	FromDate     string `json:"from_date" binding:"required,datetime=2006-01-02"`
}

// RecordPurchase handles recording a purchase lot.
// @Summary     Record purchase
// @Description Record an acquisition lot and refresh any disposals it affects
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecordPurchaseRequest true "Purchase details"
// @Success     201 {object} models.PurchaseLot
// @Failure     400 {object} errors.AppError
// @Failure     409 {object} errors.AppError
// @Router      /ledger/purchases [post]
func (h *LedgerHandler) RecordPurchase(c *gin.Context) {
	var req RecordPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	tradeDate, err := parseDate(req.TradeDate)
	if err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	key := models.SecurityKey{FundID: req.FundID, IssuerID: req.IssuerID, ShareClassID: req.ShareClassID}
	lot, err := h.ledgerService.RecordPurchase(c.Request.Context(), key, tradeDate,
		parseDecimal(req.Quantity), parseDecimal(req.UnitPrice),
		services.RecordOptions{
			Fees:          parseDecimal(req.Fees),
			Taxes:         parseDecimal(req.Taxes),
			Notes:         req.Notes,
			ExternalRef:   req.ExternalRef,
			ImportBatchID: req.ImportBatchID,
		})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lot)
}

// RecordDisposal handles recording a disposal (redemption).
// @Summary     Record disposal
// @Description Record a redemption; cost basis and realized gain are computed synchronously via FIFO replay
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecordDisposalRequest true "Disposal details"
// @Success     201 {object} models.Disposal
// @Failure     400 {object} errors.AppError
// @Failure     409 {object} errors.AppError
// @Router      /ledger/disposals [post]
func (h *LedgerHandler) RecordDisposal(c *gin.Context) {
	var req RecordDisposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	tradeDate, err := parseDate(req.TradeDate)
	if err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	key := models.SecurityKey{FundID: req.FundID, IssuerID: req.IssuerID, ShareClassID: req.ShareClassID}
	disposal, err := h.ledgerService.RecordDisposal(c.Request.Context(), key, tradeDate,
		parseDecimal(req.Quantity), parseDecimal(req.UnitPrice),
		services.RecordOptions{
			Fees:          parseDecimal(req.Fees),
			Taxes:         parseDecimal(req.Taxes),
			Notes:         req.Notes,
			ExternalRef:   req.ExternalRef,
			ImportBatchID: req.ImportBatchID,
		})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, disposal)
}

// RecordCorporateAction handles recording a split or bonus issue.
// @Summary     Record corporate action
// @Description Record a split/bonus issue, rescale earlier lots and recompute affected disposals
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecordCorporateActionRequest true "Corporate action details"
// @Success     201 {object} models.CorporateAction
// @Failure     400 {object} errors.AppError
// @Router      /ledger/corporate-actions [post]
func (h *LedgerHandler) RecordCorporateAction(c *gin.Context) {
	var req RecordCorporateActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	effectiveDate, err := parseDate(req.EffectiveDate)
	if err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	key := models.SecurityKey{FundID: req.FundID, IssuerID: req.IssuerID, ShareClassID: req.ShareClassID}
	action, err := h.ledgerService.RecordCorporateAction(c.Request.Context(), key,
		models.ActionKind(req.Kind), effectiveDate, req.RatioFrom, req.RatioTo, req.Details)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, action)
}

// Recompute handles an explicit recompute cascade.
// @Summary     Recompute cost bases
// @Description Re-run the cost basis cascade for a security key from a given date
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecomputeRequest true "Recompute window"
// @Success     200 {object} map[string]int
// @Router      /ledger/recompute [post]
func (h *LedgerHandler) Recompute(c *gin.Context) {
	var req RecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	fromDate, err := parseDate(req.FromDate)
	if err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	key := models.SecurityKey{FundID: req.FundID, IssuerID: req.IssuerID, ShareClassID: req.ShareClassID}
	count, err := h.ledgerService.Recompute(c.Request.Context(), key, fromDate)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recomputed": count})
}

// GetDisposal returns one disposal with its cached cost basis.
// @Summary     Get disposal
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Disposal ID"
// @Success     200 {object} models.Disposal
// @Failure     404 {object} errors.AppError
// @Router      /ledger/disposals/{id} [get]
func (h *LedgerHandler) GetDisposal(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	disposal, err := h.ledgerService.GetDisposalByID(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, disposal)
}

// ListLots returns a security key's purchase lots.
// @Summary     List purchase lots
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       fund_id query int true "Fund ID"
// @Param       issuer_id query int true "Issuer ID"
// @Param       share_class_id query int true "Share class ID"
// @Success     200 {object} pagination.PageResponse[models.PurchaseLot]
// @Router      /ledger/lots [get]
func (h *LedgerHandler) ListLots(c *gin.Context) {
	var query securityKeyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		abortWithError(c, bindingError(err))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	lots, err := h.ledgerService.ListLots(query.key(), page)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, lots)
}

// ListDisposals returns a security key's disposals.
// @Summary     List disposals
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       fund_id query int true "Fund ID"
// @Param       issuer_id query int true "Issuer ID"
// @Param       share_class_id query int true "Share class ID"
// @Success     200 {object} pagination.PageResponse[models.Disposal]
// @Router      /ledger/disposals [get]
func (h *LedgerHandler) ListDisposals(c *gin.Context) {
	var query securityKeyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		abortWithError(c, bindingError(err))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	disposals, err := h.ledgerService.ListDisposals(query.key(), page)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, disposals)
}

// ListCorporateActions returns a security key's corporate actions.
// @Summary     List corporate actions
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       fund_id query int true "Fund ID"
// @Param       issuer_id query int true "Issuer ID"
// @Param       share_class_id query int true "Share class ID"
// @Success     200 {object} pagination.PageResponse[models.CorporateAction]
// @Router      /ledger/corporate-actions [get]
func (h *LedgerHandler) ListCorporateActions(c *gin.Context) {
	var query securityKeyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		abortWithError(c, bindingError(err))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	actions, err := h.ledgerService.ListCorporateActions(query.key(), page)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, actions)
}

// GetFundHoldings returns a fund's open positions.
// @Summary     Fund holdings
// @Description Current quantity, weighted-average cost and total cost per security key
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Fund ID"
// @Success     200 {array} services.Holding
// @Failure     404 {object} errors.AppError
// @Router      /funds/{id}/holdings [get]
func (h *LedgerHandler) GetFundHoldings(c *gin.Context) {
	fundID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	holdings, err := h.ledgerService.GetFundHoldings(fundID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, holdings)
}
