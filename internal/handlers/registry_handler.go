package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

// RegistryHandler handles fund/issuer/share-class registry requests.
type RegistryHandler struct {
	registryService services.RegistryServicer
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(registryService services.RegistryServicer) *RegistryHandler {
	return &RegistryHandler{registryService: registryService}
}

// CreateFundRequest represents the request payload for registering a fund.
type CreateFundRequest struct {
	Name               string `json:"name" binding:"required,min=1,max=200"`
	RegistrationNumber string `json:"registration_number" binding:"required,min=1,max=50"`
	Currency           string `json:"currency" binding:"omitempty,len=3"`
}

// CreateIssuerRequest represents the request payload for registering an issuer.
type CreateIssuerRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=200"`
	CIN    string `json:"cin" binding:"required,min=1,max=30"`
	Sector string `json:"sector" binding:"max=100"`
}

// CreateShareClassRequest represents the request payload for registering a share class.
type CreateShareClassRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	FaceValue string `json:"face_value" binding:"required,decimal_positive"`
}

// CreateFund handles registering a fund.
// @Summary     Register fund
// @Tags        registry
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateFundRequest true "Fund details"
// @Success     201 {object} models.Fund
// @Router      /funds [post]
func (h *RegistryHandler) CreateFund(c *gin.Context) {
	var req CreateFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	fund, err := h.registryService.CreateFund(req.Name, req.RegistrationNumber, req.Currency)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, fund)
}

// ListFunds returns registered funds.
// @Summary     List funds
// @Tags        registry
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} pagination.PageResponse[models.Fund]
// @Router      /funds [get]
func (h *RegistryHandler) ListFunds(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	funds, err := h.registryService.ListFunds(page)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, funds)
}

// CreateIssuer handles registering an issuer.
// @Summary     Register issuer
// @Tags        registry
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateIssuerRequest true "Issuer details"
// @Success     201 {object} models.Issuer
// @Router      /issuers [post]
func (h *RegistryHandler) CreateIssuer(c *gin.Context) {
	var req CreateIssuerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	issuer, err := h.registryService.CreateIssuer(req.Name, req.CIN, req.Sector)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, issuer)
}

// ListIssuers returns registered issuers.
// @Summary     List issuers
// @Tags        registry
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} pagination.PageResponse[models.Issuer]
// @Router      /issuers [get]
func (h *RegistryHandler) ListIssuers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	issuers, err := h.registryService.ListIssuers(page)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, issuers)
}

// CreateShareClass handles registering a share class for an issuer.
// @Summary     Register share class
// @Tags        registry
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Issuer ID"
// @Param       request body CreateShareClassRequest true "Share class details"
// @Success     201 {object} models.ShareClass
// @Failure     404 {object} errors.AppError
// @Router      /issuers/{id}/share-classes [post]
func (h *RegistryHandler) CreateShareClass(c *gin.Context) {
	issuerID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req CreateShareClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	shareClass, err := h.registryService.CreateShareClass(issuerID, req.Name, parseDecimal(req.FaceValue))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, shareClass)
}

// ListShareClasses returns an issuer's share classes.
// @Summary     List share classes
// @Tags        registry
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Issuer ID"
// @Success     200 {object} pagination.PageResponse[models.ShareClass]
// @Failure     404 {object} errors.AppError
// @Router      /issuers/{id}/share-classes [get]
func (h *RegistryHandler) ListShareClasses(c *gin.Context) {
	issuerID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		abortWithError(c, bindingError(err))
		return
	}

	classes, err := h.registryService.ListShareClasses(issuerID, page)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, classes)
}
