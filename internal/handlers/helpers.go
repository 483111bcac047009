package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
)

// abortWithError records the error for the ErrorHandler middleware and stops
// the handler chain.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindingError converts a binding failure into an INVALID_INPUT AppError.
func bindingError(err error) *apperrors.AppError {
	return apperrors.Wrap(apperrors.ErrInvalidInput, err)
}

// parseUintParam parses a numeric path parameter.
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		abortWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+name))
		return 0, false
	}
	return uint(v), true
}

// parseDate parses a calendar date in 2006-01-02 form. Binding validates the
// format first, so failures here are defensive only.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// parseDecimal parses a decimal amount string. Amounts travel as strings so
// no binary floating point ever touches them.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// securityKeyQuery holds the security key legs parsed from query strings.
type securityKeyQuery struct {
	FundID       uint `form:"fund_id" binding:"required"`
	IssuerID     uint `form:"issuer_id" binding:"required"`
	ShareClassID uint `form:"share_class_id" binding:"required"`
}

func (q securityKeyQuery) key() models.SecurityKey {
	return models.SecurityKey{FundID: q.FundID, IssuerID: q.IssuerID, ShareClassID: q.ShareClassID}
}
