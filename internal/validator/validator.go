// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fundledger/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("decimal_positive", validateDecimalPositive)
		_ = v.RegisterValidation("decimal_nonneg", validateDecimalNonNegative)
		_ = v.RegisterValidation("action_kind", validateActionKind)
	}
}

// validateDecimalPositive checks that a string field parses as a decimal > 0.
// Quantities and prices travel as strings so that no binary floating point
// ever touches a ledger amount.
func validateDecimalPositive(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}

// validateDecimalNonNegative checks that a string field parses as a decimal >= 0.
func validateDecimalNonNegative(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && !d.IsNegative()
}

// validateActionKind checks that the field is a known corporate action kind.
func validateActionKind(fl validator.FieldLevel) bool {
	switch models.ActionKind(fl.Field().String()) {
	case models.ActionKindSplit, models.ActionKindBonus, models.ActionKindMerger:
		return true
	}
	return false
}
