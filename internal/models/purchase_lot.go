package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseLot represents one acquisition of shares, tracked at its own unit
// cost. Lots are never deleted; disposals reference them only implicitly, by
// FIFO replay. Quantity and unit price are mutated in place only by a
// corporate-action rescale, which preserves quantity * unit_price.
//
// Quantity and unit price carry eight decimal places so that rescaled values
// keep guard precision beyond the reporting currency's two minor-unit digits.
type PurchaseLot struct {
	Base
	SecurityKey SecurityKey     `gorm:"embedded" json:"security_key"`
	TradeDate   time.Time       `gorm:"type:date;not null;index" json:"trade_date"`
	Quantity    decimal.Decimal `gorm:"type:numeric(18,8);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,8);not null" json:"unit_price"`
	Status      TxStatus        `gorm:"size:20;not null;default:'posted'" json:"status"`

	Fees  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"fees"`
	Taxes decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"taxes"`
	Notes string          `json:"notes,omitempty"`

	// Import bookkeeping. UniqueHash deduplicates re-submitted batch rows.
	ExternalRef   string `gorm:"size:128;index" json:"external_ref,omitempty"`
	ImportBatchID string `gorm:"size:64;index" json:"import_batch_id,omitempty"`
	UniqueHash    string `gorm:"size:64;index" json:"-"`
}

// Cost returns the lot's total acquisition cost, the quantity invariant under
// rescaling.
func (l *PurchaseLot) Cost() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}
