package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Disposal represents one redemption of shares. CostBasis and RealizedGain
// are derived fields: they are computed by FIFO replay when the disposal is
// recorded and overwritten whenever earlier history of the same security key
// changes. ComputedAt records the last time the cache was refreshed.
type Disposal struct {
	Base
	SecurityKey SecurityKey     `gorm:"embedded" json:"security_key"`
	TradeDate   time.Time       `gorm:"type:date;not null;index" json:"trade_date"`
	Quantity    decimal.Decimal `gorm:"type:numeric(18,8);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,8);not null" json:"unit_price"`
	Status      TxStatus        `gorm:"size:20;not null;default:'posted'" json:"status"`

	CostBasis    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"cost_basis"`
	RealizedGain decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"realized_gain"`
	ComputedAt   *time.Time      `json:"computed_at,omitempty"`

	Fees  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"fees"`
	Taxes decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"taxes"`
	Notes string          `json:"notes,omitempty"`

	ExternalRef   string `gorm:"size:128;index" json:"external_ref,omitempty"`
	ImportBatchID string `gorm:"size:64;index" json:"import_batch_id,omitempty"`
}

// Proceeds returns the gross disposal value before fees.
func (d *Disposal) Proceeds() decimal.Decimal {
	return d.Quantity.Mul(d.UnitPrice)
}
