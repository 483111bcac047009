package models

import "time"

// Base contains common columns for all tables. Primary keys are
// auto-incrementing integers: ledger ordering relies on ids being
// monotonically assigned at insertion, so same-day rows replay in a
// stable, reproducible order.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TxStatus is the posting lifecycle of a ledger transaction. Only posted
// transactions participate in FIFO replay.
type TxStatus string

const (
	TxStatusDraft    TxStatus = "draft"
	TxStatusPosted   TxStatus = "posted"
	TxStatusReversed TxStatus = "reversed"
)
