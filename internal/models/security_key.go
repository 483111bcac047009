package models

import "fmt"

// SecurityKey identifies one fungible inventory pool: a fund's holding of a
// single share class of a single issuer. It is embedded into every ledger row
// and is immutable once a lot references it. The struct is comparable, so it
// doubles as the map key for per-pool serialization.
type SecurityKey struct {
	FundID       uint `gorm:"not null" json:"fund_id"`
	IssuerID     uint `gorm:"not null" json:"issuer_id"`
	ShareClassID uint `gorm:"not null" json:"share_class_id"`
}

// String renders the key for log lines.
func (k SecurityKey) String() string {
	return fmt.Sprintf("fund=%d issuer=%d class=%d", k.FundID, k.IssuerID, k.ShareClassID)
}
