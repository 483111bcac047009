package models

import "github.com/shopspring/decimal"

// Issuer represents an investee company whose shares the funds hold.
type Issuer struct {
	Base
	Name   string `gorm:"not null" json:"name"`
	CIN    string `gorm:"size:30;uniqueIndex" json:"cin"`
	Sector string `gorm:"size:100" json:"sector,omitempty"`
}

// ShareClass is one class of an issuer's shares (equity, preference, ...).
// Lots of different classes are never fungible with each other.
type ShareClass struct {
	Base
	IssuerID  uint            `gorm:"not null;index" json:"issuer_id"`
	Name      string          `gorm:"not null" json:"name"`
	FaceValue decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"face_value"`

	Issuer Issuer `gorm:"foreignKey:IssuerID" json:"-"`
}
