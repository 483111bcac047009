package models

// Fund represents a managed fund. The wider portal owns fund administration;
// the ledger only needs funds as one leg of the security key and as the
// scope for holdings reports.
type Fund struct {
	Base
	Name               string `gorm:"not null" json:"name"`
	RegistrationNumber string `gorm:"size:50;uniqueIndex" json:"registration_number"`
	Currency           string `gorm:"size:3;not null;default:'INR'" json:"currency"`
}
