package models

import "time"

// ActionKind is the type of a corporate action.
type ActionKind string

const (
	ActionKindSplit ActionKind = "SPLIT"
	ActionKindBonus ActionKind = "BONUS"
	// ActionKindMerger exists in the data model but has no defined rescaling
	// rule; the recorder rejects it rather than inventing a semantics.
	ActionKindMerger ActionKind = "MERGER"
)

// CorporateAction records a split or bonus issue for one security key. The
// ratio is to:from, e.g. RatioFrom=1, RatioTo=10 for a 10:1 split. Applied
// flags make the rescale idempotent: an already-applied action is never
// rescaled twice. An unapplied action whose effective date overlaps a replay
// window makes that replay fail closed with STALE_LEDGER.
type CorporateAction struct {
	Base
	SecurityKey   SecurityKey `gorm:"embedded" json:"security_key"`
	Kind          ActionKind  `gorm:"size:20;not null" json:"kind"`
	EffectiveDate time.Time   `gorm:"type:date;not null;index" json:"effective_date"`
	RatioFrom     int64       `gorm:"not null" json:"ratio_from"`
	RatioTo       int64       `gorm:"not null" json:"ratio_to"`
	Details       string      `json:"details,omitempty"`

	Applied   bool       `gorm:"not null;default:false" json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}
