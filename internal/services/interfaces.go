package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fundledger/internal/models"
	"fundledger/internal/pagination"
)

// RegistryServicer defines the contract for the fund/issuer/share-class
// registries. The wider portal owns their full CRUD surface; the ledger only
// needs enough to resolve security keys referentially.
type RegistryServicer interface {
	CreateFund(name, registrationNumber, currency string) (*models.Fund, error)
	GetFundByID(fundID uint) (*models.Fund, error)
	ListFunds(page pagination.PageRequest) (*pagination.PageResponse[models.Fund], error)
	CreateIssuer(name, cin, sector string) (*models.Issuer, error)
	ListIssuers(page pagination.PageRequest) (*pagination.PageResponse[models.Issuer], error)
	CreateShareClass(issuerID uint, name string, faceValue decimal.Decimal) (*models.ShareClass, error)
	ListShareClasses(issuerID uint, page pagination.PageRequest) (*pagination.PageResponse[models.ShareClass], error)

	// ResolveSecurityKey verifies that every leg of the key exists and that
	// the share class belongs to the key's issuer.
	ResolveSecurityKey(key models.SecurityKey) error
}

// LotStorer defines read access to the ledger for one security key. All
// sequences come back ordered by (trade_date, id) ascending and contain only
// posted rows. Queries run inside the caller's transaction so that a
// computation sees one consistent snapshot.
type LotStorer interface {
	// LotsUpTo returns every purchase lot with trade_date <= date.
	LotsUpTo(tx *gorm.DB, key models.SecurityKey, date time.Time) ([]models.PurchaseLot, error)
	// DisposalsBefore returns disposals that precede the disposal identified
	// by (date, excludingID): strictly earlier dates, plus same-day rows with
	// a smaller id.
	DisposalsBefore(tx *gorm.DB, key models.SecurityKey, date time.Time, excludingID uint) ([]models.Disposal, error)
	// DisposalsFrom returns disposals with trade_date >= date, the recompute
	// cascade's working set.
	DisposalsFrom(tx *gorm.DB, key models.SecurityKey, date time.Time) ([]models.Disposal, error)
	// PendingActions returns corporate actions that have not been applied to
	// the ledger and whose effective date falls at or before the given date.
	PendingActions(tx *gorm.DB, key models.SecurityKey, date time.Time) ([]models.CorporateAction, error)
}

// Rescaler applies a corporate action to the historical ledger.
type Rescaler interface {
	// ApplyAction rescales every lot of the action's security key dated
	// strictly before the effective date, preserving each lot's total cost.
	// Applying an already-applied action is a no-op.
	ApplyAction(tx *gorm.DB, action *models.CorporateAction) error
}

// CostBasisServicer computes and caches disposal cost bases.
type CostBasisServicer interface {
	// ComputeAndStore recomputes one disposal's cost basis and realized gain
	// under the security key lock and persists both.
	ComputeAndStore(ctx context.Context, disposalID uint) (*models.Disposal, error)
	// RecomputeFrom recomputes every disposal of the key with
	// trade_date >= fromDate in (trade_date, id) order, atomically. Returns
	// the number of disposals recomputed.
	RecomputeFrom(ctx context.Context, key models.SecurityKey, fromDate time.Time) (int, error)
	// RecomputeFromTx is RecomputeFrom running inside an existing transaction.
	// The caller must already hold the security key lock.
	RecomputeFromTx(ctx context.Context, tx *gorm.DB, key models.SecurityKey, fromDate time.Time) (int, error)
}

// RecordOptions carries the optional bookkeeping fields of a purchase or
// disposal.
type RecordOptions struct {
	Fees          decimal.Decimal
	Taxes         decimal.Decimal
	Notes         string
	ExternalRef   string
	ImportBatchID string
}

// Holding summarizes a fund's open position in one security key.
type Holding struct {
	SecurityKey models.SecurityKey `json:"security_key"`
	Quantity    decimal.Decimal    `json:"quantity"`
	AvgCost     decimal.Decimal    `json:"avg_cost"`
	TotalCost   decimal.Decimal    `json:"total_cost"`
}

// LedgerServicer is the public entry point of the lot-accounting engine.
// Every mutating operation serializes on the security key and commits its
// recompute cascade in a single transaction.
type LedgerServicer interface {
	RecordPurchase(ctx context.Context, key models.SecurityKey, tradeDate time.Time, quantity, unitPrice decimal.Decimal, opts RecordOptions) (*models.PurchaseLot, error)
	RecordDisposal(ctx context.Context, key models.SecurityKey, tradeDate time.Time, quantity, unitPrice decimal.Decimal, opts RecordOptions) (*models.Disposal, error)
	RecordCorporateAction(ctx context.Context, key models.SecurityKey, kind models.ActionKind, effectiveDate time.Time, ratioFrom, ratioTo int64, details string) (*models.CorporateAction, error)
	Recompute(ctx context.Context, key models.SecurityKey, fromDate time.Time) (int, error)

	GetLotByID(lotID uint) (*models.PurchaseLot, error)
	GetDisposalByID(disposalID uint) (*models.Disposal, error)
	ListLots(key models.SecurityKey, page pagination.PageRequest) (*pagination.PageResponse[models.PurchaseLot], error)
	ListDisposals(key models.SecurityKey, page pagination.PageRequest) (*pagination.PageResponse[models.Disposal], error)
	ListCorporateActions(key models.SecurityKey, page pagination.PageRequest) (*pagination.PageResponse[models.CorporateAction], error)
	GetFundHoldings(fundID uint) ([]Holding, error)
}
