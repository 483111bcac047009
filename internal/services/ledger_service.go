package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/logger"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
)

// ledgerService is the public entry point of the lot-accounting engine.
type ledgerService struct {
	db        *gorm.DB
	registry  RegistryServicer
	store     LotStorer
	rescaler  Rescaler
	costBasis CostBasisServicer
	locks     *KeyLocks
}

// NewLedgerService creates a new LedgerServicer. locks must be the instance
// shared with the cost basis service.
func NewLedgerService(db *gorm.DB, registry RegistryServicer, store LotStorer, rescaler Rescaler, costBasis CostBasisServicer, locks *KeyLocks) LedgerServicer {
	return &ledgerService{
		db:        db,
		registry:  registry,
		store:     store,
		rescaler:  rescaler,
		costBasis: costBasis,
		locks:     locks,
	}
}

// lotHash fingerprints a purchase for import deduplication. Re-submitting the
// same batch row (same key, date, quantity, price, external ref) is rejected
// rather than silently double-counted.
func lotHash(key models.SecurityKey, tradeDate time.Time, quantity, unitPrice decimal.Decimal, externalRef string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d|%d|%d|%s|%s|%s|%s",
		key.FundID, key.IssuerID, key.ShareClassID,
		tradeDate.Format("2006-01-02"),
		quantity.String(), unitPrice.String(), externalRef)))
	return hex.EncodeToString(h[:])
}

// RecordPurchase inserts a purchase lot and recomputes every disposal dated
// at or after it. Late-arriving purchases are the normal path, not an error:
// the cascade runs inside the same transaction as the insert.
func (s *ledgerService) RecordPurchase(ctx context.Context, key models.SecurityKey, tradeDate time.Time, quantity, unitPrice decimal.Decimal, opts RecordOptions) (*models.PurchaseLot, error) {
	if !quantity.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be a positive number")
	}
	if unitPrice.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unit price must not be negative")
	}
	if err := s.registry.ResolveSecurityKey(key); err != nil {
		return nil, err
	}

	tradeDate = dateOnly(tradeDate)

	release, err := acquireKeyLock(ctx, s.locks, key)
	if err != nil {
		return nil, err
	}
	defer release()

	lot := &models.PurchaseLot{
		SecurityKey:   key,
		TradeDate:     tradeDate,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		Status:        models.TxStatusPosted,
		Fees:          opts.Fees,
		Taxes:         opts.Taxes,
		Notes:         opts.Notes,
		ExternalRef:   opts.ExternalRef,
		ImportBatchID: opts.ImportBatchID,
		UniqueHash:    lotHash(key, tradeDate, quantity, unitPrice, opts.ExternalRef),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if txErr := tx.Model(&models.PurchaseLot{}).
			Where("unique_hash = ? AND status <> ?", lot.UniqueHash, models.TxStatusReversed).
			Count(&existing).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if existing > 0 {
			return apperrors.ErrDuplicateTransaction
		}

		if txErr := tx.Create(lot).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		_, txErr := s.costBasis.RecomputeFromTx(ctx, tx, key, tradeDate)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("purchase recorded",
		"lot_id", lot.ID,
		"security_key", key.String(),
		"trade_date", tradeDate.Format("2006-01-02"),
		"quantity", quantity.String(),
	)
	return lot, nil
}

// RecordDisposal inserts a disposal and computes its cost basis and realized
// gain synchronously. Disposals dated after it are recomputed in the same
// transaction, so an out-of-order entry can never leave later cached figures
// stale. An oversell rolls the entire transaction back: no disposal row is
// ever persisted without a valid cost basis.
func (s *ledgerService) RecordDisposal(ctx context.Context, key models.SecurityKey, tradeDate time.Time, quantity, unitPrice decimal.Decimal, opts RecordOptions) (*models.Disposal, error) {
	if !quantity.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be a positive number")
	}
	if unitPrice.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unit price must not be negative")
	}
	if err := s.registry.ResolveSecurityKey(key); err != nil {
		return nil, err
	}

	tradeDate = dateOnly(tradeDate)

	release, err := acquireKeyLock(ctx, s.locks, key)
	if err != nil {
		return nil, err
	}
	defer release()

	disposal := &models.Disposal{
		SecurityKey:   key,
		TradeDate:     tradeDate,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		Status:        models.TxStatusPosted,
		Fees:          opts.Fees,
		Taxes:         opts.Taxes,
		Notes:         opts.Notes,
		ExternalRef:   opts.ExternalRef,
		ImportBatchID: opts.ImportBatchID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(disposal).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		// The cascade picks up the new disposal itself plus every later one.
		_, txErr := s.costBasis.RecomputeFromTx(ctx, tx, key, tradeDate)
		if txErr != nil {
			return txErr
		}

		// Reload the derived fields written by the cascade.
		return tx.First(disposal, disposal.ID).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("disposal recorded",
		"disposal_id", disposal.ID,
		"security_key", key.String(),
		"trade_date", tradeDate.Format("2006-01-02"),
		"quantity", quantity.String(),
		"cost_basis", disposal.CostBasis.String(),
		"realized_gain", disposal.RealizedGain.String(),
	)
	return disposal, nil
}

// RecordCorporateAction persists a split or bonus issue, rescales all earlier
// lots and recomputes every disposal from the effective date forward, all in
// one transaction under the key lock. MERGER actions are rejected: they have
// no defined rescaling rule.
func (s *ledgerService) RecordCorporateAction(ctx context.Context, key models.SecurityKey, kind models.ActionKind, effectiveDate time.Time, ratioFrom, ratioTo int64, details string) (*models.CorporateAction, error) {
	if kind == models.ActionKindMerger {
		return nil, apperrors.ErrUnsupportedAction
	}
	if kind != models.ActionKindSplit && kind != models.ActionKindBonus {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown corporate action kind")
	}
	if ratioFrom <= 0 || ratioTo <= 0 {
		return nil, apperrors.ErrInvalidRatio
	}
	if err := s.registry.ResolveSecurityKey(key); err != nil {
		return nil, err
	}

	effectiveDate = dateOnly(effectiveDate)

	release, err := acquireKeyLock(ctx, s.locks, key)
	if err != nil {
		return nil, err
	}
	defer release()

	action := &models.CorporateAction{
		SecurityKey:   key,
		Kind:          kind,
		EffectiveDate: effectiveDate,
		RatioFrom:     ratioFrom,
		RatioTo:       ratioTo,
		Details:       details,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(action).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if txErr := s.rescaler.ApplyAction(tx, action); txErr != nil {
			return txErr
		}
		_, txErr := s.costBasis.RecomputeFromTx(ctx, tx, key, effectiveDate)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	return action, nil
}

// Recompute re-runs the cost basis cascade for a security key from the given
// date. Exposed for operational repair after out-of-band data fixes.
func (s *ledgerService) Recompute(ctx context.Context, key models.SecurityKey, fromDate time.Time) (int, error) {
	if err := s.registry.ResolveSecurityKey(key); err != nil {
		return 0, err
	}
	return s.costBasis.RecomputeFrom(ctx, key, fromDate)
}

// GetLotByID returns a purchase lot.
func (s *ledgerService) GetLotByID(lotID uint) (*models.PurchaseLot, error) {
	var lot models.PurchaseLot
	if err := s.db.First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &lot, nil
}

// GetDisposalByID returns a disposal with its cached derived fields.
func (s *ledgerService) GetDisposalByID(disposalID uint) (*models.Disposal, error) {
	var disposal models.Disposal
	if err := s.db.First(&disposal, disposalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDisposalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &disposal, nil
}

// ListLots returns a paginated list of a security key's purchase lots,
// newest first.
func (s *ledgerService) ListLots(key models.SecurityKey, page pagination.PageRequest) (*pagination.PageResponse[models.PurchaseLot], error) {
	if err := s.registry.ResolveSecurityKey(key); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.PurchaseLot{}).Scopes(keyScope(key))
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var lots []models.PurchaseLot
	if err := base.Order("trade_date DESC, id DESC").
		Scopes(pagination.Paginate(page)).Find(&lots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(lots, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListDisposals returns a paginated list of a security key's disposals,
// newest first.
func (s *ledgerService) ListDisposals(key models.SecurityKey, page pagination.PageRequest) (*pagination.PageResponse[models.Disposal], error) {
	if err := s.registry.ResolveSecurityKey(key); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.Disposal{}).Scopes(keyScope(key))
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var disposals []models.Disposal
	if err := base.Order("trade_date DESC, id DESC").
		Scopes(pagination.Paginate(page)).Find(&disposals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(disposals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListCorporateActions returns a paginated list of a security key's corporate
// actions, newest first.
func (s *ledgerService) ListCorporateActions(key models.SecurityKey, page pagination.PageRequest) (*pagination.PageResponse[models.CorporateAction], error) {
	if err := s.registry.ResolveSecurityKey(key); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.CorporateAction{}).Scopes(keyScope(key))
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var actions []models.CorporateAction
	if err := base.Order("effective_date DESC, id DESC").
		Scopes(pagination.Paginate(page)).Find(&actions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(actions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetFundHoldings summarizes a fund's open positions: held quantity,
// weighted-average cost and total cost per security key. Positions that are
// fully disposed are omitted.
func (s *ledgerService) GetFundHoldings(fundID uint) ([]Holding, error) {
	if _, err := s.registry.GetFundByID(fundID); err != nil {
		return nil, err
	}

	var lots []models.PurchaseLot
	if err := s.db.Where("fund_id = ? AND status = ?", fundID, models.TxStatusPosted).
		Order("trade_date ASC, id ASC").Find(&lots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var disposals []models.Disposal
	if err := s.db.Where("fund_id = ? AND status = ?", fundID, models.TxStatusPosted).
		Find(&disposals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type position struct {
		purchased decimal.Decimal
		sold      decimal.Decimal
		cost      decimal.Decimal
	}
	positions := make(map[models.SecurityKey]*position)
	var order []models.SecurityKey

	for i := range lots {
		key := lots[i].SecurityKey
		p, ok := positions[key]
		if !ok {
			p = &position{}
			positions[key] = p
			order = append(order, key)
		}
		p.purchased = p.purchased.Add(lots[i].Quantity)
		p.cost = p.cost.Add(lots[i].Cost())
	}
	for i := range disposals {
		if p, ok := positions[disposals[i].SecurityKey]; ok {
			p.sold = p.sold.Add(disposals[i].Quantity)
		}
	}

	holdings := make([]Holding, 0, len(order))
	for _, key := range order {
		p := positions[key]
		held := p.purchased.Sub(p.sold)
		if !held.IsPositive() {
			continue
		}
		avgCost := p.cost.DivRound(p.purchased, guardScale)
		holdings = append(holdings, Holding{
			SecurityKey: key,
			Quantity:    held,
			AvgCost:     avgCost,
			TotalCost:   held.Mul(avgCost).Round(currencyScale),
		})
	}
	return holdings, nil
}
