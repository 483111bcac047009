package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/logger"
	"fundledger/internal/models"
)

// costBasisService computes disposal cost bases under the per-security-key
// serialization discipline.
type costBasisService struct {
	db    *gorm.DB
	store LotStorer
	locks *KeyLocks
}

// NewCostBasisService creates a new CostBasisServicer. locks must be the
// instance shared with the ledger service.
func NewCostBasisService(db *gorm.DB, store LotStorer, locks *KeyLocks) CostBasisServicer {
	return &costBasisService{db: db, store: store, locks: locks}
}

// ComputeAndStore recomputes one disposal's cost basis and realized gain and
// persists both. The computation runs under the key lock in a single
// transaction, so it can never interleave with another replay or a rescale
// for the same security key.
func (s *costBasisService) ComputeAndStore(ctx context.Context, disposalID uint) (*models.Disposal, error) {
	var disposal models.Disposal
	if err := s.db.First(&disposal, disposalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDisposalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	release, err := acquireKeyLock(ctx, s.locks, disposal.SecurityKey)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := s.ensureNoPendingActions(tx, disposal.SecurityKey, disposal.TradeDate); txErr != nil {
			return txErr
		}
		return s.computeOne(tx, &disposal)
	})
	if err != nil {
		return nil, err
	}
	return &disposal, nil
}

// RecomputeFrom recomputes every posted disposal of the key with
// trade_date >= fromDate, in (trade_date, id) order, in one atomic
// transaction under the key lock.
func (s *costBasisService) RecomputeFrom(ctx context.Context, key models.SecurityKey, fromDate time.Time) (int, error) {
	release, err := acquireKeyLock(ctx, s.locks, key)
	if err != nil {
		return 0, err
	}
	defer release()

	var count int
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		count, txErr = s.RecomputeFromTx(ctx, tx, key, fromDate)
		return txErr
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RecomputeFromTx is the cascade body. The caller must hold the security key
// lock and supplies the transaction; either the full set of recomputed rows
// commits or none of it does.
func (s *costBasisService) RecomputeFromTx(ctx context.Context, tx *gorm.DB, key models.SecurityKey, fromDate time.Time) (int, error) {
	fromDate = dateOnly(fromDate)

	targets, err := s.store.DisposalsFrom(tx, key, fromDate)
	if err != nil {
		return 0, err
	}
	if len(targets) == 0 {
		return 0, nil
	}

	// Fail closed before touching anything: an unapplied action anywhere at
	// or before the last target would make every replayed figure wrong.
	last := targets[len(targets)-1]
	if err := s.ensureNoPendingActions(tx, key, last.TradeDate); err != nil {
		return 0, err
	}

	for i := range targets {
		// A caller deadline aborts cleanly; the transaction rolls back and
		// no partially recomputed cascade is ever visible.
		if err := ctx.Err(); err != nil {
			return 0, apperrors.Wrap(apperrors.ErrConcurrencyTimeout, err)
		}
		if err := s.computeOne(tx, &targets[i]); err != nil {
			return 0, err
		}
	}

	logger.Get().Infow("recomputed disposal cost bases",
		"security_key", key.String(),
		"from_date", fromDate.Format("2006-01-02"),
		"count", len(targets),
	)
	return len(targets), nil
}

// computeOne runs a FIFO replay for a single disposal and persists the
// derived fields. It assumes the key lock is held and pending actions have
// been ruled out.
func (s *costBasisService) computeOne(tx *gorm.DB, disposal *models.Disposal) error {
	lots, err := s.store.LotsUpTo(tx, disposal.SecurityKey, disposal.TradeDate)
	if err != nil {
		return err
	}
	prior, err := s.store.DisposalsBefore(tx, disposal.SecurityKey, disposal.TradeDate, disposal.ID)
	if err != nil {
		return err
	}

	costBasis, realizedGain, err := replayCostBasis(lots, prior, disposal)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := tx.Model(disposal).Updates(map[string]interface{}{
		"cost_basis":    costBasis,
		"realized_gain": realizedGain,
		"computed_at":   now,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	disposal.CostBasis = costBasis
	disposal.RealizedGain = realizedGain
	disposal.ComputedAt = &now
	return nil
}

// ensureNoPendingActions fails with StaleLedger when an unapplied corporate
// action overlaps the replay window.
func (s *costBasisService) ensureNoPendingActions(tx *gorm.DB, key models.SecurityKey, upTo time.Time) error {
	pending, err := s.store.PendingActions(tx, key, upTo)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return apperrors.ErrStaleLedger
	}
	return nil
}
