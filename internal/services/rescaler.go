package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/logger"
	"fundledger/internal/models"
)

// rescaler applies corporate actions to the historical ledger.
type rescaler struct {
	store LotStorer
}

// NewRescaler creates a new Rescaler.
func NewRescaler(store LotStorer) Rescaler {
	return &rescaler{store: store}
}

// ApplyAction rescales every lot of the action's key dated strictly before
// the effective date: quantity multiplies by to/from, unit price divides by
// the same ratio, so each lot's total cost is unchanged. Disposals and other
// actions at or before the effective date are not touched. The caller must
// hold the security key lock and run inside the same transaction as any
// computation that depends on the rescaled state.
func (r *rescaler) ApplyAction(tx *gorm.DB, action *models.CorporateAction) error {
	if action.Kind == models.ActionKindMerger {
		return apperrors.ErrUnsupportedAction
	}
	if action.RatioFrom <= 0 || action.RatioTo <= 0 {
		return apperrors.ErrInvalidRatio
	}
	if action.Applied {
		// Idempotence: reapplying a rescale would corrupt every lot.
		logger.Get().Infow("corporate action already applied, skipping",
			"action_id", action.ID, "security_key", action.SecurityKey.String())
		return nil
	}

	from := decimal.NewFromInt(action.RatioFrom)
	to := decimal.NewFromInt(action.RatioTo)

	// Strictly earlier lots only. If the effective date precedes the earliest
	// lot this loop does nothing, which is the required no-op behavior.
	lots, err := r.store.LotsUpTo(tx, action.SecurityKey, action.EffectiveDate.AddDate(0, 0, -1))
	if err != nil {
		return err
	}

	for i := range lots {
		lot := &lots[i]
		newQty := lot.Quantity.Mul(to).DivRound(from, guardScale)
		newPrice := lot.UnitPrice.Mul(from).DivRound(to, guardScale)

		if err := tx.Model(lot).Updates(map[string]interface{}{
			"quantity":   newQty,
			"unit_price": newPrice,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	now := time.Now()
	if err := tx.Model(action).Updates(map[string]interface{}{
		"applied":    true,
		"applied_at": now,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	action.Applied = true
	action.AppliedAt = &now

	logger.Get().Infow("corporate action applied",
		"action_id", action.ID,
		"kind", action.Kind,
		"security_key", action.SecurityKey.String(),
		"lots_rescaled", len(lots),
	)
	return nil
}
