package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
)

// lotStore implements LotStorer on top of GORM. It is pure data access: no
// locking, no referential validation, no side effects.
type lotStore struct{}

// NewLotStore creates a new LotStorer.
func NewLotStore() LotStorer {
	return &lotStore{}
}

func keyScope(key models.SecurityKey) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("fund_id = ? AND issuer_id = ? AND share_class_id = ?",
			key.FundID, key.IssuerID, key.ShareClassID)
	}
}

// LotsUpTo returns posted purchase lots with trade_date <= date, ordered by
// (trade_date, id) ascending.
func (s *lotStore) LotsUpTo(tx *gorm.DB, key models.SecurityKey, date time.Time) ([]models.PurchaseLot, error) {
	var lots []models.PurchaseLot
	err := tx.Scopes(keyScope(key)).
		Where("status = ? AND trade_date <= ?", models.TxStatusPosted, date).
		Order("trade_date ASC, id ASC").
		Find(&lots).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return lots, nil
}

// DisposalsBefore returns posted disposals preceding (date, excludingID):
// all strictly earlier dates plus same-day rows with a smaller id, ordered by
// (trade_date, id) ascending.
func (s *lotStore) DisposalsBefore(tx *gorm.DB, key models.SecurityKey, date time.Time, excludingID uint) ([]models.Disposal, error) {
	var disposals []models.Disposal
	err := tx.Scopes(keyScope(key)).
		Where("status = ?", models.TxStatusPosted).
		Where("trade_date < ? OR (trade_date = ? AND id < ?)", date, date, excludingID).
		Order("trade_date ASC, id ASC").
		Find(&disposals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return disposals, nil
}

// DisposalsFrom returns posted disposals with trade_date >= date, ordered by
// (trade_date, id) ascending.
func (s *lotStore) DisposalsFrom(tx *gorm.DB, key models.SecurityKey, date time.Time) ([]models.Disposal, error) {
	var disposals []models.Disposal
	err := tx.Scopes(keyScope(key)).
		Where("status = ? AND trade_date >= ?", models.TxStatusPosted, date).
		Order("trade_date ASC, id ASC").
		Find(&disposals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return disposals, nil
}

// PendingActions returns unapplied corporate actions effective at or before
// date, ordered by (effective_date, id) ascending.
func (s *lotStore) PendingActions(tx *gorm.DB, key models.SecurityKey, date time.Time) ([]models.CorporateAction, error) {
	var actions []models.CorporateAction
	err := tx.Scopes(keyScope(key)).
		Where("applied = ? AND effective_date <= ?", false, date).
		Order("effective_date ASC, id ASC").
		Find(&actions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return actions, nil
}
