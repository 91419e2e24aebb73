package repository

import (
	"errors"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"gorm.io/gorm"
)

type EarningRepository struct {
	db *gorm.DB
}

func NewEarningRepository(db *gorm.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

func (r *EarningRepository) WithTx(tx *gorm.DB) *EarningRepository {
	return &EarningRepository{db: tx}
}

// Create inserts a new earning row. A duplicate (lead, referrer) insert —
// e.g. a redelivered payment webhook — returns ErrConflict via the unique
// index, which callers treat as an idempotent no-op.
func (r *EarningRepository) Create(e *models.ReferrerEarning) error {
	if err := r.db.Create(e).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *EarningRepository) GetByLeadAndReferrer(leadID, referrerID uint) (*models.ReferrerEarning, error) {
	var e models.ReferrerEarning
	err := r.db.Where("lead_id = ? AND referrer_id = ?", leadID, referrerID).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// TransitionPending flips a PENDING earning for a lead to the given status.
// The status predicate guarantees at most one caller (PIN confirm, admin
// resolution, sweeper) settles any earning. RowsAffected 0 means there was no
// pending hold, reported as ErrNotFound so the caller can no-op or create one.
func (r *EarningRepository) TransitionPending(leadID uint, to string, extra map[string]interface{}) (*models.ReferrerEarning, error) {
	var e models.ReferrerEarning
	err := r.db.Where("lead_id = ? AND status = ?", leadID, domain.EarningStatusPending).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.db.Model(&models.ReferrerEarning{}).
		Where("id = ? AND status = ?", e.ID, domain.EarningStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// another settler won between the read and the update
		return nil, domain.ErrNotFound
	}
	e.Status = to
	return &e, nil
}

func (r *EarningRepository) ListByReferrer(referrerID uint, limit, offset int) ([]models.ReferrerEarning, error) {
	var list []models.ReferrerEarning
	err := r.db.Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
