package repository

import (
	"errors"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"gorm.io/gorm"
)

type PinRepository struct {
	db *gorm.DB
}

func NewPinRepository(db *gorm.DB) *PinRepository {
	return &PinRepository{db: db}
}

func (r *PinRepository) WithTx(tx *gorm.DB) *PinRepository {
	return &PinRepository{db: tx}
}

func (r *PinRepository) Create(pin *models.LeadPin) error {
	return r.db.Create(pin).Error
}

// LatestByLeadID returns the most recently created PIN for a lead; older rows
// from re-generation are ignored by confirmation.
func (r *PinRepository) LatestByLeadID(leadID uint) (*models.LeadPin, error) {
	var p models.LeadPin
	err := r.db.Where("lead_id = ?", leadID).
		Order("created_at DESC, id DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// IncrementAttempts records a failed entry. Used rows are immutable.
func (r *PinRepository) IncrementAttempts(pinID uint) error {
	return r.db.Model(&models.LeadPin{}).
		Where("id = ? AND is_used = ?", pinID, false).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *PinRepository) MarkUsed(pinID uint) error {
	return r.db.Model(&models.LeadPin{}).
		Where("id = ?", pinID).
		UpdateColumn("is_used", true).Error
}
