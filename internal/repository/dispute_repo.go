package repository

import (
	"errors"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"gorm.io/gorm"
)

type DisputeRepository struct {
	db *gorm.DB
}

func NewDisputeRepository(db *gorm.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) WithTx(tx *gorm.DB) *DisputeRepository {
	return &DisputeRepository{db: tx}
}

// Create inserts the dispute; the unique index on lead_id rejects a second
// dispute for the same lead with ErrConflict.
func (r *DisputeRepository) Create(d *models.Dispute) error {
	if err := r.db.Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *DisputeRepository) GetByLeadID(leadID uint) (*models.Dispute, error) {
	var d models.Dispute
	if err := r.db.Where("lead_id = ?", leadID).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Resolve marks an OPEN dispute RESOLVED with the admin outcome metadata.
func (r *DisputeRepository) Resolve(disputeID uint, updates map[string]interface{}) error {
	res := r.db.Model(&models.Dispute{}).
		Where("id = ? AND status = ?", disputeID, domain.DisputeStatusOpen).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// ListOpen returns open disputes with lead preloaded, for the admin queue.
func (r *DisputeRepository) ListOpen(limit, offset int) ([]models.Dispute, error) {
	var list []models.Dispute
	err := r.db.Where("status = ?", domain.DisputeStatusOpen).
		Preload("Lead").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
