package repository

import (
	"errors"
	"time"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) WithTx(tx *gorm.DB) *LeadRepository {
	return &LeadRepository{db: tx}
}

func (r *LeadRepository) Create(lead *models.Lead) error {
	return r.db.Create(lead).Error
}

func (r *LeadRepository) GetByID(id uint) (*models.Lead, error) {
	var l models.Lead
	if err := r.db.First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// GetActiveByPhoneAndBusiness returns the live (non-terminal) lead for a
// consumer/business pair, used for idempotent creation.
func (r *LeadRepository) GetActiveByPhoneAndBusiness(phone string, businessID uint) (*models.Lead, error) {
	var l models.Lead
	err := r.db.Where("consumer_phone = ? AND business_id = ? AND active_key IS NOT NULL", phone, businessID).
		Order("created_at DESC").
		First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// CountRecentByIP counts leads submitted from an IP inside the trailing
// window. Counting persisted rows (rather than an in-memory window) keeps the
// velocity guard effective across restarts.
func (r *LeadRepository) CountRecentByIP(ip string, window time.Duration) (int64, error) {
	var count int64
	err := r.db.Model(&models.Lead{}).
		Where("consumer_ip = ? AND created_at > ?", ip, time.Now().Add(-window)).
		Count(&count).Error
	return count, err
}

// TransitionStatus is the row-level compare-and-swap at the heart of the state
// machine: the update only applies while the lead is still in one of the
// expected states. Returns ErrConflict when another writer won the race.
// extra columns (timestamps, active_key clearing) ride in the same update.
func (r *LeadRepository) TransitionStatus(leadID uint, from []string, to string, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.db.Model(&models.Lead{}).
		Where("id = ? AND status IN ?", leadID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *LeadRepository) ListByBusiness(businessID uint, limit, offset int) ([]models.Lead, error) {
	var list []models.Lead
	err := r.db.Where("business_id = ?", businessID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
