package repository

import (
	"traderefer/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(t *models.PaymentTransaction) error {
	return r.db.Create(t).Error
}

func (r *TransactionRepository) ListByLead(leadID uint) ([]models.PaymentTransaction, error) {
	var list []models.PaymentTransaction
	err := r.db.Where("lead_id = ?", leadID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *TransactionRepository) ListByBusiness(businessID uint, limit, offset int) ([]models.PaymentTransaction, error) {
	var list []models.PaymentTransaction
	err := r.db.Where("business_id = ?", businessID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
