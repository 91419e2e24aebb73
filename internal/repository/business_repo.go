package repository

import (
	"errors"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"gorm.io/gorm"
)

type BusinessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *BusinessRepository) WithTx(tx *gorm.DB) *BusinessRepository {
	return &BusinessRepository{db: tx}
}

func (r *BusinessRepository) GetByID(id uint) (*models.Business, error) {
	var b models.Business
	if err := r.db.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BusinessRepository) GetByUserID(userID uint) (*models.Business, error) {
	var b models.Business
	if err := r.db.Where("user_id = ?", userID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BusinessRepository) GetBySlug(slug string) (*models.Business, error) {
	var b models.Business
	if err := r.db.Where("slug = ?", slug).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BusinessRepository) Create(b *models.Business) error {
	return r.db.Create(b).Error
}

// CreditWallet adds to the business wallet balance.
func (r *BusinessRepository) CreditWallet(businessID uint, amountCents int64) error {
	return r.db.Model(&models.Business{}).
		Where("id = ?", businessID).
		UpdateColumn("wallet_balance_cents", gorm.Expr("wallet_balance_cents + ?", amountCents)).Error
}

// DebitWallet deducts from the business wallet, failing when the balance is
// insufficient. The balance predicate in the WHERE clause makes concurrent
// debits race-safe without a row lock.
func (r *BusinessRepository) DebitWallet(businessID uint, amountCents int64) error {
	res := r.db.Model(&models.Business{}).
		Where("id = ? AND wallet_balance_cents >= ?", businessID, amountCents).
		UpdateColumn("wallet_balance_cents", gorm.Expr("wallet_balance_cents - ?", amountCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// IncrementLeadsUnlocked bumps the business's running unlock counter.
func (r *BusinessRepository) IncrementLeadsUnlocked(businessID uint) error {
	return r.db.Model(&models.Business{}).
		Where("id = ?", businessID).
		UpdateColumn("total_leads_unlocked", gorm.Expr("total_leads_unlocked + 1")).Error
}

// RecordWalletTransaction appends a business wallet history row. A row that
// repeats an already-recorded (business, payment_ref) pair returns
// ErrConflict via the unique index; callers treat that as a redelivered
// provider event.
func (r *BusinessRepository) RecordWalletTransaction(wt *models.WalletTransaction) error {
	if err := r.db.Create(wt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *BusinessRepository) ListWalletTransactions(businessID uint, limit, offset int) ([]models.WalletTransaction, error) {
	var rows []models.WalletTransaction
	err := r.db.Where("business_id = ?", businessID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

// businessPatchFields is the allow-list of caller-mutable profile columns.
// Patch updates are built from this list only, never from raw request keys.
var businessPatchFields = map[string]bool{
	"business_name":      true,
	"business_email":     true,
	"business_phone":     true,
	"trade_category":     true,
	"suburb":             true,
	"referral_fee_cents": true,
}

// Patch applies the allow-listed subset of fields to a business profile.
// Unknown keys fail with ErrInvalidInput rather than being silently dropped.
func (r *BusinessRepository) Patch(businessID uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return domain.ErrInvalidInput
	}
	updates := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if !businessPatchFields[k] {
			return domain.ErrInvalidInput
		}
		updates[k] = v
	}
	return r.db.Model(&models.Business{}).Where("id = ?", businessID).Updates(updates).Error
}
