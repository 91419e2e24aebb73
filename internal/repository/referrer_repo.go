package repository

import (
	"errors"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"gorm.io/gorm"
)

type ReferrerRepository struct {
	db *gorm.DB
}

func NewReferrerRepository(db *gorm.DB) *ReferrerRepository {
	return &ReferrerRepository{db: db}
}

func (r *ReferrerRepository) WithTx(tx *gorm.DB) *ReferrerRepository {
	return &ReferrerRepository{db: tx}
}

func (r *ReferrerRepository) GetByID(id uint) (*models.Referrer, error) {
	var ref models.Referrer
	if err := r.db.First(&ref, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &ref, nil
}

func (r *ReferrerRepository) GetByUserID(userID uint) (*models.Referrer, error) {
	var ref models.Referrer
	if err := r.db.Where("user_id = ?", userID).First(&ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &ref, nil
}

func (r *ReferrerRepository) Create(ref *models.Referrer) error {
	return r.db.Create(ref).Error
}

// ReleaseHold moves a matured or confirmed earning amount from pending into
// the wallet and bumps lifetime earnings. Runs inside the caller's transaction.
func (r *ReferrerRepository) ReleaseHold(referrerID uint, amountCents int64) error {
	return r.db.Model(&models.Referrer{}).
		Where("id = ?", referrerID).
		UpdateColumns(map[string]interface{}{
			"wallet_balance_cents": gorm.Expr("wallet_balance_cents + ?", amountCents),
			"pending_cents":        gorm.Expr("CASE WHEN pending_cents >= ? THEN pending_cents - ? ELSE 0 END", amountCents, amountCents),
			"total_earned_cents":   gorm.Expr("total_earned_cents + ?", amountCents),
		}).Error
}

// CreditAvailable credits the wallet directly, for earnings created straight in
// AVAILABLE state (no pending hold ever existed).
func (r *ReferrerRepository) CreditAvailable(referrerID uint, amountCents int64) error {
	return r.db.Model(&models.Referrer{}).
		Where("id = ?", referrerID).
		UpdateColumns(map[string]interface{}{
			"wallet_balance_cents": gorm.Expr("wallet_balance_cents + ?", amountCents),
			"total_earned_cents":   gorm.Expr("total_earned_cents + ?", amountCents),
		}).Error
}

// AddPendingHold records a new hold: pending balance and unlock stats.
func (r *ReferrerRepository) AddPendingHold(referrerID uint, amountCents int64) error {
	return r.db.Model(&models.Referrer{}).
		Where("id = ?", referrerID).
		UpdateColumns(map[string]interface{}{
			"pending_cents":        gorm.Expr("pending_cents + ?", amountCents),
			"total_leads_unlocked": gorm.Expr("total_leads_unlocked + 1"),
		}).Error
}

// CancelPendingHold removes a cancelled hold from the pending shadow balance
// with no wallet credit.
func (r *ReferrerRepository) CancelPendingHold(referrerID uint, amountCents int64) error {
	return r.db.Model(&models.Referrer{}).
		Where("id = ?", referrerID).
		UpdateColumn("pending_cents",
			gorm.Expr("CASE WHEN pending_cents >= ? THEN pending_cents - ? ELSE 0 END", amountCents, amountCents)).Error
}

// DebitWallet zeroes-or-reduces the withdrawable balance for a payout. The
// balance predicate closes the race with a concurrent release.
func (r *ReferrerRepository) DebitWallet(referrerID uint, amountCents int64) error {
	res := r.db.Model(&models.Referrer{}).
		Where("id = ? AND wallet_balance_cents >= ?", referrerID, amountCents).
		UpdateColumn("wallet_balance_cents", gorm.Expr("wallet_balance_cents - ?", amountCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

func (r *ReferrerRepository) SetMonthlyGoal(referrerID uint, goalCents int64) error {
	return r.db.Model(&models.Referrer{}).
		Where("id = ?", referrerID).
		UpdateColumn("monthly_goal_cents", goalCents).Error
}

func (r *ReferrerRepository) RecordPayoutRequest(pr *models.PayoutRequest) error {
	return r.db.Create(pr).Error
}
