package repository

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"gorm.io/gorm"
)

type ReferralLinkRepository struct {
	db *gorm.DB
}

func NewReferralLinkRepository(db *gorm.DB) *ReferralLinkRepository {
	return &ReferralLinkRepository{db: db}
}

func (r *ReferralLinkRepository) WithTx(tx *gorm.DB) *ReferralLinkRepository {
	return &ReferralLinkRepository{db: tx}
}

// generateLinkCode returns an 8-character lowercase hex code.
func generateLinkCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetOrCreate returns the referrer's link for a business, creating one with a
// fresh unique code when none exists.
func (r *ReferralLinkRepository) GetOrCreate(referrerID, businessID uint) (*models.ReferralLink, error) {
	var link models.ReferralLink
	err := r.db.Where("referrer_id = ? AND business_id = ?", referrerID, businessID).First(&link).Error
	if err == nil {
		return &link, nil
	}
	for i := 0; i < 10; i++ {
		code, err := generateLinkCode()
		if err != nil {
			return nil, err
		}
		link = models.ReferralLink{ReferrerID: referrerID, BusinessID: businessID, LinkCode: code, IsActive: true}
		if err := r.db.Create(&link).Error; err == nil {
			return &link, nil
		}
		// collision: retry with new code
	}
	return nil, fmt.Errorf("failed to generate a unique link code after retries")
}

// GetActiveByCode resolves a submitted referral code. Inactive or unknown
// codes return ErrNotFound; lead creation treats that as "no attribution",
// not a failure.
func (r *ReferralLinkRepository) GetActiveByCode(code string) (*models.ReferralLink, error) {
	var link models.ReferralLink
	err := r.db.Where("link_code = ? AND is_active = ?", code, true).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *ReferralLinkRepository) ListByReferrer(referrerID uint) ([]models.ReferralLink, error) {
	var list []models.ReferralLink
	err := r.db.Where("referrer_id = ?", referrerID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// IncrementUnlocked bumps the link's unlock counter at webhook time.
func (r *ReferralLinkRepository) IncrementUnlocked(linkID uint) error {
	return r.db.Model(&models.ReferralLink{}).
		Where("id = ?", linkID).
		UpdateColumn("leads_unlocked", gorm.Expr("leads_unlocked + 1")).Error
}

// AddEarned bumps the link's lifetime earnings when a payout is released.
func (r *ReferralLinkRepository) AddEarned(linkID uint, amountCents int64) error {
	return r.db.Model(&models.ReferralLink{}).
		Where("id = ?", linkID).
		UpdateColumn("total_earned_cents", gorm.Expr("total_earned_cents + ?", amountCents)).Error
}
