package service

import (
	"time"

	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"

	"gorm.io/gorm"
)

// ReferrerService covers the referrer dashboard surfaces: balances, earnings
// history, referral links, and the monthly goal.
type ReferrerService struct {
	db        *gorm.DB
	referrers *repository.ReferrerRepository
	earnings  *repository.EarningRepository
	links     *repository.ReferralLinkRepository
}

func NewReferrerService(db *gorm.DB, referrers *repository.ReferrerRepository, earnings *repository.EarningRepository, links *repository.ReferralLinkRepository) *ReferrerService {
	return &ReferrerService{db: db, referrers: referrers, earnings: earnings, links: links}
}

// Dashboard is the referrer's balance and goal summary.
type Dashboard struct {
	WalletBalanceCents int64   `json:"wallet_balance_cents"`
	PendingCents       int64   `json:"pending_cents"`
	TotalEarnedCents   int64   `json:"total_earned_cents"`
	TotalLeadsUnlocked int     `json:"total_leads_unlocked"`
	MonthlyGoalCents   int64   `json:"monthly_goal_cents"`
	MonthEarnedCents   int64   `json:"month_earned_cents"`
	GoalProgress       float64 `json:"goal_progress"`
}

func (s *ReferrerService) Dashboard(userID uint) (*Dashboard, error) {
	ref, err := s.referrers.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	monthStart := time.Now().AddDate(0, 0, 1-time.Now().Day())
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), monthStart.Day(), 0, 0, 0, 0, monthStart.Location())
	var monthEarned int64
	if err := s.db.Model(&models.ReferrerEarning{}).
		Where("referrer_id = ? AND status != ? AND created_at >= ?", ref.ID, domain.EarningStatusCancelled, monthStart).
		Select("COALESCE(SUM(gross_cents), 0)").
		Scan(&monthEarned).Error; err != nil {
		return nil, err
	}

	d := &Dashboard{
		WalletBalanceCents: ref.WalletBalanceCents,
		PendingCents:       ref.PendingCents,
		TotalEarnedCents:   ref.TotalEarnedCents,
		TotalLeadsUnlocked: ref.TotalLeadsUnlocked,
		MonthlyGoalCents:   ref.MonthlyGoalCents,
		MonthEarnedCents:   monthEarned,
	}
	if ref.MonthlyGoalCents > 0 {
		d.GoalProgress = float64(monthEarned) / float64(ref.MonthlyGoalCents)
	}
	return d, nil
}

func (s *ReferrerService) Earnings(userID uint, limit, offset int) ([]models.ReferrerEarning, error) {
	ref, err := s.referrers.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.earnings.ListByReferrer(ref.ID, limit, offset)
}

// Link returns the referrer's code for a business, minting one on first use.
func (s *ReferrerService) Link(userID, businessID uint) (*models.ReferralLink, error) {
	ref, err := s.referrers.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.links.GetOrCreate(ref.ID, businessID)
}

func (s *ReferrerService) Links(userID uint) ([]models.ReferralLink, error) {
	ref, err := s.referrers.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.links.ListByReferrer(ref.ID)
}

func (s *ReferrerService) SetMonthlyGoal(userID uint, goalCents int64) error {
	if goalCents < 0 {
		return domain.ErrInvalidInput
	}
	ref, err := s.referrers.GetByUserID(userID)
	if err != nil {
		return err
	}
	return s.referrers.SetMonthlyGoal(ref.ID, goalCents)
}
