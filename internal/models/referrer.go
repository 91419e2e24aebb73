package models

import (
	"time"

	"gorm.io/gorm"
)

// Referrer earns held-then-released payouts for confirmed leads.
// PendingCents shadows the sum of outstanding PENDING earnings; every earning
// release or cancellation adjusts it in the same transaction so that
// wallet_balance_cents + pending_cents always equals the sum of non-cancelled
// earning gross amounts minus withdrawals.
type Referrer struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName           string         `gorm:"size:255" json:"full_name"`
	Email              string         `gorm:"size:255" json:"email"`
	WalletBalanceCents int64          `gorm:"not null;default:0" json:"wallet_balance_cents"`
	PendingCents       int64          `gorm:"not null;default:0" json:"pending_cents"`
	TotalEarnedCents   int64          `gorm:"not null;default:0" json:"total_earned_cents"`
	TotalLeadsUnlocked int            `gorm:"not null;default:0" json:"total_leads_unlocked"`
	MonthlyGoalCents   int64          `gorm:"not null;default:0" json:"monthly_goal_cents"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Referrer) TableName() string { return "referrers" }
