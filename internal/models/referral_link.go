package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralLink is a shareable code tying a referrer to one business.
// Inactive links resolve to no attribution rather than an error on lead
// submission.
type ReferralLink struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ReferrerID       uint           `gorm:"not null;index" json:"referrer_id"`
	BusinessID       uint           `gorm:"not null;index" json:"business_id"`
	LinkCode         string         `gorm:"uniqueIndex;size:20;not null" json:"link_code"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	LeadsUnlocked    int            `gorm:"not null;default:0" json:"leads_unlocked"`
	TotalEarnedCents int64          `gorm:"not null;default:0" json:"total_earned_cents"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Referrer Referrer `gorm:"foreignKey:ReferrerID" json:"-"`
	Business Business `gorm:"foreignKey:BusinessID" json:"-"`
}

func (ReferralLink) TableName() string { return "referral_links" }
