package models

import (
	"time"

	"gorm.io/gorm"
)

// Business is a trade business that pays to unlock consumer leads.
// ReferralFeeCents is the live price per referred lead; leads snapshot it at
// creation so mid-flight price changes never affect an in-progress lead.
type Business struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	BusinessName       string         `gorm:"size:255;not null" json:"business_name"`
	Slug               string         `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	BusinessEmail      string         `gorm:"size:255" json:"business_email"`
	BusinessPhone      string         `gorm:"size:20" json:"business_phone"`
	TradeCategory      string         `gorm:"size:64;index" json:"trade_category"`
	Suburb             string         `gorm:"size:128" json:"suburb"`
	ReferralFeeCents   int64          `gorm:"not null;default:0" json:"referral_fee_cents"`
	WalletBalanceCents int64          `gorm:"not null;default:0" json:"wallet_balance_cents"`
	TotalLeadsUnlocked int            `gorm:"not null;default:0" json:"total_leads_unlocked"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Business) TableName() string { return "businesses" }
