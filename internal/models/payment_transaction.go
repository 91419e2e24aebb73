package models

import (
	"time"
)

// PaymentTransaction is the append-only audit log for monetary transitions
// (lead unlocks and referrer payouts). Written in the same transaction as the
// status change it records.
type PaymentTransaction struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	LeadID           uint      `gorm:"not null;index" json:"lead_id"`
	BusinessID       uint      `gorm:"not null;index" json:"business_id"`
	ReferrerID       *uint     `gorm:"index" json:"referrer_id"`
	Type             string    `gorm:"size:30;not null;index" json:"type"` // lead_unlock | referrer_payout
	AmountCents      int64     `gorm:"not null" json:"amount_cents"`
	PlatformFeeCents int64     `gorm:"not null;default:0" json:"platform_fee_cents"`
	Status           string    `gorm:"size:20;not null" json:"status"`
	ProviderRef      string    `gorm:"size:255;index" json:"provider_ref"` // payment intent id, empty for wallet unlocks
	CreatedAt        time.Time `json:"created_at"`
}

func (PaymentTransaction) TableName() string { return "payment_transactions" }
