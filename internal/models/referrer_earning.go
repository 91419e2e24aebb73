package models

import (
	"time"
)

// ReferrerEarning is a held-then-released payout owed to a referrer for one
// lead. GrossCents is fixed at creation (snapshot). The composite unique index
// makes a duplicate payment webhook delivery an idempotent no-op: the second
// insert for the same (lead, referrer) pair fails and the handler skips the
// balance updates.
type ReferrerEarning struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ReferrerID       uint       `gorm:"not null;index;uniqueIndex:idx_earnings_lead_referrer,priority:2" json:"referrer_id"`
	LeadID           uint       `gorm:"not null;uniqueIndex:idx_earnings_lead_referrer,priority:1" json:"lead_id"`
	GrossCents       int64      `gorm:"not null" json:"gross_cents"`
	PlatformCutCents int64      `gorm:"not null;default:0" json:"platform_cut_cents"`
	Status           string     `gorm:"size:20;not null;index" json:"status"` // PENDING | AVAILABLE | CANCELLED
	AvailableAt      *time.Time `gorm:"index" json:"available_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Referrer Referrer `gorm:"foreignKey:ReferrerID" json:"-"`
	Lead     Lead     `gorm:"foreignKey:LeadID" json:"-"`
}

func (ReferrerEarning) TableName() string { return "referrer_earnings" }
