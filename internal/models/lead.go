package models

import (
	"time"

	"traderefer/internal/domain"
)

// Lead is one consumer job request against one business, optionally attributed
// to a referrer via a referral link. Leads are never deleted (audit trail).
//
// UnlockFeeCents, ReferralFeeSnapshotCents and ReferrerPayoutAmountCents are
// captured at creation from the business's live pricing and never recomputed.
//
// ActiveKey is "1" while the lead is in a non-terminal state and NULL once it
// reaches CONFIRMED/EXPIRED/UNCONFIRMED. The unique index over
// (consumer_phone, business_id, active_key) therefore allows any number of
// closed leads per pair but at most one live lead, even under concurrent
// submissions (NULLs never collide).
type Lead struct {
	ID                        uint    `gorm:"primaryKey" json:"id"`
	BusinessID                uint    `gorm:"not null;index;uniqueIndex:idx_leads_phone_business,priority:2" json:"business_id"`
	ReferrerID                *uint   `gorm:"index" json:"referrer_id"`
	ReferralLinkID            *uint   `gorm:"index" json:"referral_link_id"`
	ConsumerName              string  `gorm:"size:255;not null" json:"consumer_name"`
	ConsumerPhone             string  `gorm:"size:20;not null;uniqueIndex:idx_leads_phone_business,priority:1" json:"consumer_phone"`
	ConsumerEmail             string  `gorm:"size:255" json:"consumer_email"`
	ConsumerSuburb            string  `gorm:"size:128" json:"consumer_suburb"`
	ConsumerAddress           string  `gorm:"size:255" json:"consumer_address"`
	JobDescription            string  `gorm:"type:text;not null" json:"job_description"`
	LeadUrgency               string  `gorm:"size:10;default:'warm'" json:"lead_urgency"` // hot | warm | cold
	Status                    string  `gorm:"size:20;not null;index" json:"status"`
	ActiveKey                 *string `gorm:"size:1;uniqueIndex:idx_leads_phone_business,priority:3" json:"-"`
	UnlockFeeCents            int64   `gorm:"not null" json:"unlock_fee_cents"`
	ReferralFeeSnapshotCents  int64   `gorm:"not null" json:"referral_fee_snapshot_cents"`
	ReferrerPayoutAmountCents int64   `gorm:"not null" json:"referrer_payout_amount_cents"`
	UnlockPaymentType         string  `gorm:"size:20" json:"unlock_payment_type"` // WALLET | STRIPE
	ConsumerIP                string  `gorm:"size:45;index" json:"-"`
	DeviceHash                string  `gorm:"size:128" json:"-"`

	ExpiresAt    *time.Time `json:"expires_at"`
	VerifiedAt   *time.Time `json:"verified_at"`
	UnlockedAt   *time.Time `gorm:"index" json:"unlocked_at"`
	OnTheWayAt   *time.Time `json:"on_the_way_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Business Business  `gorm:"foreignKey:BusinessID" json:"-"`
	Referrer *Referrer `gorm:"foreignKey:ReferrerID" json:"-"`
}

func (Lead) TableName() string { return "leads" }

// IsTerminal reports whether the lead can no longer change state.
func (l *Lead) IsTerminal() bool {
	switch l.Status {
	case domain.LeadStatusConfirmed, domain.LeadStatusExpired, domain.LeadStatusUnconfirmed:
		return true
	}
	return false
}

// IsUnlocked reports whether the business has paid and may see full consumer
// contact details.
func (l *Lead) IsUnlocked() bool {
	switch l.Status {
	case domain.LeadStatusUnlocked, domain.LeadStatusOnTheWay, domain.LeadStatusConfirmed, domain.LeadStatusDisputed:
		return true
	}
	return false
}
