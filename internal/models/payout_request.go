package models

import (
	"time"
)

// PayoutRequest records a referrer withdrawal of their available balance.
type PayoutRequest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ReferrerID  uint       `gorm:"not null;index" json:"referrer_id"`
	AmountCents int64      `gorm:"not null" json:"amount_cents"`
	Method      string     `gorm:"size:30;not null" json:"method"`
	Destination string     `gorm:"size:255" json:"destination"`
	Status      string     `gorm:"size:20;not null;index" json:"status"` // COMPLETED | FAILED
	PaymentRef  string     `gorm:"size:255" json:"payment_ref"`
	ProcessedAt *time.Time `json:"processed_at"`
	CreatedAt   time.Time  `json:"created_at"`

	Referrer Referrer `gorm:"foreignKey:ReferrerID" json:"-"`
}

func (PayoutRequest) TableName() string { return "payout_requests" }
