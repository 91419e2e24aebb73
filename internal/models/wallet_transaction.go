package models

import (
	"time"
)

// WalletTransaction records business wallet history (unlock debits, top-ups).
//
// PaymentRef is NULL for movements with no provider event behind them. The
// unique index over (business_id, payment_ref) makes replayed provider events
// duplicate-key errors instead of double credits; NULL refs never collide.
type WalletTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BusinessID  uint      `gorm:"not null;index;uniqueIndex:idx_wallet_tx_ref,priority:1" json:"business_id"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"` // positive = credit, negative = debit
	Type        string    `gorm:"size:30;not null;index" json:"type"`
	LeadID      *uint     `json:"lead_id"`
	PaymentRef  *string   `gorm:"size:255;uniqueIndex:idx_wallet_tx_ref,priority:2" json:"payment_ref"`
	Notes       string    `gorm:"size:255" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`

	Business Business `gorm:"foreignKey:BusinessID" json:"-"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }
