package models

import (
	"time"
)

// Dispute is a business challenge against a lead it has paid for. One dispute
// per lead, enforced by the unique index.
type Dispute struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	LeadID     uint       `gorm:"uniqueIndex;not null" json:"lead_id"`
	BusinessID uint       `gorm:"not null;index" json:"business_id"`
	Reason     string     `gorm:"size:255;not null" json:"reason"`
	Notes      string     `gorm:"type:text" json:"notes"`
	Status     string     `gorm:"size:20;not null;index" json:"status"` // OPEN | RESOLVED
	Outcome    string     `gorm:"size:20" json:"outcome"`               // confirm | reject, empty while open
	AdminNotes string     `gorm:"type:text" json:"admin_notes"`
	ResolvedBy *uint      `json:"resolved_by"`
	ResolvedAt *time.Time `json:"resolved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Lead     Lead     `gorm:"foreignKey:LeadID" json:"-"`
	Business Business `gorm:"foreignKey:BusinessID" json:"-"`
}

func (Dispute) TableName() string { return "disputes" }
