package models

import (
	"time"
)

// LeadPin is a one-time 4-digit code issued when a lead enters ON_THE_WAY.
// A lead may accumulate several PIN rows (re-generation on retry); confirmation
// always reads the most recently created row. Once IsUsed the row is immutable.
type LeadPin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LeadID    uint      `gorm:"not null;index" json:"lead_id"`
	Pin       string    `gorm:"size:4;not null" json:"-"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	IsUsed    bool      `gorm:"not null;default:false" json:"is_used"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`

	Lead Lead `gorm:"foreignKey:LeadID" json:"-"`
}

func (LeadPin) TableName() string { return "lead_pins" }
