package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName     string         `gorm:"size:255" json:"full_name"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"` // BUSINESS | REFERRER | ADMIN
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
