package config

import (
	"os"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Payment  PaymentConfig
	Leads    LeadConfig
	Events   EventsConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type PaymentConfig struct {
	WebhookSecret string
	Currency      string
}

// LeadConfig holds lifecycle timing and fraud thresholds.
type LeadConfig struct {
	PinTTL           time.Duration // PIN validity after ON_THE_WAY
	LeadExpiry       time.Duration // PENDING lead lifetime
	UnlockedExpiry   time.Duration // max time a business may sit on an UNLOCKED lead
	EarningHold      time.Duration // hold before a PENDING earning matures
	VelocityLimit    int           // max leads per IP per window
	VelocityWindow   time.Duration
	VerificationCode string // fixed test code; production delegates to an OTP provider
}

type EventsConfig struct {
	NATSURL    string // empty disables publishing
	ClientName string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8088"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "traderefer:traderefer@tcp(localhost:3306)/traderefer?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "traderefer",
		},
		Payment: PaymentConfig{
			WebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
			Currency:      getenv("PAYMENT_CURRENCY", "aud"),
		},
		Leads: LeadConfig{
			PinTTL:           4 * time.Hour,
			LeadExpiry:       7 * 24 * time.Hour,
			UnlockedExpiry:   72 * time.Hour,
			EarningHold:      7 * 24 * time.Hour,
			VelocityLimit:    5,
			VelocityWindow:   time.Hour,
			VerificationCode: getenv("LEAD_VERIFICATION_CODE", "123456"),
		},
		Events: EventsConfig{
			NATSURL:    os.Getenv("NATS_URL"),
			ClientName: "traderefer-api",
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
