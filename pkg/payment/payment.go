package payment

import (
	"context"
)

// IntentRequest describes a payment to collect from a business for a lead
// unlock or wallet top-up. Metadata is echoed back on the webhook and carries
// lead_id/business_id for the unlock transition.
type IntentRequest struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Provider is the payment collaborator contract. Provider SDK mechanics
// (Stripe etc.) live behind this interface; the core only creates intents,
// sends transfers, and consumes the success webhook.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// CreateTransfer pushes a referrer payout to its destination and
	// returns the provider's transfer reference.
	CreateTransfer(ctx context.Context, amountCents int64, destination, description string) (string, error)
}
