package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StubProvider is a no-op provider for development; replace with Stripe etc.
type StubProvider struct{}

func (s *StubProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	id := fmt.Sprintf("pi_stub_%s", uuid.NewString())
	return &Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
	}, nil
}

func (s *StubProvider) CreateTransfer(ctx context.Context, amountCents int64, destination, description string) (string, error) {
	return fmt.Sprintf("tr_stub_%s", uuid.NewString()), nil
}
