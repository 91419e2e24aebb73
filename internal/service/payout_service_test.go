package service

import (
	"context"
	"testing"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawFullBalance(t *testing.T) {
	env := newTestEnv(t)
	ref := env.createReferrer(t)
	require.NoError(t, env.db.Model(&models.Referrer{}).Where("id = ?", ref.ID).
		Update("wallet_balance_cents", 4200).Error)

	payout, err := env.payoutSvc.Withdraw(context.Background(), ref.UserID, "bank_transfer", "000-123 456789")
	require.NoError(t, err)
	assert.Equal(t, int64(4200), payout.AmountCents)
	assert.Equal(t, "COMPLETED", payout.Status)
	assert.NotEmpty(t, payout.PaymentRef)

	assert.Equal(t, int64(0), env.reloadReferrer(t, ref.ID).WalletBalanceCents)
}

func TestWithdrawEmptyWallet(t *testing.T) {
	env := newTestEnv(t)
	ref := env.createReferrer(t)

	_, err := env.payoutSvc.Withdraw(context.Background(), ref.UserID, "bank_transfer", "000-123 456789")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestWithdrawLeavesPendingUntouched(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	lead := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, lead)
	require.NoError(t, env.db.Model(&models.Referrer{}).Where("id = ?", ref.ID).
		Update("wallet_balance_cents", 500).Error)

	payout, err := env.payoutSvc.Withdraw(context.Background(), ref.UserID, "bank_transfer", "000-123 456789")
	require.NoError(t, err)
	assert.Equal(t, int64(500), payout.AmountCents)

	after := env.reloadReferrer(t, ref.ID)
	assert.Equal(t, int64(0), after.WalletBalanceCents)
	assert.Equal(t, int64(700), after.PendingCents)
}
