package service

import (
	"context"
	"testing"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessPatchAllowList(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)

	updated, err := env.businessSvc.Patch(business.UserID, map[string]interface{}{
		"business_name":      "Rapid Plumbing",
		"referral_fee_cents": float64(1500),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rapid Plumbing", updated.BusinessName)
	assert.Equal(t, int64(1500), updated.ReferralFeeCents)

	_, err = env.businessSvc.Patch(business.UserID, map[string]interface{}{
		"wallet_balance_cents": float64(999999),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(0), env.reloadBusiness(t, business.ID).WalletBalanceCents)
}

func TestBusinessPatchRejectsNegativeFee(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)

	_, err := env.businessSvc.Patch(business.UserID, map[string]interface{}{
		"referral_fee_cents": float64(-100),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTopUpIntentAndWebhook(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)

	intent, err := env.businessSvc.CreateTopUpIntent(context.Background(), business.UserID, 5000)
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ClientSecret)

	require.NoError(t, env.businessSvc.HandleTopUpSucceeded(business.ID, 5000, intent.ID))
	assert.Equal(t, int64(5000), env.reloadBusiness(t, business.ID).WalletBalanceCents)

	// redelivered webhook credits nothing
	require.NoError(t, env.businessSvc.HandleTopUpSucceeded(business.ID, 5000, intent.ID))
	assert.Equal(t, int64(5000), env.reloadBusiness(t, business.ID).WalletBalanceCents)

	var rows int64
	require.NoError(t, env.db.Model(&models.WalletTransaction{}).
		Where("business_id = ?", business.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestWalletLedgerRefUniqueness(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)

	// a replayed provider event hits the ledger index, so the credit
	// transaction that wraps it rolls back even when deliveries race
	ref := "pi_replay_1"
	require.NoError(t, env.businesses.RecordWalletTransaction(&models.WalletTransaction{
		BusinessID:  business.ID,
		AmountCents: 5000,
		Type:        domain.WalletTxTypeTopUp,
		PaymentRef:  &ref,
	}))
	err := env.businesses.RecordWalletTransaction(&models.WalletTransaction{
		BusinessID:  business.ID,
		AmountCents: 5000,
		Type:        domain.WalletTxTypeTopUp,
		PaymentRef:  &ref,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// rows without a provider ref never collide with each other
	require.NoError(t, env.businesses.RecordWalletTransaction(&models.WalletTransaction{
		BusinessID:  business.ID,
		AmountCents: -100,
		Type:        domain.WalletTxTypeUnlockDebit,
	}))
	require.NoError(t, env.businesses.RecordWalletTransaction(&models.WalletTransaction{
		BusinessID:  business.ID,
		AmountCents: -100,
		Type:        domain.WalletTxTypeUnlockDebit,
	}))
}
