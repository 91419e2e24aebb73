package service

import (
	"testing"
	"time"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpirePendingLeads(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	stale := env.createLead(t, business, "")
	fresh := env.createLead(t, business, "")
	require.NoError(t, env.db.Model(&models.Lead{}).Where("id = ?", stale.ID).
		Update("expires_at", timePast()).Error)

	count, err := env.lifecycleSvc.ExpirePendingLeads()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	expired := env.reloadLead(t, stale.ID)
	assert.Equal(t, domain.LeadStatusExpired, expired.Status)
	assert.Nil(t, expired.ActiveKey)
	assert.Equal(t, domain.LeadStatusPending, env.reloadLead(t, fresh.ID).Status)

	// second pass finds nothing
	count, err = env.lifecycleSvc.ExpirePendingLeads()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestExpireUnlockedLeadsKeepsEarningPending(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	lead := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, lead)
	require.NoError(t, env.db.Model(&models.Lead{}).Where("id = ?", lead.ID).
		Update("unlocked_at", time.Now().Add(-73*time.Hour)).Error)

	count, err := env.lifecycleSvc.ExpireUnlockedLeads()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	expired := env.reloadLead(t, lead.ID)
	assert.Equal(t, domain.LeadStatusExpired, expired.Status)
	assert.Nil(t, expired.ActiveKey)

	// the business paid; the referrer's hold still matures on schedule
	earning, err := env.earnings.GetByLeadAndReferrer(lead.ID, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EarningStatusPending, earning.Status)
}

func TestReleasePendingEarnings(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	due := env.createLead(t, business, link.LinkCode)
	held := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, due)
	env.unlockViaWebhook(t, held)
	require.NoError(t, env.db.Model(&models.ReferrerEarning{}).
		Where("lead_id = ?", due.ID).
		Update("available_at", timePast()).Error)

	released, err := env.lifecycleSvc.ReleasePendingEarnings()
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	after := env.reloadReferrer(t, ref.ID)
	assert.Equal(t, int64(700), after.WalletBalanceCents)
	assert.Equal(t, int64(700), after.PendingCents)

	// the referrer gets an in-app heads-up for the cleared hold
	var notes int64
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", after.UserID, domain.NotifTypeEarningAvailable).
		Count(&notes).Error)
	assert.Equal(t, int64(1), notes)

	// re-running releases nothing further
	released, err = env.lifecycleSvc.ReleasePendingEarnings()
	require.NoError(t, err)
	assert.Equal(t, int64(0), released)
	assert.Equal(t, int64(700), env.reloadReferrer(t, ref.ID).WalletBalanceCents)
}

func TestCleanupExpiredPins(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	lead := env.createLead(t, business, "")
	env.unlockViaWebhook(t, lead)
	pin, err := env.leadSvc.MarkOnTheWay(lead.ID, business.UserID)
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&models.LeadPin{}).Where("id = ?", pin.ID).
		Update("expires_at", timePast()).Error)

	count, err := env.lifecycleSvc.CleanupExpiredPins()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	failed := env.reloadLead(t, lead.ID)
	assert.Equal(t, domain.LeadStatusUnconfirmed, failed.Status)
	assert.Nil(t, failed.ActiveKey)

	count, err = env.lifecycleSvc.CleanupExpiredPins()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCleanupKeepsLiveNewestPin(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	lead := env.createLead(t, business, "")
	env.unlockViaWebhook(t, lead)
	_, err := env.leadSvc.MarkOnTheWay(lead.ID, business.UserID)
	require.NoError(t, err)

	// an older expired PIN alongside the live one must not fail the lead
	require.NoError(t, env.pins.Create(&models.LeadPin{
		LeadID:    lead.ID,
		Pin:       "1111",
		ExpiresAt: timePast(),
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}))

	count, err := env.lifecycleSvc.CleanupExpiredPins()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, domain.LeadStatusOnTheWay, env.reloadLead(t, lead.ID).Status)
}

func TestRunAllCounts(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	stale := env.createLead(t, business, "")
	require.NoError(t, env.db.Model(&models.Lead{}).Where("id = ?", stale.ID).
		Update("expires_at", timePast()).Error)

	counts := env.lifecycleSvc.RunAll()
	assert.Equal(t, int64(1), counts.PendingExpired)
	assert.Equal(t, int64(0), counts.UnlockedExpired)
	assert.Equal(t, int64(0), counts.EarningsReleased)
	assert.Equal(t, int64(0), counts.PinsExpired)
}
