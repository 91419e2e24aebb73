package service

import (
	"testing"

	"traderefer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardBalances(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	lead := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, lead)

	d, err := env.referrerSvc.Dashboard(ref.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), d.WalletBalanceCents)
	assert.Equal(t, int64(700), d.PendingCents)
	assert.Equal(t, int64(700), d.MonthEarnedCents)
	assert.Equal(t, 1, d.TotalLeadsUnlocked)
}

func TestDashboardGoalProgress(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	require.NoError(t, env.referrerSvc.SetMonthlyGoal(ref.UserID, 1400))

	lead := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, lead)

	d, err := env.referrerSvc.Dashboard(ref.UserID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, d.GoalProgress, 0.001)
}

func TestSetNegativeGoal(t *testing.T) {
	env := newTestEnv(t)
	ref := env.createReferrer(t)
	assert.ErrorIs(t, env.referrerSvc.SetMonthlyGoal(ref.UserID, -1), domain.ErrInvalidInput)
}

func TestLinkGetOrCreateIsStable(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)

	first, err := env.referrerSvc.Link(ref.UserID, business.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, first.LinkCode)

	second, err := env.referrerSvc.Link(ref.UserID, business.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.LinkCode, second.LinkCode)
}

func TestLinkStatsAfterConfirm(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 2000)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	lead := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, lead)
	pin, err := env.leadSvc.MarkOnTheWay(lead.ID, business.UserID)
	require.NoError(t, err)
	require.NoError(t, env.leadSvc.ConfirmPin(lead.ID, business.UserID, pin.Pin))

	links, err := env.referrerSvc.Links(ref.UserID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, 1, links[0].LeadsUnlocked)
	assert.Equal(t, int64(700), links[0].TotalEarnedCents)
}
