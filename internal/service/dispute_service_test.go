package service

import (
	"encoding/json"
	"testing"

	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"
	"traderefer/pkg/events"
	"traderefer/pkg/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps published events in memory for assertions.
type recordingPublisher struct {
	events []*events.Event
}

func (p *recordingPublisher) Publish(e *events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func TestOpenDispute(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	lead := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, lead)

	dispute, err := env.disputeSvc.Open(lead.ID, business.UserID, "wrong_number", "Number disconnected")
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, domain.LeadStatusDisputed, env.reloadLead(t, lead.ID).Status)

	// one dispute per lead
	_, err = env.disputeSvc.Open(lead.ID, business.UserID, "wrong_number", "")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOpenDisputeRequiresPaidLead(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	lead := env.createLead(t, business, "")

	_, err := env.disputeSvc.Open(lead.ID, business.UserID, "fake", "")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOpenDisputeByOtherBusinessIsHidden(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	other := env.createBusiness(t, 1000, 0)
	lead := env.createLead(t, business, "")
	env.unlockViaWebhook(t, lead)

	_, err := env.disputeSvc.Open(lead.ID, other.UserID, "fake", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveDisputeConfirm(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	lead := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, lead)
	_, err := env.disputeSvc.Open(lead.ID, business.UserID, "no_show", "")
	require.NoError(t, err)

	require.NoError(t, env.disputeSvc.Resolve(lead.ID, 999, domain.DisputeOutcomeConfirm, "photos show job done"))

	confirmed := env.reloadLead(t, lead.ID)
	assert.Equal(t, domain.LeadStatusConfirmed, confirmed.Status)
	assert.Nil(t, confirmed.ActiveKey)

	after := env.reloadReferrer(t, ref.ID)
	assert.Equal(t, int64(700), after.WalletBalanceCents)
	assert.Equal(t, int64(0), after.PendingCents)

	dispute, err := env.disputes.GetByLeadID(lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusResolved, dispute.Status)
	assert.Equal(t, domain.DisputeOutcomeConfirm, dispute.Outcome)
	require.NotNil(t, dispute.ResolvedAt)
}

func TestResolveDisputeReject(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	lead := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, lead)
	_, err := env.disputeSvc.Open(lead.ID, business.UserID, "fake_lead", "")
	require.NoError(t, err)

	require.NoError(t, env.disputeSvc.Resolve(lead.ID, 999, domain.DisputeOutcomeReject, "no answer on callback"))

	assert.Equal(t, domain.LeadStatusExpired, env.reloadLead(t, lead.ID).Status)

	// the hold is voided, not paid
	after := env.reloadReferrer(t, ref.ID)
	assert.Equal(t, int64(0), after.WalletBalanceCents)
	assert.Equal(t, int64(0), after.PendingCents)

	earning, err := env.earnings.GetByLeadAndReferrer(lead.ID, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EarningStatusCancelled, earning.Status)
}

func TestResolveDisputeTwice(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	lead := env.createLead(t, business, "")
	env.unlockViaWebhook(t, lead)
	_, err := env.disputeSvc.Open(lead.ID, business.UserID, "no_show", "")
	require.NoError(t, err)

	require.NoError(t, env.disputeSvc.Resolve(lead.ID, 999, domain.DisputeOutcomeConfirm, ""))
	assert.ErrorIs(t, env.disputeSvc.Resolve(lead.ID, 999, domain.DisputeOutcomeReject, ""), domain.ErrConflict)
	assert.Equal(t, domain.LeadStatusConfirmed, env.reloadLead(t, lead.ID).Status)
}

func TestResolveDisputeBadOutcome(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.disputeSvc.Resolve(1, 999, "split", ""), domain.ErrInvalidInput)
}

func TestRejectAfterEarningReleasedOnlyExpiresLead(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	lead := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, lead)

	// earning matures before the dispute is ruled on
	require.NoError(t, env.db.Model(&models.ReferrerEarning{}).
		Where("lead_id = ?", lead.ID).
		Update("available_at", timePast()).Error)
	released, err := env.lifecycleSvc.ReleasePendingEarnings()
	require.NoError(t, err)
	require.Equal(t, int64(1), released)

	_, err = env.disputeSvc.Open(lead.ID, business.UserID, "fake_lead", "")
	require.NoError(t, err)
	require.NoError(t, env.disputeSvc.Resolve(lead.ID, 999, domain.DisputeOutcomeReject, ""))

	// the already-released wallet credit stands; only the lead closes
	assert.Equal(t, domain.LeadStatusExpired, env.reloadLead(t, lead.ID).Status)
	assert.Equal(t, int64(700), env.reloadReferrer(t, ref.ID).WalletBalanceCents)
}

func TestRejectPublishesEarningCancelled(t *testing.T) {
	env := newTestEnv(t)
	business := env.createBusiness(t, 1000, 0)
	ref := env.createReferrer(t)
	link := env.createLink(t, ref.ID, business.ID)
	lead := env.createLead(t, business, link.LinkCode)
	env.unlockViaWebhook(t, lead)

	pub := &recordingPublisher{}
	txRepo := repository.NewTransactionRepository(env.db)
	notifSvc := NewNotificationService(repository.NewNotificationRepository(env.db))
	svc := NewDisputeService(env.db, env.disputes, env.leads, env.businesses,
		env.referrers, env.links, env.earnings, txRepo, notifSvc, mailer.LogSender{}, pub)

	_, err := svc.Open(lead.ID, business.UserID, "wrong_number", "")
	require.NoError(t, err)
	require.NoError(t, svc.Resolve(lead.ID, 1, domain.DisputeOutcomeReject, "number disconnected"))

	var cancelled *events.Event
	for _, e := range pub.events {
		if e.Type == events.EventEarningCancelled {
			cancelled = e
		}
	}
	require.NotNil(t, cancelled)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(cancelled.Data, &data))
	assert.Equal(t, float64(700), data["amount_cents"])
}
