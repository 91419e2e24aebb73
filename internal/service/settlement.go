package service

import (
	"errors"
	"time"

	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"

	"gorm.io/gorm"
)

// settlement bundles the monetary bookkeeping shared by the unlock webhook,
// the wallet-funded unlock, PIN confirmation, admin dispute resolution and the
// sweeper. Every method runs inside a caller-supplied transaction: the status
// change, balance updates and audit rows commit atomically or not at all.
type settlement struct {
	leads      *repository.LeadRepository
	earnings   *repository.EarningRepository
	referrers  *repository.ReferrerRepository
	links      *repository.ReferralLinkRepository
	businesses *repository.BusinessRepository
	txlog      *repository.TransactionRepository
}

// recordUnlock applies the UNLOCKED transition and its money movement.
// The compare-and-swap on lead status makes it idempotent: a second webhook
// delivery or a concurrent unlock call finds zero rows to update and returns
// unlocked=false with no further writes.
func (st *settlement) recordUnlock(tx *gorm.DB, lead *models.Lead, paymentType, providerRef string, holdUntil time.Time) (bool, error) {
	now := time.Now()
	err := st.leads.WithTx(tx).TransitionStatus(lead.ID,
		[]string{domain.LeadStatusPending, domain.LeadStatusVerified},
		domain.LeadStatusUnlocked,
		map[string]interface{}{
			"unlocked_at":         &now,
			"unlock_payment_type": paymentType,
		})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return false, nil
		}
		return false, err
	}

	if err := st.businesses.WithTx(tx).IncrementLeadsUnlocked(lead.BusinessID); err != nil {
		return false, err
	}
	var ref *string
	if providerRef != "" {
		ref = &providerRef
	}
	if err := st.businesses.WithTx(tx).RecordWalletTransaction(&models.WalletTransaction{
		BusinessID:  lead.BusinessID,
		AmountCents: -lead.UnlockFeeCents,
		Type:        domain.WalletTxTypeUnlockDebit,
		LeadID:      &lead.ID,
		PaymentRef:  ref,
		Notes:       "lead unlocked",
	}); err != nil {
		return false, err
	}

	if lead.ReferrerID != nil {
		payout := lead.ReferrerPayoutAmountCents
		earning := &models.ReferrerEarning{
			ReferrerID:       *lead.ReferrerID,
			LeadID:           lead.ID,
			GrossCents:       payout,
			PlatformCutCents: lead.UnlockFeeCents - payout,
			Status:           domain.EarningStatusPending,
			AvailableAt:      &holdUntil,
		}
		err := st.earnings.WithTx(tx).Create(earning)
		switch {
		case err == nil:
			if err := st.referrers.WithTx(tx).AddPendingHold(*lead.ReferrerID, payout); err != nil {
				return false, err
			}
			if lead.ReferralLinkID != nil {
				if err := st.links.WithTx(tx).IncrementUnlocked(*lead.ReferralLinkID); err != nil {
					return false, err
				}
			}
		case errors.Is(err, domain.ErrConflict):
			// earning already recorded for this lead+referrer (redelivery)
		default:
			return false, err
		}
	}

	if err := st.txlog.WithTx(tx).Create(&models.PaymentTransaction{
		LeadID:           lead.ID,
		BusinessID:       lead.BusinessID,
		ReferrerID:       lead.ReferrerID,
		Type:             domain.TxTypeLeadUnlock,
		AmountCents:      lead.UnlockFeeCents,
		PlatformFeeCents: lead.UnlockFeeCents - lead.ReferrerPayoutAmountCents,
		Status:           "completed",
		ProviderRef:      providerRef,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// releaseEarning settles the referrer payout for a confirmed lead. It moves
// the PENDING hold to AVAILABLE, or creates the earning directly in AVAILABLE
// when the unlock never recorded one. An earning that is already AVAILABLE or
// CANCELLED means another settler won; nothing is credited twice. Returns the
// released amount, zero when no-op.
func (st *settlement) releaseEarning(tx *gorm.DB, lead *models.Lead) (int64, error) {
	if lead.ReferrerID == nil {
		return 0, nil
	}
	payout := lead.ReferrerPayoutAmountCents
	referrerID := *lead.ReferrerID
	now := time.Now()

	_, err := st.earnings.WithTx(tx).TransitionPending(lead.ID, domain.EarningStatusAvailable,
		map[string]interface{}{"available_at": &now})
	switch {
	case err == nil:
		if err := st.referrers.WithTx(tx).ReleaseHold(referrerID, payout); err != nil {
			return 0, err
		}
	case errors.Is(err, domain.ErrNotFound):
		existing, gerr := st.earnings.WithTx(tx).GetByLeadAndReferrer(lead.ID, referrerID)
		if gerr == nil && existing.Status != domain.EarningStatusPending {
			// already settled (or cancelled by an admin); never re-credit
			return 0, nil
		}
		if gerr != nil && !errors.Is(gerr, domain.ErrNotFound) {
			return 0, gerr
		}
		if err := st.earnings.WithTx(tx).Create(&models.ReferrerEarning{
			ReferrerID:  referrerID,
			LeadID:      lead.ID,
			GrossCents:  payout,
			Status:      domain.EarningStatusAvailable,
			AvailableAt: &now,
		}); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return 0, nil
			}
			return 0, err
		}
		if err := st.referrers.WithTx(tx).CreditAvailable(referrerID, payout); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	if err := st.txlog.WithTx(tx).Create(&models.PaymentTransaction{
		LeadID:      lead.ID,
		BusinessID:  lead.BusinessID,
		ReferrerID:  lead.ReferrerID,
		Type:        domain.TxTypeReferrerPayout,
		AmountCents: payout,
		Status:      "completed",
	}); err != nil {
		return 0, err
	}
	if lead.ReferralLinkID != nil {
		if err := st.links.WithTx(tx).AddEarned(*lead.ReferralLinkID, payout); err != nil {
			return 0, err
		}
	}
	return payout, nil
}

// cancelEarning voids the PENDING hold for a rejected lead: no wallet credit,
// and the pending shadow balance is decremented so wallet+pending stays equal
// to the sum of non-cancelled earnings.
func (st *settlement) cancelEarning(tx *gorm.DB, lead *models.Lead) (int64, error) {
	if lead.ReferrerID == nil {
		return 0, nil
	}
	e, err := st.earnings.WithTx(tx).TransitionPending(lead.ID, domain.EarningStatusCancelled, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if err := st.referrers.WithTx(tx).CancelPendingHold(e.ReferrerID, e.GrossCents); err != nil {
		return 0, err
	}
	return e.GrossCents, nil
}
