package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"traderefer/config"
	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"
	"traderefer/pkg/events"
	"traderefer/pkg/mailer"
	"traderefer/pkg/payment"

	"gorm.io/gorm"
)

// LeadService owns the lead lifecycle: creation with fee snapshot, the
// verification/unlock/on-the-way/confirm transitions, and their settlements.
// All money movement happens inside db transactions; emails, in-app
// notifications and event publishes run after commit and never roll a
// transition back.
type LeadService struct {
	db         *gorm.DB
	cfg        *config.Config
	leads      *repository.LeadRepository
	pins       *repository.PinRepository
	businesses *repository.BusinessRepository
	referrers  *repository.ReferrerRepository
	links      *repository.ReferralLinkRepository
	guard      *VelocityGuard
	settle     *settlement
	notif      *NotificationService
	mail       mailer.Sender
	provider   payment.Provider
	pub        events.Publisher
}

func NewLeadService(
	db *gorm.DB,
	cfg *config.Config,
	leads *repository.LeadRepository,
	pins *repository.PinRepository,
	businesses *repository.BusinessRepository,
	referrers *repository.ReferrerRepository,
	links *repository.ReferralLinkRepository,
	earnings *repository.EarningRepository,
	txlog *repository.TransactionRepository,
	notif *NotificationService,
	mail mailer.Sender,
	provider payment.Provider,
	pub events.Publisher,
) *LeadService {
	return &LeadService{
		db:         db,
		cfg:        cfg,
		leads:      leads,
		pins:       pins,
		businesses: businesses,
		referrers:  referrers,
		links:      links,
		guard:      NewVelocityGuard(leads, cfg.Leads.VelocityLimit, cfg.Leads.VelocityWindow),
		settle: &settlement{
			leads:      leads,
			earnings:   earnings,
			referrers:  referrers,
			links:      links,
			businesses: businesses,
			txlog:      txlog,
		},
		notif:    notif,
		mail:     mail,
		provider: provider,
		pub:      pub,
	}
}

type CreateLeadInput struct {
	BusinessID      uint
	ConsumerName    string
	ConsumerPhone   string
	ConsumerEmail   string
	ConsumerSuburb  string
	ConsumerAddress string
	JobDescription  string
	LeadUrgency     string
	ReferralCode    string
	ConsumerIP      string
	DeviceHash      string
}

// Create persists a new PENDING lead with fee amounts snapshotted from the
// business's current pricing. Creation is idempotent per live
// (consumer_phone, business) pair: a duplicate submission returns the existing
// lead, both on the optimistic pre-check and on losing the unique-index race.
func (s *LeadService) Create(in CreateLeadInput) (*models.Lead, error) {
	if err := s.guard.Check(in.ConsumerIP); err != nil {
		return nil, err
	}

	var referrerID, linkID *uint
	if in.ReferralCode != "" {
		link, err := s.links.GetActiveByCode(in.ReferralCode)
		if err == nil {
			referrerID = &link.ReferrerID
			linkID = &link.ID
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// inactive or unknown codes mean no attribution, not an error
	}

	business, err := s.businesses.GetByID(in.BusinessID)
	if err != nil {
		return nil, err
	}

	referralFee := business.ReferralFeeCents
	platformFee := referralFee * domain.PlatformFeePercent / 100
	unlockFee := referralFee + platformFee
	payout := referralFee * domain.ReferrerPayoutPercent / 100

	if existing, err := s.leads.GetActiveByPhoneAndBusiness(in.ConsumerPhone, business.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	active := "1"
	expires := time.Now().Add(s.cfg.Leads.LeadExpiry)
	lead := &models.Lead{
		BusinessID:                business.ID,
		ReferrerID:                referrerID,
		ReferralLinkID:            linkID,
		ConsumerName:              in.ConsumerName,
		ConsumerPhone:             in.ConsumerPhone,
		ConsumerEmail:             in.ConsumerEmail,
		ConsumerSuburb:            in.ConsumerSuburb,
		ConsumerAddress:           in.ConsumerAddress,
		JobDescription:            in.JobDescription,
		LeadUrgency:               in.LeadUrgency,
		Status:                    domain.LeadStatusPending,
		ActiveKey:                 &active,
		UnlockFeeCents:            unlockFee,
		ReferralFeeSnapshotCents:  referralFee,
		ReferrerPayoutAmountCents: payout,
		ConsumerIP:                in.ConsumerIP,
		DeviceHash:                in.DeviceHash,
		ExpiresAt:                 &expires,
	}
	if err := s.leads.Create(lead); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the insert race; the winner is the lead to return
			return s.leads.GetActiveByPhoneAndBusiness(in.ConsumerPhone, business.ID)
		}
		return nil, err
	}

	if business.BusinessEmail != "" {
		s.send(mailer.TplBusinessNewLead, business.BusinessEmail, map[string]interface{}{
			"business_name":      business.BusinessName,
			"consumer_name":      in.ConsumerName,
			"suburb":             in.ConsumerSuburb,
			"job_description":    in.JobDescription,
			"lead_id":            lead.ID,
			"unlock_fee_dollars": float64(unlockFee) / 100,
		})
	}
	if in.ConsumerEmail != "" {
		s.send(mailer.TplConsumerLeadConfirmation, in.ConsumerEmail, map[string]interface{}{
			"consumer_name":   in.ConsumerName,
			"business_name":   business.BusinessName,
			"trade_category":  business.TradeCategory,
			"job_description": in.JobDescription,
		})
	}
	s.notif.NotifyNewLead(business.UserID, in.ConsumerSuburb, lead.ID)
	s.publish(events.EventLeadCreated, lead.ID, map[string]interface{}{
		"business_id":      lead.BusinessID,
		"unlock_fee_cents": lead.UnlockFeeCents,
	})
	return lead, nil
}

// VerifyCode checks the consumer's out-of-band verification code and moves the
// lead PENDING -> VERIFIED. The fixed test code stands in for a real one-time
// code provider. Already-verified leads return success idempotently.
func (s *LeadService) VerifyCode(leadID uint, code string) error {
	if code != s.cfg.Leads.VerificationCode {
		return domain.ErrInvalidInput
	}
	now := time.Now()
	err := s.leads.TransitionStatus(leadID,
		[]string{domain.LeadStatusPending},
		domain.LeadStatusVerified,
		map[string]interface{}{"verified_at": &now})
	if err == nil {
		s.publish(events.EventLeadVerified, leadID, nil)
		return nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}
	lead, gerr := s.leads.GetByID(leadID)
	if gerr != nil {
		return gerr
	}
	if lead.Status != domain.LeadStatusPending {
		return nil
	}
	return err
}

func (s *LeadService) Get(leadID uint) (*models.Lead, error) {
	return s.leads.GetByID(leadID)
}

// UnlockResult tells the caller whether the lead unlocked immediately (wallet
// fast path) or the business must complete a card payment.
type UnlockResult struct {
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// Unlock is the business-initiated paid reveal of consumer contact details.
// Sufficient wallet balance unlocks in one transaction; otherwise a payment
// intent is created and the UNLOCKED transition waits for the webhook.
// Repeating the call on an already-unlocked lead is a success, not an error.
func (s *LeadService) Unlock(ctx context.Context, leadID, businessUserID uint) (*UnlockResult, error) {
	lead, business, err := s.ownedLead(leadID, businessUserID)
	if err != nil {
		return nil, err
	}
	if lead.IsUnlocked() {
		return &UnlockResult{Status: domain.LeadStatusUnlocked}, nil
	}
	if lead.IsTerminal() {
		// expired or failed before payment; no wallet debit, no intent
		return nil, domain.ErrConflict
	}

	if business.WalletBalanceCents >= lead.UnlockFeeCents {
		holdUntil := time.Now().Add(s.cfg.Leads.EarningHold)
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.businesses.WithTx(tx).DebitWallet(business.ID, lead.UnlockFeeCents); err != nil {
				return err
			}
			unlocked, err := s.settle.recordUnlock(tx, lead, "WALLET", "", holdUntil)
			if err != nil {
				return err
			}
			if !unlocked {
				// concurrent unlock won; roll the debit back
				return domain.ErrConflict
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return &UnlockResult{Status: domain.LeadStatusUnlocked}, nil
			}
			if errors.Is(err, domain.ErrInsufficientBalance) {
				return s.requirePayment(ctx, lead, business)
			}
			return nil, err
		}
		s.afterUnlock(lead, business, "")
		return &UnlockResult{Status: domain.LeadStatusUnlocked}, nil
	}

	return s.requirePayment(ctx, lead, business)
}

func (s *LeadService) requirePayment(ctx context.Context, lead *models.Lead, business *models.Business) (*UnlockResult, error) {
	intent, err := s.provider.CreateIntent(ctx, payment.IntentRequest{
		AmountCents: lead.UnlockFeeCents,
		Currency:    s.cfg.Payment.Currency,
		Description: fmt.Sprintf("Lead unlock for %s", business.BusinessName),
		Metadata: map[string]string{
			"lead_id":     fmt.Sprintf("%d", lead.ID),
			"business_id": fmt.Sprintf("%d", business.ID),
		},
	})
	if err != nil {
		log.Printf("[leads] payment intent for lead %d: %v", lead.ID, err)
		return nil, domain.ErrServiceUnavailable
	}
	return &UnlockResult{Status: "REQUIRES_PAYMENT", ClientSecret: intent.ClientSecret}, nil
}

// HandlePaymentSucceeded is the webhook boundary for the UNLOCKED transition.
// Duplicate deliveries are no-ops: the status compare-and-swap skips the lead
// update and the (lead, referrer) unique index skips the earning insert.
func (s *LeadService) HandlePaymentSucceeded(leadID, businessID uint, providerRef string) error {
	lead, err := s.leads.GetByID(leadID)
	if err != nil {
		return err
	}
	if lead.BusinessID != businessID {
		return domain.ErrNotFound
	}

	holdUntil := time.Now().Add(s.cfg.Leads.EarningHold)
	var unlocked bool
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		unlocked, err = s.settle.recordUnlock(tx, lead, "STRIPE", providerRef, holdUntil)
		return err
	})
	if err != nil {
		return err
	}
	if !unlocked {
		return nil
	}

	business, err := s.businesses.GetByID(lead.BusinessID)
	if err == nil {
		s.afterUnlock(lead, business, providerRef)
	}
	return nil
}

// afterUnlock runs the post-commit side effects for a completed unlock.
func (s *LeadService) afterUnlock(lead *models.Lead, business *models.Business, providerRef string) {
	if business.BusinessEmail != "" {
		s.send(mailer.TplBusinessLeadUnlocked, business.BusinessEmail, map[string]interface{}{
			"business_name":   business.BusinessName,
			"consumer_name":   lead.ConsumerName,
			"consumer_phone":  lead.ConsumerPhone,
			"consumer_email":  lead.ConsumerEmail,
			"suburb":          lead.ConsumerSuburb,
			"job_description": lead.JobDescription,
		})
	}
	if lead.ReferrerID != nil {
		if ref, err := s.referrers.GetByID(*lead.ReferrerID); err == nil && ref.Email != "" {
			s.send(mailer.TplReferrerLeadUnlocked, ref.Email, map[string]interface{}{
				"full_name":      ref.FullName,
				"business_name":  business.BusinessName,
				"suburb":         lead.ConsumerSuburb,
				"payout_dollars": float64(lead.ReferrerPayoutAmountCents) / 100,
				"available_date": time.Now().Add(s.cfg.Leads.EarningHold).Format("02 Jan 2006"),
			})
		}
	}
	s.publish(events.EventLeadUnlocked, lead.ID, map[string]interface{}{
		"business_id":  lead.BusinessID,
		"provider_ref": providerRef,
	})
}

// MarkOnTheWay transitions an UNLOCKED lead to ON_THE_WAY and issues a fresh
// 4-digit PIN valid for the configured TTL. Only the owning business may call.
func (s *LeadService) MarkOnTheWay(leadID, businessUserID uint) (*models.LeadPin, error) {
	lead, business, err := s.ownedLead(leadID, businessUserID)
	if err != nil {
		return nil, err
	}
	if lead.Status != domain.LeadStatusUnlocked {
		return nil, domain.ErrConflict
	}

	code, err := generatePin()
	if err != nil {
		return nil, err
	}
	pin := &models.LeadPin{
		LeadID:    lead.ID,
		Pin:       code,
		ExpiresAt: time.Now().Add(s.cfg.Leads.PinTTL),
	}
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.leads.WithTx(tx).TransitionStatus(lead.ID,
			[]string{domain.LeadStatusUnlocked},
			domain.LeadStatusOnTheWay,
			map[string]interface{}{"on_the_way_at": &now}); err != nil {
			return err
		}
		return s.pins.WithTx(tx).Create(pin)
	})
	if err != nil {
		return nil, err
	}

	if lead.ConsumerEmail != "" {
		s.send(mailer.TplConsumerOnTheWay, lead.ConsumerEmail, map[string]interface{}{
			"consumer_name": lead.ConsumerName,
			"business_name": business.BusinessName,
			"pin":           pin.Pin,
		})
	}
	s.publish(events.EventLeadOnTheWay, lead.ID, map[string]interface{}{
		"pin_expires_at": pin.ExpiresAt,
	})
	return pin, nil
}

// ConfirmPin runs the confirmation protocol against the lead's newest PIN.
// A correct PIN settles the lead and the held payout in one transaction;
// re-confirming an already-confirmed lead returns success without moving
// money again.
func (s *LeadService) ConfirmPin(leadID, businessUserID uint, submitted string) error {
	lead, business, err := s.ownedLead(leadID, businessUserID)
	if err != nil {
		return err
	}
	pin, err := s.pins.LatestByLeadID(lead.ID)
	if err != nil {
		return err
	}

	if pin.IsUsed || lead.Status == domain.LeadStatusConfirmed {
		return nil
	}
	if time.Now().After(pin.ExpiresAt) {
		return domain.ErrPinExpired
	}
	if pin.Attempts >= domain.MaxPinAttempts {
		return domain.ErrPinLocked
	}
	if submitted != pin.Pin {
		if err := s.pins.IncrementAttempts(pin.ID); err != nil {
			return err
		}
		return &domain.InvalidPinError{Remaining: domain.MaxPinAttempts - pin.Attempts - 1}
	}

	var payout int64
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.leads.WithTx(tx).TransitionStatus(lead.ID,
			[]string{domain.LeadStatusOnTheWay},
			domain.LeadStatusConfirmed,
			map[string]interface{}{"confirmed_at": &now, "active_key": nil}); err != nil {
			return err
		}
		if err := s.pins.WithTx(tx).MarkUsed(pin.ID); err != nil {
			return err
		}
		var err error
		payout, err = s.settle.releaseEarning(tx, lead)
		return err
	})
	if err != nil {
		return err
	}

	s.afterConfirm(lead, business, payout)
	return nil
}

// afterConfirm runs the best-effort side effects of a confirmed lead.
func (s *LeadService) afterConfirm(lead *models.Lead, business *models.Business, payout int64) {
	if lead.ReferrerID != nil {
		if ref, err := s.referrers.GetByID(*lead.ReferrerID); err == nil {
			if payout > 0 {
				s.notif.NotifyEarningReleased(ref.UserID, payout, business.BusinessName)
				if ref.Email != "" {
					s.send(mailer.TplReferrerEarningAvailable, ref.Email, map[string]interface{}{
						"full_name":      ref.FullName,
						"amount_dollars": float64(payout) / 100,
						"business_name":  business.BusinessName,
					})
				}
			}
			if ref.Email != "" {
				s.send(mailer.TplReferrerReviewRequest, ref.Email, map[string]interface{}{
					"full_name":     ref.FullName,
					"business_name": business.BusinessName,
					"slug":          business.Slug,
				})
			}
		}
	}
	s.publish(events.EventLeadConfirmed, lead.ID, map[string]interface{}{
		"payout_cents": payout,
	})
}

// ListForBusiness returns the business's leads for its dashboard.
func (s *LeadService) ListForBusiness(businessUserID uint, limit, offset int) ([]models.Lead, error) {
	business, err := s.businesses.GetByUserID(businessUserID)
	if err != nil {
		return nil, err
	}
	return s.leads.ListByBusiness(business.ID, limit, offset)
}

// ownedLead loads a lead and checks the caller's business owns it. Leads the
// caller doesn't own surface as ErrNotFound, never as a forbidden hint.
func (s *LeadService) ownedLead(leadID, businessUserID uint) (*models.Lead, *models.Business, error) {
	business, err := s.businesses.GetByUserID(businessUserID)
	if err != nil {
		return nil, nil, err
	}
	lead, err := s.leads.GetByID(leadID)
	if err != nil {
		return nil, nil, err
	}
	if lead.BusinessID != business.ID {
		return nil, nil, domain.ErrNotFound
	}
	return lead, business, nil
}

func (s *LeadService) send(template, recipient string, params map[string]interface{}) {
	if err := s.mail.Send(template, recipient, params); err != nil {
		log.Printf("[leads] email %s to %s failed (non-fatal): %v", template, recipient, err)
	}
}

func (s *LeadService) publish(eventType string, leadID uint, data map[string]interface{}) {
	evt, err := events.New(eventType, "lead", leadID, data)
	if err != nil {
		log.Printf("[leads] event %s: %v", eventType, err)
		return
	}
	if err := s.pub.Publish(evt); err != nil {
		log.Printf("[leads] publish %s: %v", eventType, err)
	}
}

// generatePin returns a 4-digit numeric code.
func generatePin() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
