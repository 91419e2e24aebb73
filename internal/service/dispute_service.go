package service

import (
	"log"
	"time"

	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"
	"traderefer/pkg/events"
	"traderefer/pkg/mailer"

	"gorm.io/gorm"
)

// DisputeService handles the business-raised dispute flow. A lead carries at
// most one dispute; resolving it either confirms the lead (earning released)
// or expires it (earning cancelled, pending hold unwound).
type DisputeService struct {
	db         *gorm.DB
	disputes   *repository.DisputeRepository
	leads      *repository.LeadRepository
	businesses *repository.BusinessRepository
	referrers  *repository.ReferrerRepository
	settle     *settlement
	notif      *NotificationService
	mail       mailer.Sender
	pub        events.Publisher
}

func NewDisputeService(
	db *gorm.DB,
	disputes *repository.DisputeRepository,
	leads *repository.LeadRepository,
	businesses *repository.BusinessRepository,
	referrers *repository.ReferrerRepository,
	links *repository.ReferralLinkRepository,
	earnings *repository.EarningRepository,
	txlog *repository.TransactionRepository,
	notif *NotificationService,
	mail mailer.Sender,
	pub events.Publisher,
) *DisputeService {
	return &DisputeService{
		db:         db,
		disputes:   disputes,
		leads:      leads,
		businesses: businesses,
		referrers:  referrers,
		settle: &settlement{
			leads:      leads,
			earnings:   earnings,
			referrers:  referrers,
			links:      links,
			businesses: businesses,
			txlog:      txlog,
		},
		notif: notif,
		mail:  mail,
		pub:   pub,
	}
}

// Open raises a dispute on a paid lead. Only the owning business may dispute,
// and only from UNLOCKED, ON_THE_WAY or CONFIRMED. Disputing an already
// disputed or never-paid lead returns ErrConflict.
func (s *DisputeService) Open(leadID, businessUserID uint, reason, notes string) (*models.Dispute, error) {
	business, err := s.businesses.GetByUserID(businessUserID)
	if err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead.BusinessID != business.ID {
		return nil, domain.ErrNotFound
	}
	if !lead.IsUnlocked() || lead.Status == domain.LeadStatusDisputed {
		return nil, domain.ErrConflict
	}

	dispute := &models.Dispute{
		LeadID:     lead.ID,
		BusinessID: business.ID,
		Reason:     reason,
		Notes:      notes,
		Status:     domain.DisputeStatusOpen,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.disputes.WithTx(tx).Create(dispute); err != nil {
			return err
		}
		return s.leads.WithTx(tx).TransitionStatus(lead.ID,
			[]string{domain.LeadStatusUnlocked, domain.LeadStatusOnTheWay, domain.LeadStatusConfirmed},
			domain.LeadStatusDisputed,
			nil)
	})
	if err != nil {
		return nil, err
	}

	if business.BusinessEmail != "" {
		s.send(mailer.TplBusinessDisputeRaised, business.BusinessEmail, map[string]interface{}{
			"business_name": business.BusinessName,
			"lead_id":       lead.ID,
			"reason":        reason,
		})
	}
	s.publish(events.EventLeadDisputed, lead.ID, map[string]interface{}{
		"dispute_id": dispute.ID,
		"reason":     reason,
	})
	return dispute, nil
}

// Resolve closes an open dispute with the admin's ruling. "confirm" settles
// the lead as genuine and releases the held earning; "reject" expires it and
// cancels the earning. Both rulings free the active key so the consumer may
// submit again later.
func (s *DisputeService) Resolve(leadID, adminUserID uint, outcome, adminNotes string) error {
	if outcome != domain.DisputeOutcomeConfirm && outcome != domain.DisputeOutcomeReject {
		return domain.ErrInvalidInput
	}
	dispute, err := s.disputes.GetByLeadID(leadID)
	if err != nil {
		return err
	}
	if dispute.Status != domain.DisputeStatusOpen {
		return domain.ErrConflict
	}
	lead, err := s.leads.GetByID(leadID)
	if err != nil {
		return err
	}

	var payout, cancelled int64
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if outcome == domain.DisputeOutcomeConfirm {
			if err := s.leads.WithTx(tx).TransitionStatus(lead.ID,
				[]string{domain.LeadStatusDisputed},
				domain.LeadStatusConfirmed,
				map[string]interface{}{"confirmed_at": &now, "active_key": nil}); err != nil {
				return err
			}
			var err error
			payout, err = s.settle.releaseEarning(tx, lead)
			if err != nil {
				return err
			}
		} else {
			if err := s.leads.WithTx(tx).TransitionStatus(lead.ID,
				[]string{domain.LeadStatusDisputed},
				domain.LeadStatusExpired,
				map[string]interface{}{"active_key": nil}); err != nil {
				return err
			}
			var err error
			cancelled, err = s.settle.cancelEarning(tx, lead)
			if err != nil {
				return err
			}
		}
		return s.disputes.WithTx(tx).Resolve(dispute.ID, map[string]interface{}{
			"status":      domain.DisputeStatusResolved,
			"outcome":     outcome,
			"admin_notes": adminNotes,
			"resolved_by": adminUserID,
			"resolved_at": &now,
		})
	})
	if err != nil {
		return err
	}

	s.afterResolve(lead, outcome, payout, cancelled)
	return nil
}

func (s *DisputeService) afterResolve(lead *models.Lead, outcome string, payout, cancelled int64) {
	if business, err := s.businesses.GetByID(lead.BusinessID); err == nil && business.BusinessEmail != "" {
		s.send(mailer.TplDisputeResolvedBusiness, business.BusinessEmail, map[string]interface{}{
			"business_name": business.BusinessName,
			"lead_id":       lead.ID,
			"outcome":       outcome,
		})
	}
	if lead.ReferrerID != nil {
		if ref, err := s.referrers.GetByID(*lead.ReferrerID); err == nil {
			s.notif.NotifyDisputeResolved(ref.UserID, outcome)
			if ref.Email != "" {
				s.send(mailer.TplDisputeResolvedReferrer, ref.Email, map[string]interface{}{
					"full_name":      ref.FullName,
					"outcome":        outcome,
					"payout_dollars": float64(payout) / 100,
				})
			}
		}
	}
	if cancelled > 0 {
		s.publish(events.EventEarningCancelled, lead.ID, map[string]interface{}{
			"referrer_id":  lead.ReferrerID,
			"amount_cents": cancelled,
		})
	}
	s.publish(events.EventDisputeResolved, lead.ID, map[string]interface{}{
		"outcome":      outcome,
		"payout_cents": payout,
	})
}

// ListOpen returns open disputes for the admin review queue.
func (s *DisputeService) ListOpen(limit, offset int) ([]models.Dispute, error) {
	return s.disputes.ListOpen(limit, offset)
}

func (s *DisputeService) send(template, recipient string, params map[string]interface{}) {
	if err := s.mail.Send(template, recipient, params); err != nil {
		log.Printf("[disputes] email %s to %s failed (non-fatal): %v", template, recipient, err)
	}
}

func (s *DisputeService) publish(eventType string, leadID uint, data map[string]interface{}) {
	evt, err := events.New(eventType, "lead", leadID, data)
	if err != nil {
		log.Printf("[disputes] event %s: %v", eventType, err)
		return
	}
	if err := s.pub.Publish(evt); err != nil {
		log.Printf("[disputes] publish %s: %v", eventType, err)
	}
}
