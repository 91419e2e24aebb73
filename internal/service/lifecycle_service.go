package service

import (
	"errors"
	"log"
	"time"

	"traderefer/config"
	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"
	"traderefer/pkg/events"
	"traderefer/pkg/mailer"

	"gorm.io/gorm"
)

// LifecycleService is the scheduled sweeper. Each operation is independently
// idempotent: a second run over the same data touches zero rows. The caller
// (cron endpoint or an external scheduler) decides frequency.
type LifecycleService struct {
	db        *gorm.DB
	cfg       *config.Config
	earnings  *repository.EarningRepository
	referrers *repository.ReferrerRepository
	notif     *NotificationService
	mail      mailer.Sender
	pub       events.Publisher
}

func NewLifecycleService(
	db *gorm.DB,
	cfg *config.Config,
	earnings *repository.EarningRepository,
	referrers *repository.ReferrerRepository,
	notif *NotificationService,
	mail mailer.Sender,
	pub events.Publisher,
) *LifecycleService {
	return &LifecycleService{
		db:        db,
		cfg:       cfg,
		earnings:  earnings,
		referrers: referrers,
		notif:     notif,
		mail:      mail,
		pub:       pub,
	}
}

// LifecycleCounts reports how many rows each sweep touched.
type LifecycleCounts struct {
	PendingExpired   int64 `json:"pending_expired"`
	UnlockedExpired  int64 `json:"unlocked_expired"`
	EarningsReleased int64 `json:"earnings_released"`
	PinsExpired      int64 `json:"pins_expired"`
}

// RunAll executes the four sweeps in order and returns per-sweep counts.
// A failing sweep does not block the others.
func (s *LifecycleService) RunAll() LifecycleCounts {
	var counts LifecycleCounts
	var err error

	if counts.PendingExpired, err = s.ExpirePendingLeads(); err != nil {
		log.Printf("[lifecycle] expire pending: %v", err)
	}
	if counts.UnlockedExpired, err = s.ExpireUnlockedLeads(); err != nil {
		log.Printf("[lifecycle] expire unlocked: %v", err)
	}
	if counts.EarningsReleased, err = s.ReleasePendingEarnings(); err != nil {
		log.Printf("[lifecycle] release earnings: %v", err)
	}
	if counts.PinsExpired, err = s.CleanupExpiredPins(); err != nil {
		log.Printf("[lifecycle] cleanup pins: %v", err)
	}
	return counts
}

// ExpirePendingLeads closes PENDING leads whose verification window has
// passed. No money moved: nothing was unlocked.
func (s *LifecycleService) ExpirePendingLeads() (int64, error) {
	res := s.db.Model(&models.Lead{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", domain.LeadStatusPending, time.Now()).
		Updates(map[string]interface{}{
			"status":     domain.LeadStatusExpired,
			"active_key": nil,
		})
	return res.RowsAffected, res.Error
}

// ExpireUnlockedLeads closes UNLOCKED leads never marked on-the-way within
// the unlocked window. The business keeps the contact details it paid for;
// the pending earning stays and releases on its own hold schedule.
func (s *LifecycleService) ExpireUnlockedLeads() (int64, error) {
	cutoff := time.Now().Add(-s.cfg.Leads.UnlockedExpiry)
	res := s.db.Model(&models.Lead{}).
		Where("status = ? AND unlocked_at IS NOT NULL AND unlocked_at < ?", domain.LeadStatusUnlocked, cutoff).
		Updates(map[string]interface{}{
			"status":     domain.LeadStatusExpired,
			"active_key": nil,
		})
	return res.RowsAffected, res.Error
}

// ReleasePendingEarnings moves each PENDING earning past its hold date to
// AVAILABLE and shifts the amount from the referrer's pending balance to the
// wallet. Each earning settles in its own transaction so one bad row cannot
// hold up the batch.
func (s *LifecycleService) ReleasePendingEarnings() (int64, error) {
	var due []models.ReferrerEarning
	if err := s.db.
		Where("status = ? AND available_at IS NOT NULL AND available_at < ?", domain.EarningStatusPending, time.Now()).
		Limit(500).
		Find(&due).Error; err != nil {
		return 0, err
	}

	var released int64
	for i := range due {
		e := &due[i]
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if _, err := s.earnings.WithTx(tx).TransitionPending(e.LeadID, domain.EarningStatusAvailable, nil); err != nil {
				return err
			}
			return s.referrers.WithTx(tx).ReleaseHold(e.ReferrerID, e.GrossCents)
		})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// settled by a concurrent confirm or dispute ruling
				continue
			}
			log.Printf("[lifecycle] release earning %d: %v", e.ID, err)
			continue
		}
		released++

		if ref, gerr := s.referrers.GetByID(e.ReferrerID); gerr == nil {
			s.notif.NotifyEarningAvailable(ref.UserID, e.GrossCents)
			if ref.Email != "" {
				if merr := s.mail.Send(mailer.TplReferrerEarningAvailable, ref.Email, map[string]interface{}{
					"full_name":      ref.FullName,
					"amount_dollars": float64(e.GrossCents) / 100,
				}); merr != nil {
					log.Printf("[lifecycle] email for earning %d failed (non-fatal): %v", e.ID, merr)
				}
			}
		}
		if evt, eerr := events.New(events.EventEarningReleased, "earning", e.ID, map[string]interface{}{
			"referrer_id":  e.ReferrerID,
			"amount_cents": e.GrossCents,
		}); eerr == nil {
			if perr := s.pub.Publish(evt); perr != nil {
				log.Printf("[lifecycle] publish earning %d: %v", e.ID, perr)
			}
		}
	}
	return released, nil
}

// CleanupExpiredPins fails ON_THE_WAY leads whose newest PIN has expired.
// UNCONFIRMED is terminal and keeps the earning pending for admin review.
func (s *LifecycleService) CleanupExpiredPins() (int64, error) {
	res := s.db.Model(&models.Lead{}).
		Where("status = ?", domain.LeadStatusOnTheWay).
		Where("id IN (?)", s.db.Model(&models.LeadPin{}).
			Select("lead_id").
			Group("lead_id").
			Having("MAX(expires_at) < ?", time.Now())).
		Updates(map[string]interface{}{
			"status":     domain.LeadStatusUnconfirmed,
			"active_key": nil,
		})
	return res.RowsAffected, res.Error
}
