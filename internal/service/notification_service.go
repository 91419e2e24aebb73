package service

import (
	"fmt"
	"log"

	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"
)

// NotificationService writes in-app notifications. Every call is best-effort:
// failures are logged here and never reach the state transition that
// triggered them.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(userID uint, ntype, title, body, link string) {
	n := &models.Notification{
		UserID: userID,
		Type:   ntype,
		Title:  title,
		Body:   body,
		Link:   link,
	}
	if err := s.repo.Create(n); err != nil {
		log.Printf("[notify] %s to user %d failed: %v", ntype, userID, err)
	}
}

func (s *NotificationService) NotifyEarningReleased(userID uint, amountCents int64, businessName string) {
	s.Notify(userID,
		domain.NotifTypeLeadAccepted,
		fmt.Sprintf("You earned $%.2f!", float64(amountCents)/100),
		fmt.Sprintf("Your referral to %s was confirmed. The money is in your wallet.", businessName),
		"/dashboard/referrer",
	)
}

// NotifyEarningAvailable announces a hold-lapse release, where the lead was
// never explicitly confirmed but the clearing period ran out.
func (s *NotificationService) NotifyEarningAvailable(userID uint, amountCents int64) {
	s.Notify(userID,
		domain.NotifTypeEarningAvailable,
		fmt.Sprintf("$%.2f is now available", float64(amountCents)/100),
		"A pending referral payout cleared its holding period and moved to your wallet.",
		"/dashboard/referrer",
	)
}

func (s *NotificationService) NotifyNewLead(userID uint, suburb string, leadID uint) {
	s.Notify(userID,
		domain.NotifTypeLeadUnlocked,
		"New lead waiting",
		fmt.Sprintf("A consumer in %s requested a quote.", suburb),
		fmt.Sprintf("/dashboard/leads/%d", leadID),
	)
}

func (s *NotificationService) NotifyDisputeResolved(userID uint, outcome string) {
	s.Notify(userID,
		domain.NotifTypeDisputeResolved,
		"Dispute resolved",
		fmt.Sprintf("An admin resolved your dispute with outcome: %s.", outcome),
		"/dashboard",
	)
}
