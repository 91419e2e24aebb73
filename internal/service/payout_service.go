package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"
	"traderefer/pkg/events"
	"traderefer/pkg/mailer"
	"traderefer/pkg/payment"

	"gorm.io/gorm"
)

// PayoutService handles referrer withdrawals of their available balance.
type PayoutService struct {
	db        *gorm.DB
	referrers *repository.ReferrerRepository
	provider  payment.Provider
	mail      mailer.Sender
	pub       events.Publisher
}

func NewPayoutService(
	db *gorm.DB,
	referrers *repository.ReferrerRepository,
	provider payment.Provider,
	mail mailer.Sender,
	pub events.Publisher,
) *PayoutService {
	return &PayoutService{
		db:        db,
		referrers: referrers,
		provider:  provider,
		mail:      mail,
		pub:       pub,
	}
}

// Withdraw pays out the referrer's full available balance. Pending holds are
// untouched. The transfer goes out before the debit commits; a debit failure
// after a sent transfer is logged for manual reconciliation rather than
// retried, since retrying would double-send.
func (s *PayoutService) Withdraw(ctx context.Context, referrerUserID uint, method, destination string) (*models.PayoutRequest, error) {
	ref, err := s.referrers.GetByUserID(referrerUserID)
	if err != nil {
		return nil, err
	}
	amount := ref.WalletBalanceCents
	if amount <= 0 {
		return nil, domain.ErrInsufficientBalance
	}

	transferRef, err := s.provider.CreateTransfer(ctx, amount, destination,
		fmt.Sprintf("Referral payout for %s", ref.FullName))
	if err != nil {
		log.Printf("[payouts] transfer for referrer %d: %v", ref.ID, err)
		return nil, domain.ErrServiceUnavailable
	}

	now := time.Now()
	req := &models.PayoutRequest{
		ReferrerID:  ref.ID,
		AmountCents: amount,
		Method:      method,
		Destination: destination,
		Status:      "COMPLETED",
		PaymentRef:  transferRef,
		ProcessedAt: &now,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.referrers.WithTx(tx).DebitWallet(ref.ID, amount); err != nil {
			return err
		}
		return s.referrers.WithTx(tx).RecordPayoutRequest(req)
	})
	if err != nil {
		log.Printf("[payouts] transfer %s sent but debit failed for referrer %d: %v", transferRef, ref.ID, err)
		return nil, err
	}

	if ref.Email != "" {
		if merr := s.mail.Send(mailer.TplReferrerPayoutProcessed, ref.Email, map[string]interface{}{
			"full_name":      ref.FullName,
			"amount_dollars": float64(amount) / 100,
			"method":         method,
		}); merr != nil {
			log.Printf("[payouts] email to %s failed (non-fatal): %v", ref.Email, merr)
		}
	}
	if evt, eerr := events.New(events.EventPayoutProcessed, "payout", req.ID, map[string]interface{}{
		"referrer_id":  ref.ID,
		"amount_cents": amount,
	}); eerr == nil {
		if perr := s.pub.Publish(evt); perr != nil {
			log.Printf("[payouts] publish payout %d: %v", req.ID, perr)
		}
	}
	return req, nil
}
