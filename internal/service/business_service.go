package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"traderefer/config"
	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"
	"traderefer/pkg/payment"

	"gorm.io/gorm"
)

// BusinessService covers the business-side surfaces outside the lead state
// machine: profile updates, wallet top-ups, and transaction history.
type BusinessService struct {
	db         *gorm.DB
	cfg        *config.Config
	businesses *repository.BusinessRepository
	txlog      *repository.TransactionRepository
	provider   payment.Provider
}

func NewBusinessService(db *gorm.DB, cfg *config.Config, businesses *repository.BusinessRepository, txlog *repository.TransactionRepository, provider payment.Provider) *BusinessService {
	return &BusinessService{db: db, cfg: cfg, businesses: businesses, txlog: txlog, provider: provider}
}

func (s *BusinessService) GetByUserID(userID uint) (*models.Business, error) {
	return s.businesses.GetByUserID(userID)
}

func (s *BusinessService) GetBySlug(slug string) (*models.Business, error) {
	return s.businesses.GetBySlug(slug)
}

// Patch applies an allow-listed partial profile update. Unknown fields are
// rejected, not ignored.
func (s *BusinessService) Patch(userID uint, fields map[string]interface{}) (*models.Business, error) {
	business, err := s.businesses.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if fee, ok := fields["referral_fee_cents"]; ok {
		f, ok := fee.(float64) // JSON numbers decode to float64
		if !ok || f < 0 {
			return nil, domain.ErrInvalidInput
		}
		fields["referral_fee_cents"] = int64(f)
	}
	if err := s.businesses.Patch(business.ID, fields); err != nil {
		return nil, err
	}
	return s.businesses.GetByID(business.ID)
}

// CreateTopUpIntent starts a wallet top-up payment. The credit lands via the
// webhook once the provider confirms.
func (s *BusinessService) CreateTopUpIntent(ctx context.Context, userID uint, amountCents int64) (*payment.Intent, error) {
	if amountCents <= 0 {
		return nil, domain.ErrInvalidInput
	}
	business, err := s.businesses.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	intent, err := s.provider.CreateIntent(ctx, payment.IntentRequest{
		AmountCents: amountCents,
		Currency:    s.cfg.Payment.Currency,
		Description: fmt.Sprintf("Wallet top-up for %s", business.BusinessName),
		Metadata: map[string]string{
			"topup":        "1",
			"business_id":  fmt.Sprintf("%d", business.ID),
			"amount_cents": fmt.Sprintf("%d", amountCents),
		},
	})
	if err != nil {
		log.Printf("[business] top-up intent for business %d: %v", business.ID, err)
		return nil, domain.ErrServiceUnavailable
	}
	return intent, nil
}

// HandleTopUpSucceeded credits the wallet for a confirmed top-up. The ledger
// row is written before the credit so the (business, payment_ref) unique
// index arbitrates redeliveries: the duplicate insert rolls the whole
// transaction back and the webhook acks as a no-op, even when two deliveries
// of the same event race.
func (s *BusinessService) HandleTopUpSucceeded(businessID uint, amountCents int64, providerRef string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.businesses.WithTx(tx)
		if err := repo.RecordWalletTransaction(&models.WalletTransaction{
			BusinessID:  businessID,
			AmountCents: amountCents,
			Type:        domain.WalletTxTypeTopUp,
			PaymentRef:  &providerRef,
		}); err != nil {
			return err
		}
		return repo.CreditWallet(businessID, amountCents)
	})
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	return err
}

func (s *BusinessService) WalletTransactions(userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	business, err := s.businesses.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.businesses.ListWalletTransactions(business.ID, limit, offset)
}

// Payments lists the audit rows for money the business has paid out (unlocks
// and associated referrer payouts).
func (s *BusinessService) Payments(userID uint, limit, offset int) ([]models.PaymentTransaction, error) {
	business, err := s.businesses.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.txlog.ListByBusiness(business.ID, limit, offset)
}
