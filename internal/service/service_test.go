package service

import (
	"fmt"
	"testing"
	"time"

	"traderefer/config"
	"traderefer/internal/database"
	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"
	"traderefer/pkg/events"
	"traderefer/pkg/mailer"
	"traderefer/pkg/payment"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service stack onto an in-memory database.
type testEnv struct {
	db  *gorm.DB
	cfg *config.Config

	users      *repository.UserRepository
	businesses *repository.BusinessRepository
	referrers  *repository.ReferrerRepository
	links      *repository.ReferralLinkRepository
	leads      *repository.LeadRepository
	pins       *repository.PinRepository
	earnings   *repository.EarningRepository
	disputes   *repository.DisputeRepository

	leadSvc      *LeadService
	disputeSvc   *DisputeService
	lifecycleSvc *LifecycleService
	payoutSvc    *PayoutService
	businessSvc  *BusinessService
	referrerSvc  *ReferrerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps every session on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		Payment: config.PaymentConfig{Currency: "aud"},
		Leads: config.LeadConfig{
			PinTTL:           4 * time.Hour,
			LeadExpiry:       7 * 24 * time.Hour,
			UnlockedExpiry:   72 * time.Hour,
			EarningHold:      7 * 24 * time.Hour,
			VelocityLimit:    5,
			VelocityWindow:   time.Hour,
			VerificationCode: "123456",
		},
	}

	env := &testEnv{
		db:         db,
		cfg:        cfg,
		users:      repository.NewUserRepository(db),
		businesses: repository.NewBusinessRepository(db),
		referrers:  repository.NewReferrerRepository(db),
		links:      repository.NewReferralLinkRepository(db),
		leads:      repository.NewLeadRepository(db),
		pins:       repository.NewPinRepository(db),
		earnings:   repository.NewEarningRepository(db),
		disputes:   repository.NewDisputeRepository(db),
	}

	notificationRepo := repository.NewNotificationRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	notifSvc := NewNotificationService(notificationRepo)
	mail := mailer.LogSender{}
	provider := &payment.StubProvider{}
	pub := events.Noop{}

	env.leadSvc = NewLeadService(db, cfg, env.leads, env.pins, env.businesses, env.referrers, env.links, env.earnings, txRepo, notifSvc, mail, provider, pub)
	env.disputeSvc = NewDisputeService(db, env.disputes, env.leads, env.businesses, env.referrers, env.links, env.earnings, txRepo, notifSvc, mail, pub)
	env.lifecycleSvc = NewLifecycleService(db, cfg, env.earnings, env.referrers, notifSvc, mail, pub)
	env.payoutSvc = NewPayoutService(db, env.referrers, provider, mail, pub)
	env.businessSvc = NewBusinessService(db, cfg, env.businesses, txRepo, provider)
	env.referrerSvc = NewReferrerService(db, env.referrers, env.earnings, env.links)
	return env
}

var userSeq int

func (env *testEnv) createBusiness(t *testing.T, feeCents, walletCents int64) *models.Business {
	t.Helper()
	userSeq++
	user := &models.User{
		Email: fmt.Sprintf("biz%d@example.com", userSeq),
		Role:  domain.RoleBusiness,
	}
	require.NoError(t, env.users.Create(user))
	b := &models.Business{
		UserID:             user.ID,
		BusinessName:       fmt.Sprintf("Plumbing Co %d", userSeq),
		Slug:               fmt.Sprintf("plumbing-co-%d", userSeq),
		BusinessEmail:      user.Email,
		TradeCategory:      "plumbing",
		ReferralFeeCents:   feeCents,
		WalletBalanceCents: walletCents,
	}
	require.NoError(t, env.businesses.Create(b))
	return b
}

func (env *testEnv) createReferrer(t *testing.T) *models.Referrer {
	t.Helper()
	userSeq++
	user := &models.User{
		Email: fmt.Sprintf("ref%d@example.com", userSeq),
		Role:  domain.RoleReferrer,
	}
	require.NoError(t, env.users.Create(user))
	ref := &models.Referrer{
		UserID:   user.ID,
		FullName: "Jamie Referrer",
		Email:    user.Email,
	}
	require.NoError(t, env.referrers.Create(ref))
	return ref
}

func (env *testEnv) createLink(t *testing.T, referrerID, businessID uint) *models.ReferralLink {
	t.Helper()
	link, err := env.links.GetOrCreate(referrerID, businessID)
	require.NoError(t, err)
	return link
}

// createLead submits a referred lead with a unique phone number.
func (env *testEnv) createLead(t *testing.T, business *models.Business, linkCode string) *models.Lead {
	t.Helper()
	userSeq++
	lead, err := env.leadSvc.Create(CreateLeadInput{
		BusinessID:     business.ID,
		ConsumerName:   "Sam Consumer",
		ConsumerPhone:  fmt.Sprintf("04%08d", userSeq),
		ConsumerEmail:  fmt.Sprintf("sam%d@example.com", userSeq),
		ConsumerSuburb: "Newtown",
		JobDescription: "Leaking tap in the kitchen",
		ReferralCode:   linkCode,
		ConsumerIP:     fmt.Sprintf("10.0.%d.%d", userSeq/250, userSeq%250),
	})
	require.NoError(t, err)
	return lead
}

// unlockViaWebhook drives a lead to UNLOCKED through the payment-success path.
func (env *testEnv) unlockViaWebhook(t *testing.T, lead *models.Lead) {
	t.Helper()
	require.NoError(t, env.leadSvc.VerifyCode(lead.ID, "123456"))
	require.NoError(t, env.leadSvc.HandlePaymentSucceeded(lead.ID, lead.BusinessID, "pi_test_"+fmt.Sprint(lead.ID)))
}

func (env *testEnv) reloadLead(t *testing.T, id uint) *models.Lead {
	t.Helper()
	lead, err := env.leads.GetByID(id)
	require.NoError(t, err)
	return lead
}

func (env *testEnv) reloadReferrer(t *testing.T, id uint) *models.Referrer {
	t.Helper()
	ref, err := env.referrers.GetByID(id)
	require.NoError(t, err)
	return ref
}

func (env *testEnv) reloadBusiness(t *testing.T, id uint) *models.Business {
	t.Helper()
	b, err := env.businesses.GetByID(id)
	require.NoError(t, err)
	return b
}

func timePast() time.Time { return time.Now().Add(-time.Minute) }

// cfgJWT fills in signing material for tests exercising token issuance.
func cfgJWT(env *testEnv) {
	env.cfg.JWT = config.JWTConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "traderefer-test",
	}
}
