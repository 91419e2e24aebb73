package service

import (
	"errors"
	"strconv"
	"strings"

	"traderefer/config"
	"traderefer/internal/auth"
	"traderefer/internal/domain"
	"traderefer/internal/models"
	"traderefer/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AuthService handles registration and login for businesses and referrers.
// Registration creates the user row and its role profile in one transaction.
type AuthService struct {
	db         *gorm.DB
	cfg        *config.Config
	users      *repository.UserRepository
	businesses *repository.BusinessRepository
	referrers  *repository.ReferrerRepository
}

func NewAuthService(db *gorm.DB, cfg *config.Config, users *repository.UserRepository, businesses *repository.BusinessRepository, referrers *repository.ReferrerRepository) *AuthService {
	return &AuthService{db: db, cfg: cfg, users: users, businesses: businesses, referrers: referrers}
}

type RegisterInput struct {
	Email            string
	Password         string
	FullName         string
	Role             string
	BusinessName     string
	TradeCategory    string
	Suburb           string
	ReferralFeeCents int64
}

func (s *AuthService) Register(in RegisterInput) (*models.User, string, string, error) {
	if in.Role != domain.RoleBusiness && in.Role != domain.RoleReferrer {
		return nil, "", "", domain.ErrInvalidInput
	}
	if in.Role == domain.RoleBusiness && (in.BusinessName == "" || in.ReferralFeeCents <= 0) {
		return nil, "", "", domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}

	user := &models.User{
		Email:        strings.ToLower(in.Email),
		FullName:     in.FullName,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Create(user); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return ErrEmailExists
			}
			return err
		}
		switch in.Role {
		case domain.RoleBusiness:
			return s.businesses.WithTx(tx).Create(&models.Business{
				UserID:           user.ID,
				BusinessName:     in.BusinessName,
				Slug:             slugify(in.BusinessName, user.ID),
				BusinessEmail:    user.Email,
				TradeCategory:    in.TradeCategory,
				Suburb:           in.Suburb,
				ReferralFeeCents: in.ReferralFeeCents,
			})
		default:
			return s.referrers.WithTx(tx).Create(&models.Referrer{
				UserID:   user.ID,
				FullName: in.FullName,
				Email:    user.Email,
			})
		}
	})
	if err != nil {
		return nil, "", "", err
	}

	access, refresh, err := s.tokens(user)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	user, err := s.users.GetByEmail(strings.ToLower(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	access, refresh, err := s.tokens(user)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

func (s *AuthService) tokens(user *models.User) (string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, user.ID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, user.ID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// slugify builds a URL-safe slug; the user id suffix keeps it unique without
// a retry loop on the slug index.
func slugify(name string, id uint) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "business"
	}
	return slug + "-" + strconv.FormatUint(uint64(id), 10)
}
