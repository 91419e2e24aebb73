package service

import (
	"testing"

	"traderefer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBusinessAndLogin(t *testing.T) {
	env := newTestEnv(t)
	cfgJWT(env)
	authSvc := NewAuthService(env.db, env.cfg, env.users, env.businesses, env.referrers)

	user, access, refresh, err := authSvc.Register(RegisterInput{
		Email:            "Owner@Example.com",
		Password:         "s3cret-pass",
		FullName:         "Pat Owner",
		Role:             domain.RoleBusiness,
		BusinessName:     "Pat's Plumbing",
		TradeCategory:    "plumbing",
		ReferralFeeCents: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", user.Email)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	business, err := env.businesses.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pat's Plumbing", business.BusinessName)
	assert.Contains(t, business.Slug, "pats-plumbing")

	_, _, _, err = authSvc.Login("owner@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, _, _, err = authSvc.Login("owner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	cfgJWT(env)
	authSvc := NewAuthService(env.db, env.cfg, env.users, env.businesses, env.referrers)

	in := RegisterInput{
		Email:    "ref@example.org",
		Password: "s3cret-pass",
		FullName: "Jamie",
		Role:     domain.RoleReferrer,
	}
	_, _, _, err := authSvc.Register(in)
	require.NoError(t, err)

	_, _, _, err = authSvc.Register(in)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterBusinessRequiresFee(t *testing.T) {
	env := newTestEnv(t)
	cfgJWT(env)
	authSvc := NewAuthService(env.db, env.cfg, env.users, env.businesses, env.referrers)

	_, _, _, err := authSvc.Register(RegisterInput{
		Email:        "fee@example.org",
		Password:     "s3cret-pass",
		FullName:     "Pat",
		Role:         domain.RoleBusiness,
		BusinessName: "No Fee Co",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
