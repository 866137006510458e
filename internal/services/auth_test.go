package services_test

import (
	"context"
	"testing"
	"time"

	"task-matrix/internal/config"
	"task-matrix/internal/matrix"
	"task-matrix/internal/repositories"
	"task-matrix/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	ctx      context.Context
	auth     *services.AuthServiceImpl
	register *services.RegisterServiceImpl
	clock    *matrix.FixedClock
}

func newAuthFixture(t *testing.T) *authFixture {
	pool := newPool(t)
	clock := &matrix.FixedClock{T: now}

	cfg := config.Default().Auth
	cfg.JWTSecret = "test-secret"

	users := repositories.NewUserRepository(pool.DB)
	return &authFixture{
		ctx:      context.Background(),
		auth:     services.NewAuthService(users, repositories.NewTokenRepository(pool.DB), cfg, clock, zerolog.Nop()),
		register: services.NewRegisterService(users, repositories.NewStatisticsRepository(pool.DB), bcrypt.MinCost, zerolog.Nop()),
		clock:    clock,
	}
}

func TestRegisterUser(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.register.RegisterUser(f.ctx, services.RegistrationRequest{Username: " alice ", Email: "Alice@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, services.VerifyPassword(user.Password, "password123"))

	_, err = f.register.RegisterUser(f.ctx, services.RegistrationRequest{Username: "alice2", Email: "alice@example.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrDuplicateEmail)

	_, err = f.register.RegisterUser(f.ctx, services.RegistrationRequest{Username: "alice", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrDuplicateUsername)
}

func TestRegisterUser_Validation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.register.RegisterUser(f.ctx, services.RegistrationRequest{Username: "al", Email: "not-an-email", Password: "short"})

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 3)
}

func TestLoginAndTokens(t *testing.T) {
	f := newAuthFixture(t)
	registered, err := f.register.RegisterUser(f.ctx, services.RegistrationRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = f.auth.LoginUser(f.ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = f.auth.LoginUser(f.ctx, "nobody", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	user, err := f.auth.LoginUser(f.ctx, "alice", "password123")
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)

	pair, err := f.auth.GenerateToken(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	id, err := f.auth.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, id)

	rotated, err := f.auth.RefreshToken(f.ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	_, err = f.auth.RefreshToken(f.ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, services.ErrInvalidToken, "refresh tokens are single use")

	require.NoError(t, f.auth.RevokeToken(f.ctx, rotated.RefreshToken))
	assert.ErrorIs(t, f.auth.RevokeToken(f.ctx, rotated.RefreshToken), services.ErrInvalidToken)
	assert.ErrorIs(t, f.auth.RevokeToken(f.ctx, "garbage"), services.ErrInvalidToken)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	f := newAuthFixture(t)
	user, err := f.register.RegisterUser(f.ctx, services.RegistrationRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	pair, err := f.auth.GenerateToken(f.ctx, user.ID)
	require.NoError(t, err)

	f.clock.T = now.Add(16 * time.Minute)
	_, err = f.auth.ParseAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, services.ErrInvalidToken, "expired")

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, services.AccessClaims{
		UserID: user.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "task-matrix",
			ExpiresAt: jwt.NewNumericDate(f.clock.T.Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = f.auth.ParseAccessToken(signed)
	assert.ErrorIs(t, err, services.ErrInvalidToken, "wrong key")
}

func TestRefreshToken_Expired(t *testing.T) {
	f := newAuthFixture(t)
	user, err := f.register.RegisterUser(f.ctx, services.RegistrationRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	pair, err := f.auth.GenerateToken(f.ctx, user.ID)
	require.NoError(t, err)

	f.clock.T = now.Add(8 * 24 * time.Hour)
	_, err = f.auth.RefreshToken(f.ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	purged, err := f.auth.PurgeExpiredTokens(f.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
}
