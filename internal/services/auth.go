package services

import (
	"context"
	"errors"
	"fmt"

	"task-matrix/internal/config"
	"task-matrix/internal/logging"
	"task-matrix/internal/matrix"
	"task-matrix/internal/models"
	"task-matrix/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AccessClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type AuthService interface {
	LoginUser(ctx context.Context, username, password string) (*models.User, error)
	GenerateToken(ctx context.Context, userID uuid.UUID) (TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error)
	RevokeToken(ctx context.Context, refreshToken string) error
	ParseAccessToken(token string) (uuid.UUID, error)
}

type AuthServiceImpl struct {
	users  repositories.UserRepository
	tokens repositories.TokenRepository
	cfg    config.AuthConfig
	clock  matrix.Clock
	log    zerolog.Logger
}

func NewAuthService(users repositories.UserRepository, tokens repositories.TokenRepository, cfg config.AuthConfig, clock matrix.Clock, l zerolog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		clock:  clock,
		log:    logging.Component(l, "auth"),
	}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) LoginUser(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.clock.Now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record login")
	}
	user.LastLoginAt = &now
	return &user, nil
}

func (s *AuthServiceImpl) GenerateToken(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	now := s.clock.Now()

	claims := AccessClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := uuid.NewV4()
	if err != nil {
		return TokenPair{}, err
	}
	token := models.Token{
		UserId:       userID,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.tokens.Create(ctx, &token); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.String(),
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new pair. The old
// refresh token is revoked.
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	id, err := uuid.FromString(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	token, err := s.tokens.FindValid(ctx, id, s.clock.Now())
	if errors.Is(err, repositories.ErrTokenNotFound) {
		return TokenPair{}, ErrInvalidToken
	}
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.tokens.Delete(ctx, id); err != nil && !errors.Is(err, repositories.ErrTokenNotFound) {
		return TokenPair{}, err
	}
	return s.GenerateToken(ctx, token.UserId)
}

func (s *AuthServiceImpl) RevokeToken(ctx context.Context, refreshToken string) error {
	id, err := uuid.FromString(refreshToken)
	if err != nil {
		return ErrInvalidToken
	}
	if err := s.tokens.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

// PurgeExpiredTokens removes refresh tokens that can no longer be used.
func (s *AuthServiceImpl) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.clock.Now())
}

func (s *AuthServiceImpl) ParseAccessToken(tokenStr string) (uuid.UUID, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := uuid.FromString(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
