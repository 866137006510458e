package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"task-matrix/internal/logging"
	"task-matrix/internal/models"
	"task-matrix/internal/repositories"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

const MinPasswordLength = 8

type RegistrationRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r RegistrationRequest) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("username", r.Username, func(v string) error {
			if n := len(strings.TrimSpace(v)); n < 3 || n > 150 {
				return errors.New("must be between 3 and 150 characters")
			}
			return nil
		}),
		criterio.Run("email", r.Email, func(v string) error {
			if _, err := mail.ParseAddress(v); err != nil {
				return errors.New("must be a valid email address")
			}
			return nil
		}),
		criterio.Run("password", r.Password, func(v string) error {
			if len(v) < MinPasswordLength {
				return errors.New("must contain at least 8 characters")
			}
			return nil
		}),
	)
}

type RegisterService interface {
	RegisterUser(ctx context.Context, req RegistrationRequest) (*models.User, error)
}

type RegisterServiceImpl struct {
	users repositories.UserRepository
	stats repositories.StatisticsRepository
	cost  int
	log   zerolog.Logger
}

func NewRegisterService(users repositories.UserRepository, stats repositories.StatisticsRepository, bcryptCost int, l zerolog.Logger) *RegisterServiceImpl {
	return &RegisterServiceImpl{
		users: users,
		stats: stats,
		cost:  bcryptCost,
		log:   logging.Component(l, "register"),
	}
}

func (s *RegisterServiceImpl) RegisterUser(ctx context.Context, req RegistrationRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if exists, err := s.users.ExistsBy(ctx, "email", req.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateEmail
	}

	if exists, err := s.users.ExistsBy(ctx, "username", req.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateUsername
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		IsActive: true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return nil, err
	}

	// every user starts with an empty statistics row
	if _, err := s.stats.GetOrCreate(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to initialise statistics")
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user registered")
	return &user, nil
}
