package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-matrix/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrTokenNotFound = errors.New("refresh token not found")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	ExistsBy(ctx context.Context, column, value string) (bool, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	ActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type TokenRepository interface {
	Create(ctx context.Context, token *models.Token) error
	FindValid(ctx context.Context, refreshToken uuid.UUID, now time.Time) (models.Token, error)
	Delete(ctx context.Context, refreshToken uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.Must(uuid.NewV4())
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg interface{}) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// ExistsBy reports whether a user with the given username or email exists.
func (r *GormUserRepository) ExistsBy(ctx context.Context, column, value string) (bool, error) {
	if column != "username" && column != "email" {
		return false, fmt.Errorf("unsupported lookup column %q", column)
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(column+" = ?", value).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

func (r *GormUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login_at", at).Error
}

func (r *GormUserRepository) ActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true).Order("created_at").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

type GormTokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

func (r *GormTokenRepository) Create(ctx context.Context, token *models.Token) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.Must(uuid.NewV4())
	}
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *GormTokenRepository) FindValid(ctx context.Context, refreshToken uuid.UUID, now time.Time) (models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).Where("refresh_token = ? AND expires_at > ?", refreshToken, now).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Token{}, ErrTokenNotFound
	}
	return token, err
}

func (r *GormTokenRepository) Delete(ctx context.Context, refreshToken uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).Delete(&models.Token{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *GormTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Token{})
	return res.RowsAffected, res.Error
}
