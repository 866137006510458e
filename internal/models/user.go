package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Username    string     `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email       string     `json:"email" gorm:"uniqueIndex;not null"`
	Password    string     `json:"-" gorm:"not null"`
	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Tasks      []Task          `json:"tasks,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Statistics *TaskStatistics `json:"statistics,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Tokens     []Token         `json:"-" gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

type Token struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserId       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	RefreshToken uuid.UUID `json:"refresh_token" gorm:"type:uuid;uniqueIndex;not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (t Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
