package models

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 64
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameInvalid  = errors.New("username may only contain letters, digits, '.', '_' and '-'")
	ErrUsernameLength   = errors.New("username must be between 3 and 64 characters")
)

// User owns a ledger of transactions. The username is the external identity
// used by the API and the push channel.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`

	Transactions []Transaction `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	// Set timestamps if not already set (for tests)
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	return u.Validate()
}

func (u *User) Validate() error {
	if u.Username == "" {
		return ErrUsernameRequired
	}

	if len(u.Username) < MinUsernameLength || len(u.Username) > MaxUsernameLength {
		return ErrUsernameLength
	}

	if !usernameRegex.MatchString(u.Username) {
		return ErrUsernameInvalid
	}

	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}

	return nil
}

// TableName returns the table name for User
func (u *User) TableName() string {
	return "users"
}
