package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is a blog account. Passwords are stored as bcrypt hashes only; accounts created
// through OAuth have no password.
type User struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Username       string          `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email          string          `gorm:"size:255" json:"email"`
	PasswordHash   string          `gorm:"size:255" json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	SocialAccounts []SocialAccount `json:"-"`
}

func (u *User) String() string {
	return u.Username
}

// BeforeSave normalizes identity fields before they hit the unique index.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// NormalizeEmail trims the address and lowercases its domain. The local part is kept as
// typed since it is case-sensitive and feeds the fallback avatar URL.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return email
	}
	return email[:i+1] + strings.ToLower(email[i+1:])
}
