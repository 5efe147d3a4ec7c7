package models

import "time"

// SocialAccount links a user to an external identity provider account.
type SocialAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Provider  string    `gorm:"size:32;not null;uniqueIndex:idx_social_provider_uid" json:"provider"`
	UID       string    `gorm:"size:191;not null;uniqueIndex:idx_social_provider_uid" json:"uid"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
