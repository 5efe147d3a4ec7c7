package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

// SocialProfile is the identity returned by an OAuth provider.
type SocialProfile struct {
	Provider  string
	UID       string
	Username  string
	Email     string
	AvatarURL string
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Delete(ctx context.Context, id uint) error
	FirstSocialAccount(ctx context.Context, userID uint) (*models.SocialAccount, error)
	LinkSocialAccount(ctx context.Context, profile SocialProfile) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a user; a taken username yields ErrDuplicate.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		return translate(tx.Create(user).Error)
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Delete removes a user. Their posts stay with no author; their comments and social
// accounts are removed.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return translate(err)
		}
		err := tx.Model(&models.Post{}).
			Where("author_id = ?", user.ID).
			UpdateColumn("author_id", nil).Error
		if err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.SocialAccount{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// FirstSocialAccount returns the earliest linked account of the user, or nil when none.
func (r *userRepository) FirstSocialAccount(ctx context.Context, userID uint) (*models.SocialAccount, error) {
	var accounts []models.SocialAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Limit(1).Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// LinkSocialAccount returns the user owning the provider identity, refreshing its avatar.
// An unknown identity creates a user whose username is derived from the profile.
func (r *userRepository) LinkSocialAccount(ctx context.Context, profile SocialProfile) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.SocialAccount
		err := tx.Where("provider = ? AND uid = ?", profile.Provider, profile.UID).First(&account).Error
		switch {
		case err == nil:
			if account.AvatarURL != profile.AvatarURL {
				if err := tx.Model(&account).Update("avatar_url", profile.AvatarURL).Error; err != nil {
					return err
				}
			}
			return tx.First(&user, account.UserID).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		username, err := availableUsername(tx, profile)
		if err != nil {
			return err
		}
		user = models.User{Username: username, Email: profile.Email}
		if err := tx.Create(&user).Error; err != nil {
			return translate(err)
		}
		account = models.SocialAccount{
			UserID:    user.ID,
			Provider:  profile.Provider,
			UID:       profile.UID,
			AvatarURL: profile.AvatarURL,
		}
		return translate(tx.Create(&account).Error)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func availableUsername(tx *gorm.DB, profile SocialProfile) (string, error) {
	base := profile.Username
	if base == "" {
		base = profile.Provider + "_" + profile.UID
	}
	if len(base) > 56 {
		base = base[:56]
	}
	candidate := base
	for i := 1; i < 100; i++ {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", candidate).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
	return "", ErrDuplicate
}
