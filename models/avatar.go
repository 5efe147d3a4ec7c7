package models

import "context"

// fallbackAvatarPrefix is followed by the user's email address.
const fallbackAvatarPrefix = "https://doitdjango.com/avatar/id/2569/88f1d2892a7cfe94/svg/"

// Avatar is either a SocialAvatar or an EmailAvatar.
type Avatar interface {
	URL() string
	isAvatar()
}

// SocialAvatar is the picture of a linked social account.
type SocialAvatar struct {
	Provider string
	Picture  string
}

func (a SocialAvatar) URL() string { return a.Picture }
func (SocialAvatar) isAvatar()     {}

// EmailAvatar is the generated avatar used when no social account is linked.
type EmailAvatar struct {
	Email string
}

func (a EmailAvatar) URL() string { return FallbackAvatarURL(a.Email) }
func (EmailAvatar) isAvatar()     {}

// FallbackAvatarURL builds the deterministic avatar address for an email.
func FallbackAvatarURL(email string) string {
	return fallbackAvatarPrefix + email
}

// AvatarLookup finds the first linked social account of a user, or nil when there is none.
type AvatarLookup interface {
	FirstSocialAccount(ctx context.Context, userID uint) (*SocialAccount, error)
}

// AvatarResolver picks the avatar shown next to posts and comments.
type AvatarResolver struct {
	lookup AvatarLookup
}

func NewAvatarResolver(lookup AvatarLookup) *AvatarResolver {
	return &AvatarResolver{lookup: lookup}
}

// Resolve returns the social avatar of u if one is linked, else the email fallback.
func (r *AvatarResolver) Resolve(ctx context.Context, u *User) (Avatar, error) {
	if u == nil {
		return nil, ErrNoAuthor
	}
	if r != nil && r.lookup != nil {
		acc, err := r.lookup.FirstSocialAccount(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		if acc != nil {
			return SocialAvatar{Provider: acc.Provider, Picture: acc.AvatarURL}, nil
		}
	}
	return EmailAvatar{Email: u.Email}, nil
}
