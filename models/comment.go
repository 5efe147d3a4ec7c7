package models

import (
	"context"
	"fmt"
	"time"
)

// Comment is a plain-text reply to a post. It is removed together with its post and with
// its author.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"index;not null" json:"post_id"`
	Post       *Post     `json:"-"`
	AuthorID   uint      `gorm:"index;not null" json:"author_id"`
	Author     *User     `json:"author,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	ModifiedAt time.Time `gorm:"autoUpdateTime" json:"modified_at"`
}

func (c *Comment) String() string {
	author := ""
	if c.Author != nil {
		author = c.Author.Username
	}
	return author + "::" + c.Content
}

// AbsoluteURL points at the comment anchor on its post page.
func (c *Comment) AbsoluteURL() string {
	return fmt.Sprintf("/blog/%d#comment-%d", c.PostID, c.ID)
}

// IsModified reports whether the comment was edited after creation.
func (c *Comment) IsModified() bool {
	return c.ModifiedAt.After(c.CreatedAt)
}

// AuthorAvatarURL resolves the author's avatar with the same rules as posts.
func (c *Comment) AuthorAvatarURL(ctx context.Context, r *AvatarResolver) (string, error) {
	avatar, err := r.Resolve(ctx, c.Author)
	if err != nil {
		return "", err
	}
	return avatar.URL(), nil
}
