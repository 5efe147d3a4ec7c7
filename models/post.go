package models

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cppla/aiblog/utils"
)

// Post is a blog article. Content is Markdown; HeadImage and FileUpload hold stored upload
// names relative to the media root and are empty when nothing was uploaded.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:30;not null" json:"title"`
	HookText   string    `gorm:"size:100" json:"hook_text"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	HeadImage  string    `gorm:"size:512" json:"head_image"`
	FileUpload string    `gorm:"size:512" json:"file_upload"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	AuthorID   *uint     `gorm:"index" json:"author_id"`
	Author     *User     `json:"author,omitempty"`
	CategoryID *uint     `gorm:"index" json:"category_id"`
	Category   *Category `json:"category,omitempty"`
	Tags       []Tag     `gorm:"many2many:post_tags;" json:"tags"`
	Comments   []Comment `json:"-"`
}

// String is the label used in administrative listings: "[id] title :: author".
func (p *Post) String() string {
	author := "None"
	if p.Author != nil {
		author = p.Author.Username
	}
	return fmt.Sprintf("[%d] %s :: %s", p.ID, p.Title, author)
}

// AbsoluteURL returns the path of the post detail page.
func (p *Post) AbsoluteURL() string {
	return fmt.Sprintf("/blog/%d", p.ID)
}

func (p *Post) HasFile() bool {
	return p.FileUpload != ""
}

func (p *Post) HasHeadImage() bool {
	return p.HeadImage != ""
}

// UploadedFileName returns the attachment name without its storage directory.
func (p *Post) UploadedFileName() (string, error) {
	if !p.HasFile() {
		return "", ErrNoFileUploaded
	}
	return path.Base(p.FileUpload), nil
}

// UploadedFileExtension returns the part of the attachment name after the last dot.
// A name without a dot, or ending in one, yields ErrNoFileExtension.
func (p *Post) UploadedFileExtension() (string, error) {
	name, err := p.UploadedFileName()
	if err != nil {
		return "", err
	}
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return "", ErrNoFileExtension
	}
	return name[i+1:], nil
}

// RenderContentHTML converts the Markdown content to sanitized HTML.
func (p *Post) RenderContentHTML() (string, error) {
	return utils.RenderMarkdown(p.Content)
}

// AuthorAvatarURL resolves the author's avatar; ErrNoAuthor once the author is gone.
func (p *Post) AuthorAvatarURL(ctx context.Context, r *AvatarResolver) (string, error) {
	avatar, err := r.Resolve(ctx, p.Author)
	if err != nil {
		return "", err
	}
	return avatar.URL(), nil
}

// Summary returns the hook text, or the first n characters of the content.
func (p *Post) Summary(n int) string {
	if p.HookText != "" {
		return p.HookText
	}
	if utf8.RuneCountInString(p.Content) <= n {
		return p.Content
	}
	return string([]rune(p.Content)[:n]) + "..."
}
