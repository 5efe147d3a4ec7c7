package controllers

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"time"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repositories"
	"github.com/cppla/aiblog/utils"
)

const summaryLength = 100

// linkView is a tag or category as shown in pages and the sidebar.
type linkView struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Count int64  `json:"count,omitempty"`
}

type postCard struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	HookText     string     `json:"hook_text"`
	Summary      string     `json:"summary"`
	URL          string     `json:"url"`
	HeadImageURL string     `json:"head_image_url"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AuthorName   string     `json:"author_name"`
	AvatarURL    string     `json:"avatar_url"`
	Category     *linkView  `json:"category"`
	Tags         []linkView `json:"tags"`
}

type commentView struct {
	ID         uint      `json:"id"`
	URL        string    `json:"url"`
	AuthorName string    `json:"author_name"`
	AvatarURL  string    `json:"avatar_url"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	Modified   bool      `json:"modified"`
}

type postDetail struct {
	postCard
	ContentHTML template.HTML `json:"content_html"`
	Modified    bool          `json:"modified"`
	FileURL     string        `json:"file_url"`
	FileName    string        `json:"file_name"`
	FileIcon    string        `json:"file_icon"`
	Comments    []commentView `json:"comments"`
}

// viewBuilder turns models into the values templates and JSON responses need.
type viewBuilder struct {
	avatars *models.AvatarResolver
	storage *utils.Storage
}

func (b viewBuilder) card(ctx context.Context, p *models.Post) (postCard, error) {
	card := postCard{
		ID:           p.ID,
		Title:        p.Title,
		HookText:     p.HookText,
		Summary:      p.Summary(summaryLength),
		URL:          p.AbsoluteURL(),
		HeadImageURL: b.storage.URL(p.HeadImage),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Tags:         make([]linkView, 0, len(p.Tags)),
	}
	name, avatar, err := b.author(ctx, p.Author, p.AuthorAvatarURL)
	if err != nil {
		return card, err
	}
	card.AuthorName, card.AvatarURL = name, avatar
	if p.Category != nil {
		card.Category = &linkView{Name: p.Category.Name, URL: p.Category.AbsoluteURL()}
	}
	for i := range p.Tags {
		card.Tags = append(card.Tags, linkView{Name: p.Tags[i].Name, URL: p.Tags[i].AbsoluteURL()})
	}
	return card, nil
}

func (b viewBuilder) cards(ctx context.Context, posts []models.Post) ([]postCard, error) {
	cards := make([]postCard, 0, len(posts))
	for i := range posts {
		card, err := b.card(ctx, &posts[i])
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (b viewBuilder) detail(ctx context.Context, p *models.Post) (*postDetail, error) {
	card, err := b.card(ctx, p)
	if err != nil {
		return nil, err
	}
	html, err := p.RenderContentHTML()
	if err != nil {
		return nil, err
	}
	d := &postDetail{
		postCard:    card,
		ContentHTML: template.HTML(html),
		Modified:    p.UpdatedAt.Sub(p.CreatedAt) > time.Second,
		Comments:    make([]commentView, 0, len(p.Comments)),
	}
	if name, err := p.UploadedFileName(); err == nil {
		d.FileURL = b.storage.URL(p.FileUpload)
		d.FileName = name
		ext, _ := p.UploadedFileExtension()
		d.FileIcon = fileIcon(ext)
	}
	for i := range p.Comments {
		cv, err := b.comment(ctx, &p.Comments[i])
		if err != nil {
			return nil, err
		}
		d.Comments = append(d.Comments, cv)
	}
	return d, nil
}

func (b viewBuilder) comment(ctx context.Context, c *models.Comment) (commentView, error) {
	cv := commentView{
		ID:         c.ID,
		URL:        c.AbsoluteURL(),
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
		ModifiedAt: c.ModifiedAt,
		Modified:   c.IsModified(),
	}
	name, avatar, err := b.author(ctx, c.Author, c.AuthorAvatarURL)
	if err != nil {
		return cv, err
	}
	cv.AuthorName, cv.AvatarURL = name, avatar
	return cv, nil
}

// author resolves display name and avatar; a deleted author shows as "None" without avatar.
func (b viewBuilder) author(ctx context.Context, u *models.User, avatar func(context.Context, *models.AvatarResolver) (string, error)) (string, string, error) {
	url, err := avatar(ctx, b.avatars)
	if errors.Is(err, models.ErrNoAuthor) {
		return "None", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return u.Username, url, nil
}

func categoryLinks(counts []repositories.CategoryCount) []linkView {
	links := make([]linkView, 0, len(counts))
	for i := range counts {
		links = append(links, linkView{
			Name:  counts[i].Name,
			URL:   counts[i].AbsoluteURL(),
			Count: counts[i].PostCount,
		})
	}
	return links
}

// fileIcon picks the icon class shown next to a download link.
func fileIcon(ext string) string {
	switch strings.ToLower(ext) {
	case "pdf":
		return "fa-file-pdf"
	case "xls", "xlsx", "csv":
		return "fa-file-excel"
	case "doc", "docx":
		return "fa-file-word"
	case "ppt", "pptx":
		return "fa-file-powerpoint"
	case "zip", "gz", "tar", "7z", "rar":
		return "fa-file-archive"
	case "png", "jpg", "jpeg", "gif", "webp", "svg":
		return "fa-file-image"
	case "txt", "md":
		return "fa-file-alt"
	default:
		return "fa-file"
	}
}
