package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/aiblog/models"
)

// PostFilter narrows a post listing. CategorySlug models.NoCategorySlug selects posts
// without a category.
type PostFilter struct {
	TagSlug      string
	CategorySlug string
	Page         int
	PageSize     int
}

// PostPage is one page of a post listing, newest first.
type PostPage struct {
	Items    []models.Post
	Total    int64
	Page     int
	PageSize int
}

// TotalPages returns the number of pages for the listing, at least 1.
func (p *PostPage) TotalPages() int {
	if p.PageSize <= 0 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

type PostRepository interface {
	RecentPosts(ctx context.Context, limit int) ([]models.Post, error)
	List(ctx context.Context, filter PostFilter) (*PostPage, error)
	Get(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) (*models.Post, error)
	CountUncategorized(ctx context.Context) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// RecentPosts returns up to limit posts with the highest ids, newest first.
func (r *postRepository) RecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	posts := make([]models.Post, 0, limit)
	if limit <= 0 {
		return posts, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Order("posts.id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) (*PostPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}

	query := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.TagSlug != "" {
		query = query.
			Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.slug = ?", filter.TagSlug)
	}
	switch filter.CategorySlug {
	case "":
	case models.NoCategorySlug:
		query = query.Where("posts.category_id IS NULL")
	default:
		query = query.
			Joins("JOIN categories ON categories.id = posts.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}

	query = query.Session(&gorm.Session{})

	page := &PostPage{Items: []models.Post{}, Page: filter.Page, PageSize: filter.PageSize}
	if err := query.Count(&page.Total).Error; err != nil {
		return nil, err
	}

	err := query.
		Preload("Author").
		Preload("Category").
		Preload("Tags").
		Order("posts.id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&page.Items).Error
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Get loads a post with its author, category, tags and comments (oldest first).
func (r *postRepository) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("comments.id") }).
		Preload("Comments.Author").
		First(&post, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// Create inserts the post, links post.Tags (which must already exist) and claims the
// uploads the post references. A set AuthorID must name an existing user.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if post.AuthorID != nil {
			if err := requireUser(tx, *post.AuthorID); err != nil {
				return err
			}
		}
		tags := post.Tags
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return translate(err)
		}
		if err := replaceTags(tx, post, tags); err != nil {
			return err
		}
		return claimUploads(tx, post)
	})
}

// Update writes the editable fields of post and replaces its tags. CreatedAt is never
// written; UpdatedAt is refreshed.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags := post.Tags
		res := tx.Model(post).
			Select("Title", "HookText", "Content", "HeadImage", "FileUpload", "CategoryID").
			Updates(post)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := replaceTags(tx, post, tags); err != nil {
			return err
		}
		return claimUploads(tx, post)
	})
}

// Delete removes a post together with its comments and tag links, and marks its uploads
// as expired so the cleaner removes the files.
func (r *postRepository) Delete(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		if names := uploadNames(&post); len(names) > 0 {
			return tx.Model(&models.UploadedFile{}).
				Where("name IN ?", names).
				Update("expire_at", tx.NowFunc()).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) CountUncategorized(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("category_id IS NULL").Count(&n).Error
	return n, err
}

func replaceTags(tx *gorm.DB, post *models.Post, tags []models.Tag) error {
	if len(tags) == 0 {
		post.Tags = []models.Tag{}
		return tx.Model(post).Association("Tags").Clear()
	}
	return tx.Model(post).Association("Tags").Replace(tags)
}

// claimUploads clears the expiry of the uploads referenced by post.
func claimUploads(tx *gorm.DB, post *models.Post) error {
	names := uploadNames(post)
	if len(names) == 0 {
		return nil
	}
	return tx.Model(&models.UploadedFile{}).
		Where("name IN ?", names).
		Update("expire_at", nil).Error
}

func uploadNames(post *models.Post) []string {
	var names []string
	for _, n := range []string{post.HeadImage, post.FileUpload} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}
