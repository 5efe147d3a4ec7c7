package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

// CategoryCount is a category with the number of posts filed under it.
type CategoryCount struct {
	models.Category
	PostCount int64 `json:"post_count"`
}

type TaxonomyRepository interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	TagBySlug(ctx context.Context, slug string) (*models.Tag, error)
	CreateTag(ctx context.Context, tag *models.Tag) error
	EnsureTags(ctx context.Context, names []string) ([]models.Tag, error)
	DeleteTag(ctx context.Context, id uint) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	CategoryByID(ctx context.Context, id uint) (*models.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}

type taxonomyRepository struct {
	db *gorm.DB
}

func NewTaxonomyRepository(db *gorm.DB) TaxonomyRepository {
	return &taxonomyRepository{db: db}
}

func (r *taxonomyRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := r.db.WithContext(ctx).Order("name").Find(&tags).Error
	return tags, err
}

func (r *taxonomyRepository) TagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}

// CreateTag inserts a tag; a taken name or slug yields ErrDuplicate and nothing is written.
func (r *taxonomyRepository) CreateTag(ctx context.Context, tag *models.Tag) error {
	if err := tag.Normalize(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, &models.Tag{}, tag.Name, tag.Slug); err != nil {
			return err
		}
		return translate(tx.Create(tag).Error)
	})
}

// EnsureTags returns the tags with the given names, creating the missing ones with a
// derived slug. Blank and repeated names are ignored.
func (r *taxonomyRepository) EnsureTags(ctx context.Context, names []string) ([]models.Tag, error) {
	tags := []models.Tag{}
	seen := map[string]bool{}
	seenID := map[uint]bool{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true

			tag := models.Tag{Name: name}
			if err := tag.Normalize(); err != nil {
				return err
			}
			var existing models.Tag
			err := tx.Where("name = ? OR slug = ?", tag.Name, tag.Slug).First(&existing).Error
			switch {
			case err == nil:
				tag = existing
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&tag).Error; err != nil {
					return translate(err)
				}
			default:
				return err
			}
			if !seenID[tag.ID] {
				seenID[tag.ID] = true
				tags = append(tags, tag)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// DeleteTag removes the tag and detaches it from its posts.
func (r *taxonomyRepository) DeleteTag(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag models.Tag
		if err := tx.First(&tag, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
}

func (r *taxonomyRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

func (r *taxonomyRepository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	counts := []CategoryCount{}
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Select("categories.id, categories.name, categories.slug, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN posts ON posts.category_id = categories.id").
		Group("categories.id, categories.name, categories.slug").
		Order("categories.name").
		Scan(&counts).Error
	return counts, err
}

func (r *taxonomyRepository) CategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *taxonomyRepository) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *taxonomyRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := category.Normalize(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, &models.Category{}, category.Name, category.Slug); err != nil {
			return err
		}
		return translate(tx.Create(category).Error)
	})
}

// DeleteCategory removes the category; its posts become uncategorised.
func (r *taxonomyRepository) DeleteCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			return translate(err)
		}
		err := tx.Model(&models.Post{}).
			Where("category_id = ?", category.ID).
			UpdateColumn("category_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
}

func ensureUnique(tx *gorm.DB, model interface{}, name, slug string) error {
	var n int64
	if err := tx.Model(model).Where("name = ? OR slug = ?", name, slug).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicate
	}
	return nil
}
