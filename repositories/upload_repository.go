package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

// FileRemover deletes stored files by name.
type FileRemover interface {
	Delete(name string) error
}

type UploadRepository interface {
	Record(ctx context.Context, file *models.UploadedFile) error
	PurgeExpired(ctx context.Context, files FileRemover, limit int) (int, error)
}

type uploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Record(ctx context.Context, file *models.UploadedFile) error {
	return translate(r.db.WithContext(ctx).Create(file).Error)
}

// PurgeExpired deletes up to limit uploads whose expiry has passed, files first. Records
// whose file could not be removed are kept for the next run.
func (r *uploadRepository) PurgeExpired(ctx context.Context, files FileRemover, limit int) (int, error) {
	db := r.db.WithContext(ctx)
	var expired []models.UploadedFile
	err := db.Where("expire_at IS NOT NULL AND expire_at <= ?", db.NowFunc()).
		Order("id").
		Limit(limit).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}

	ids := make([]uint, 0, len(expired))
	var firstErr error
	for _, f := range expired {
		if err := files.Delete(f.Name); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		ids = append(ids, f.ID)
	}
	if len(ids) > 0 {
		if err := db.Delete(&models.UploadedFile{}, ids).Error; err != nil {
			return 0, err
		}
	}
	return len(ids), firstErr
}
