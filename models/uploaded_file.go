package models

import "time"

// UploadKind selects the storage namespace of an upload.
type UploadKind string

const (
	UploadImages UploadKind = "images"
	UploadFiles  UploadKind = "files"
)

// Valid reports whether k is a known namespace.
func (k UploadKind) Valid() bool {
	return k == UploadImages || k == UploadFiles
}

// UploadedFile records a stored upload. ExpireAt is set until a post references the file;
// expired records are purged together with their files.
type UploadedFile struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:512;uniqueIndex;not null" json:"name"` // relative to the media root
	Kind      UploadKind `gorm:"size:16;not null" json:"kind"`
	Size      int64      `json:"size"`
	UserID    uint       `gorm:"index" json:"user_id"`
	ExpireAt  *time.Time `gorm:"index" json:"expire_at"`
	CreatedAt time.Time  `json:"created_at"`
}
