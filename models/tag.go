package models

import (
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/utils"
)

// Tag is a label attached to any number of posts.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:20;uniqueIndex;not null" json:"name"`
	Slug string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
}

func (t *Tag) String() string {
	return t.Name
}

// AbsoluteURL returns the path of the tag listing page.
func (t *Tag) AbsoluteURL() string {
	return "/blog/tag/" + t.Slug
}

// Normalize trims the name, derives a missing slug from it and rejects invalid slugs.
func (t *Tag) Normalize() error {
	t.Name, t.Slug = normalizeTaxonomy(t.Name, t.Slug)
	if !utils.IsValidSlug(t.Slug) {
		return ErrInvalidSlug
	}
	return nil
}

func (t *Tag) BeforeSave(tx *gorm.DB) error {
	return t.Normalize()
}

func normalizeTaxonomy(name, slug string) (string, string) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = utils.Slugify(name)
	}
	return name, slug
}
