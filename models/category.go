package models

import (
	"gorm.io/gorm"

	"github.com/cppla/aiblog/utils"
)

// CategoryPluralName is the display name of the category collection.
const CategoryPluralName = "Categories"

// NoCategorySlug addresses the listing of posts without a category.
const NoCategorySlug = "no_category"

// Category groups posts; a post belongs to at most one category.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:20;uniqueIndex;not null" json:"name"`
	Slug string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
}

func (c *Category) String() string {
	return c.Name
}

// AbsoluteURL returns the path of the category listing page.
func (c *Category) AbsoluteURL() string {
	return "/blog/category/" + c.Slug
}

// Normalize works like Tag.Normalize and additionally reserves NoCategorySlug.
func (c *Category) Normalize() error {
	c.Name, c.Slug = normalizeTaxonomy(c.Name, c.Slug)
	if !utils.IsValidSlug(c.Slug) || c.Slug == NoCategorySlug {
		return ErrInvalidSlug
	}
	return nil
}

func (c *Category) BeforeSave(tx *gorm.DB) error {
	return c.Normalize()
}
