package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repositories"
	"github.com/cppla/aiblog/utils"
)

// TaxonomyController exposes tags and categories.
type TaxonomyController struct {
	taxonomy repositories.TaxonomyRepository
	posts    repositories.PostRepository
}

func NewTaxonomyController(taxonomy repositories.TaxonomyRepository, posts repositories.PostRepository) *TaxonomyController {
	return &TaxonomyController{taxonomy: taxonomy, posts: posts}
}

type taxonomyRequest struct {
	Name string `json:"name" binding:"required,max=20"`
	Slug string `json:"slug" binding:"max=100"`
}

// ListTags returns every tag with its page URL.
func (t *TaxonomyController) ListTags(ctx *gin.Context) {
	tags, err := t.taxonomy.ListTags(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to list tags")
		return
	}
	items := make([]gin.H, 0, len(tags))
	for i := range tags {
		items = append(items, gin.H{"id": tags[i].ID, "name": tags[i].Name, "slug": tags[i].Slug, "url": tags[i].AbsoluteURL()})
	}
	utils.Success(ctx, gin.H{"items": items})
}

// ListCategories returns categories with post counts and the uncategorised count.
func (t *TaxonomyController) ListCategories(ctx *gin.Context) {
	counts, err := t.taxonomy.CategoryCounts(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to list categories")
		return
	}
	uncategorized, err := t.posts.CountUncategorized(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to count posts")
		return
	}
	items := make([]gin.H, 0, len(counts))
	for i := range counts {
		items = append(items, gin.H{
			"id":         counts[i].ID,
			"name":       counts[i].Name,
			"slug":       counts[i].Slug,
			"url":        counts[i].AbsoluteURL(),
			"post_count": counts[i].PostCount,
		})
	}
	utils.Success(ctx, gin.H{
		"title":             models.CategoryPluralName,
		"items":             items,
		"no_category_count": uncategorized,
	})
}

// CreateTag adds a tag; the slug is derived from the name when omitted.
func (t *TaxonomyController) CreateTag(ctx *gin.Context) {
	var req taxonomyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	tag := models.Tag{Name: req.Name, Slug: req.Slug}
	if err := t.taxonomy.CreateTag(ctx.Request.Context(), &tag); err != nil {
		respondTaxonomyError(ctx, err, 50043)
		return
	}
	utils.Created(ctx, gin.H{"tag": tag, "url": tag.AbsoluteURL()})
}

// DeleteTag removes a tag from every post and deletes it.
func (t *TaxonomyController) DeleteTag(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := t.taxonomy.DeleteTag(ctx.Request.Context(), id); err != nil {
		respondRepoError(ctx, err, 40412, "tag not found", 50044)
		return
	}
	invalidateAllCaches(ctx.Request.Context())
	utils.Success(ctx, gin.H{"message": "tag deleted"})
}

func (t *TaxonomyController) CreateCategory(ctx *gin.Context) {
	var req taxonomyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}
	category := models.Category{Name: req.Name, Slug: req.Slug}
	if err := t.taxonomy.CreateCategory(ctx.Request.Context(), &category); err != nil {
		respondTaxonomyError(ctx, err, 50045)
		return
	}
	utils.Created(ctx, gin.H{"category": category, "url": category.AbsoluteURL()})
}

// DeleteCategory deletes a category; its posts become uncategorised.
func (t *TaxonomyController) DeleteCategory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := t.taxonomy.DeleteCategory(ctx.Request.Context(), id); err != nil {
		respondRepoError(ctx, err, 40413, "category not found", 50046)
		return
	}
	invalidateAllCaches(ctx.Request.Context())
	utils.Success(ctx, gin.H{"message": "category deleted"})
}

func respondTaxonomyError(ctx *gin.Context, err error, internalCode int) {
	switch {
	case errors.Is(err, repositories.ErrDuplicate):
		utils.Error(ctx, http.StatusConflict, 40901, "name or slug already exists")
	case errors.Is(err, models.ErrInvalidSlug):
		utils.Error(ctx, http.StatusBadRequest, 40042, "slug may only contain letters, numbers, underscores or hyphens")
	default:
		_ = ctx.Error(err)
		utils.Error(ctx, http.StatusInternalServerError, internalCode, "internal error")
	}
}
