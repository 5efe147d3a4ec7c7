package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repositories"
	"github.com/cppla/aiblog/utils"
)

// PostController manages CRUD operations for posts and comments.
type PostController struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	taxonomy repositories.TaxonomyRepository
	views    viewBuilder
	pageSize int
}

// NewPostController creates a new PostController instance.
func NewPostController(posts repositories.PostRepository, comments repositories.CommentRepository, taxonomy repositories.TaxonomyRepository, avatars *models.AvatarResolver, storage *utils.Storage, cfg config.AppConfig) *PostController {
	return &PostController{
		posts:    posts,
		comments: comments,
		taxonomy: taxonomy,
		views:    viewBuilder{avatars: avatars, storage: storage},
		pageSize: cfg.BlogPageSize,
	}
}

type postRequest struct {
	Title      string   `json:"title" binding:"required,max=30"`
	HookText   string   `json:"hook_text" binding:"max=100"`
	Content    string   `json:"content" binding:"required"`
	HeadImage  string   `json:"head_image" binding:"max=512"`
	FileUpload string   `json:"file_upload" binding:"max=512"`
	Category   string   `json:"category"` // category slug, empty for none
	Tags       []string `json:"tags" binding:"max=20,dive,max=20"`
}

type commentRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

// ListPosts returns paginated posts, optionally filtered by tag or category slug.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"), p.pageSize)
	filter := repositories.PostFilter{
		TagSlug:      strings.TrimSpace(ctx.Query("tag")),
		CategorySlug: strings.TrimSpace(ctx.Query("category")),
		Page:         page,
		PageSize:     pageSize,
	}

	cacheKey := fmt.Sprintf("%stag=%s:cat=%s:page=%d:size=%d", utils.CacheKeyPostList, filter.TagSlug, filter.CategorySlug, page, pageSize)
	var payload gin.H
	if utils.CacheGetJSON(ctx.Request.Context(), cacheKey, &payload) {
		utils.Success(ctx, payload)
		return
	}

	if filter.TagSlug != "" {
		if _, err := p.taxonomy.TagBySlug(ctx.Request.Context(), filter.TagSlug); err != nil {
			respondRepoError(ctx, err, 40410, "tag not found", 50010)
			return
		}
	}
	if filter.CategorySlug != "" && filter.CategorySlug != models.NoCategorySlug {
		if _, err := p.taxonomy.CategoryBySlug(ctx.Request.Context(), filter.CategorySlug); err != nil {
			respondRepoError(ctx, err, 40411, "category not found", 50011)
			return
		}
	}

	result, err := p.posts.List(ctx.Request.Context(), filter)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to list posts")
		return
	}
	cards, err := p.views.cards(ctx.Request.Context(), result.Items)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to render posts")
		return
	}

	payload = gin.H{
		"items": cards,
		"pagination": gin.H{
			"page":        result.Page,
			"page_size":   result.PageSize,
			"total":       result.Total,
			"total_pages": result.TotalPages(),
		},
	}
	utils.CacheSetJSON(ctx.Request.Context(), cacheKey, payload, 0)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with rendered content and comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	cacheKey := utils.PostDetailKey(id)
	var detail *postDetail
	if utils.CacheGetJSON(ctx.Request.Context(), cacheKey, &detail) && detail != nil {
		utils.Success(ctx, gin.H{"post": detail})
		return
	}

	detail, err := p.loadDetail(ctx.Request.Context(), id)
	if err != nil {
		respondRepoError(ctx, err, 40401, "post not found", 50014)
		return
	}
	utils.CacheSetJSON(ctx.Request.Context(), cacheKey, detail, 0)
	utils.Success(ctx, gin.H{"post": detail})
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.Post{AuthorID: &userID}
	if !p.applyRequest(ctx, &post, req) {
		return
	}
	if err := p.posts.Create(ctx.Request.Context(), &post); err != nil {
		respondRepoError(ctx, err, 40405, "post not found", 50020)
		return
	}
	invalidatePostCaches(ctx.Request.Context(), post.ID)

	detail, err := p.loadDetail(ctx.Request.Context(), post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load post")
		return
	}
	utils.Created(ctx, gin.H{"post": detail})
}

// UpdatePost allows the author to update their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	post, err := p.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		respondRepoError(ctx, err, 40403, "post not found", 50025)
		return
	}

	userID, _ := middleware.CurrentUserID(ctx)
	if post.AuthorID == nil || *post.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own posts")
		return
	}

	if !p.applyRequest(ctx, post, req) {
		return
	}
	if err := p.posts.Update(ctx.Request.Context(), post); err != nil {
		respondRepoError(ctx, err, 40403, "post not found", 50026)
		return
	}
	invalidatePostCaches(ctx.Request.Context(), post.ID)

	detail, err := p.loadDetail(ctx.Request.Context(), post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load post")
		return
	}
	utils.Success(ctx, gin.H{"post": detail})
}

// DeletePost allows the author or an admin to delete a post with its comments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	post, err := p.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		respondRepoError(ctx, err, 40404, "post not found", 50028)
		return
	}

	userID, _ := middleware.CurrentUserID(ctx)
	owner := post.AuthorID != nil && *post.AuthorID == userID
	if !owner && !middleware.IsAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own posts")
		return
	}

	if _, err := p.posts.Delete(ctx.Request.Context(), id); err != nil {
		respondRepoError(ctx, err, 40404, "post not found", 50029)
		return
	}
	invalidatePostCaches(ctx.Request.Context(), id)
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// CreateComment allows authenticated users to comment on posts.
func (p *PostController) CreateComment(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "content cannot be empty")
		return
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment := models.Comment{PostID: postID, AuthorID: userID, Content: content}
	if err := p.comments.Create(ctx.Request.Context(), &comment); err != nil {
		respondRepoError(ctx, err, 40402, "post not found", 50024)
		return
	}
	utils.CacheDelete(ctx.Request.Context(), utils.PostDetailKey(postID))

	view, err := p.views.comment(ctx.Request.Context(), &comment)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load comment")
		return
	}
	utils.Created(ctx, gin.H{"comment": view})
}

// UpdateComment lets the author edit a comment.
func (p *PostController) UpdateComment(ctx *gin.Context) {
	id, ok := parseID(ctx, "commentId")
	if !ok {
		return
	}
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40071, "invalid request payload")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40072, "content cannot be empty")
		return
	}

	comment, err := p.comments.Get(ctx.Request.Context(), id)
	if err != nil {
		respondRepoError(ctx, err, 40420, "comment not found", 50072)
		return
	}
	userID, _ := middleware.CurrentUserID(ctx)
	if comment.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40321, "you can only edit your own comment")
		return
	}

	comment.Content = content
	if err := p.comments.Update(ctx.Request.Context(), comment); err != nil {
		respondRepoError(ctx, err, 40420, "comment not found", 50073)
		return
	}
	utils.CacheDelete(ctx.Request.Context(), utils.PostDetailKey(comment.PostID))

	view, err := p.views.comment(ctx.Request.Context(), comment)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50074, "failed to load comment")
		return
	}
	utils.Success(ctx, gin.H{"comment": view})
}

// DeleteComment allows the comment owner or admin to delete a comment
func (p *PostController) DeleteComment(ctx *gin.Context) {
	id, ok := parseID(ctx, "commentId")
	if !ok {
		return
	}
	comment, err := p.comments.Get(ctx.Request.Context(), id)
	if err != nil {
		respondRepoError(ctx, err, 40420, "comment not found", 50070)
		return
	}

	userID, _ := middleware.CurrentUserID(ctx)
	if comment.AuthorID != userID && !middleware.IsAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only delete your own comment")
		return
	}
	if _, err := p.comments.Delete(ctx.Request.Context(), id); err != nil {
		respondRepoError(ctx, err, 40420, "comment not found", 50071)
		return
	}
	utils.CacheDelete(ctx.Request.Context(), utils.PostDetailKey(comment.PostID))
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

func (p *PostController) loadDetail(ctx context.Context, id uint) (*postDetail, error) {
	post, err := p.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.views.detail(ctx, post)
}

// applyRequest copies a validated request onto post, resolving category and tags. It
// writes the error response and returns false when the request cannot be applied.
func (p *PostController) applyRequest(ctx *gin.Context, post *models.Post, req postRequest) bool {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return false
	}
	if !validUploadName(req.HeadImage) || !validUploadName(req.FileUpload) {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid upload reference")
		return false
	}

	post.Title = title
	post.HookText = strings.TrimSpace(req.HookText)
	post.Content = req.Content
	post.HeadImage = req.HeadImage
	post.FileUpload = req.FileUpload
	post.CategoryID = nil
	post.Category = nil

	if slug := strings.TrimSpace(req.Category); slug != "" {
		category, err := p.taxonomy.CategoryBySlug(ctx.Request.Context(), slug)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				utils.Error(ctx, http.StatusBadRequest, 40022, "invalid category")
			} else {
				utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load category")
			}
			return false
		}
		post.CategoryID = &category.ID
	}

	tags, err := p.taxonomy.EnsureTags(ctx.Request.Context(), req.Tags)
	if err != nil {
		if errors.Is(err, models.ErrInvalidSlug) {
			utils.Error(ctx, http.StatusBadRequest, 40026, "invalid tag name")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to save tags")
		}
		return false
	}
	post.Tags = tags
	return true
}

// validUploadName accepts empty or a clean name inside the blog upload namespace.
func validUploadName(name string) bool {
	if name == "" {
		return true
	}
	return strings.HasPrefix(name, "blog/") && path.Clean(name) == name && !strings.Contains(name, "..")
}

func invalidatePostCaches(ctx context.Context, id uint) {
	utils.InvalidateByPrefix(ctx, utils.CacheKeyLanding)
	utils.InvalidateByPrefix(ctx, utils.CacheKeyPostList)
	utils.CacheDelete(ctx, utils.PostDetailKey(id))
}

func invalidateAllCaches(ctx context.Context) {
	utils.InvalidateByPrefix(ctx, utils.CacheKeyLanding)
	utils.InvalidateByPrefix(ctx, utils.CacheKeyPostList)
	utils.InvalidateByPrefix(ctx, utils.CacheKeyPostDetail)
}

// respondRepoError maps repository errors to a JSON error response.
func respondRepoError(ctx *gin.Context, err error, notFoundCode int, notFoundMsg string, internalCode int) {
	switch {
	case errors.Is(err, repositories.ErrAuthorNotFound):
		utils.Error(ctx, http.StatusUnauthorized, 40120, "account no longer exists")
	case errors.Is(err, repositories.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, notFoundCode, notFoundMsg)
	case errors.Is(err, repositories.ErrDuplicate):
		utils.Error(ctx, http.StatusConflict, 40900, "already exists")
	default:
		_ = ctx.Error(err)
		utils.Error(ctx, http.StatusInternalServerError, internalCode, "internal error")
	}
}

func parseID(ctx *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func parsePagination(pageStr, sizeStr string, defaultSize int) (int, int) {
	page := 1
	pageSize := defaultSize
	if pageSize <= 0 {
		pageSize = 10
	}
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}
