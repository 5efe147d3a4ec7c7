package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repositories"
	"github.com/cppla/aiblog/utils"
)

// PageController renders the public HTML pages.
type PageController struct {
	posts        repositories.PostRepository
	taxonomy     repositories.TaxonomyRepository
	views        viewBuilder
	site         string
	landingCount int
	pageSize     int
}

// NewPageController creates a new PageController instance.
func NewPageController(posts repositories.PostRepository, taxonomy repositories.TaxonomyRepository, avatars *models.AvatarResolver, storage *utils.Storage, cfg config.AppConfig) *PageController {
	return &PageController{
		posts:        posts,
		taxonomy:     taxonomy,
		views:        viewBuilder{avatars: avatars, storage: storage},
		site:         cfg.SiteTitle,
		landingCount: cfg.LandingPostCount,
		pageSize:     cfg.BlogPageSize,
	}
}

// Landing shows the most recent posts.
func (p *PageController) Landing(ctx *gin.Context) {
	cacheKey := fmt.Sprintf("%scount=%d", utils.CacheKeyLanding, p.landingCount)
	var cards []postCard
	if !utils.CacheGetJSON(ctx.Request.Context(), cacheKey, &cards) {
		posts, err := p.posts.RecentPosts(ctx.Request.Context(), p.landingCount)
		if err != nil {
			p.fail(ctx, err)
			return
		}
		if cards, err = p.views.cards(ctx.Request.Context(), posts); err != nil {
			p.fail(ctx, err)
			return
		}
		utils.CacheSetJSON(ctx.Request.Context(), cacheKey, cards, 0)
	}
	p.render(ctx, http.StatusOK, "landing.html", gin.H{"Posts": cards})
}

// About renders the static about page.
func (p *PageController) About(ctx *gin.Context) {
	p.render(ctx, http.StatusOK, "about_me.html", gin.H{"Title": "About Me"})
}

// BlogList lists every post, newest first.
func (p *PageController) BlogList(ctx *gin.Context) {
	p.list(ctx, repositories.PostFilter{}, "")
}

// TagPosts lists the posts carrying a tag.
func (p *PageController) TagPosts(ctx *gin.Context) {
	tag, err := p.taxonomy.TagBySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		p.fail(ctx, err)
		return
	}
	p.list(ctx, repositories.PostFilter{TagSlug: tag.Slug}, "#"+tag.Name)
}

// CategoryPosts lists the posts of a category, or the uncategorised ones for no_category.
func (p *PageController) CategoryPosts(ctx *gin.Context) {
	slug := ctx.Param("slug")
	if slug == models.NoCategorySlug {
		p.list(ctx, repositories.PostFilter{CategorySlug: slug}, "Uncategorized")
		return
	}
	category, err := p.taxonomy.CategoryBySlug(ctx.Request.Context(), slug)
	if err != nil {
		p.fail(ctx, err)
		return
	}
	p.list(ctx, repositories.PostFilter{CategorySlug: category.Slug}, category.Name)
}

// BlogDetail renders one post with its comments.
func (p *PageController) BlogDetail(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		p.fail(ctx, repositories.ErrNotFound)
		return
	}

	cacheKey := utils.PostDetailKey(uint(id))
	var detail *postDetail
	if !utils.CacheGetJSON(ctx.Request.Context(), cacheKey, &detail) || detail == nil {
		post, err := p.posts.Get(ctx.Request.Context(), uint(id))
		if err != nil {
			p.fail(ctx, err)
			return
		}
		if detail, err = p.views.detail(ctx.Request.Context(), post); err != nil {
			p.fail(ctx, err)
			return
		}
		utils.CacheSetJSON(ctx.Request.Context(), cacheKey, detail, 0)
	}

	data, err := p.sidebar(ctx)
	if err != nil {
		p.fail(ctx, err)
		return
	}
	data["Title"] = detail.Title
	data["Post"] = detail
	p.render(ctx, http.StatusOK, "post_detail.html", data)
}

// NotFound renders the error page for unknown routes.
func (p *PageController) NotFound(ctx *gin.Context) {
	p.fail(ctx, repositories.ErrNotFound)
}

func (p *PageController) list(ctx *gin.Context, filter repositories.PostFilter, heading string) {
	filter.Page, _ = strconv.Atoi(ctx.Query("page"))
	filter.PageSize = p.pageSize
	page, err := p.posts.List(ctx.Request.Context(), filter)
	if err != nil {
		p.fail(ctx, err)
		return
	}
	cards, err := p.views.cards(ctx.Request.Context(), page.Items)
	if err != nil {
		p.fail(ctx, err)
		return
	}

	data, err := p.sidebar(ctx)
	if err != nil {
		p.fail(ctx, err)
		return
	}
	data["Title"] = "Blog"
	data["Heading"] = heading
	data["Posts"] = cards
	data["Page"] = page.Page
	data["TotalPages"] = page.TotalPages()
	p.render(ctx, http.StatusOK, "post_list.html", data)
}

func (p *PageController) sidebar(ctx *gin.Context) (gin.H, error) {
	counts, err := p.taxonomy.CategoryCounts(ctx.Request.Context())
	if err != nil {
		return nil, err
	}
	uncategorized, err := p.posts.CountUncategorized(ctx.Request.Context())
	if err != nil {
		return nil, err
	}
	return gin.H{
		"CategoryTitle":   models.CategoryPluralName,
		"Categories":      categoryLinks(counts),
		"NoCategoryCount": uncategorized,
	}, nil
}

func (p *PageController) render(ctx *gin.Context, status int, name string, data gin.H) {
	data["Site"] = p.site
	ctx.HTML(status, name, data)
}

// fail renders the error page: 404 for missing records, 500 otherwise.
func (p *PageController) fail(ctx *gin.Context, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		p.render(ctx, http.StatusNotFound, "error.html", gin.H{
			"Title": "Not Found", "Status": http.StatusNotFound, "Message": "The page you requested does not exist.",
		})
		return
	}
	_ = ctx.Error(err)
	utils.Sugar.Errorf("render %s failed: %v", ctx.Request.URL.Path, err)
	p.render(ctx, http.StatusInternalServerError, "error.html", gin.H{
		"Title": "Error", "Status": http.StatusInternalServerError, "Message": "Something went wrong.",
	})
}
