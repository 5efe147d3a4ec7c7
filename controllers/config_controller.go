package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// ConfigController serves the public, non-secret part of the configuration to clients.
type ConfigController struct {
	cfg config.AppConfig
}

func NewConfigController(cfg config.AppConfig) *ConfigController { return &ConfigController{cfg: cfg} }

// GetSite returns the settings an editor client needs: title, media and upload limits and
// the OAuth providers that are configured.
func (c *ConfigController) GetSite(ctx *gin.Context) {
	providers := []string{}
	if c.cfg.GitHubClientID != "" && c.cfg.GitHubClientSecret != "" {
		providers = append(providers, "github")
	}
	if c.cfg.GoogleClientID != "" && c.cfg.GoogleClientSecret != "" {
		providers = append(providers, "google")
	}
	utils.Success(ctx, gin.H{
		"site_title":         c.cfg.SiteTitle,
		"media_url":          c.cfg.MediaURL,
		"upload_max_mb":      c.cfg.UploadMaxMB,
		"upload_kinds":       []models.UploadKind{models.UploadImages, models.UploadFiles},
		"landing_post_count": c.cfg.LandingPostCount,
		"page_size":          c.cfg.BlogPageSize,
		"oauth_providers":    providers,
		"category_title":     models.CategoryPluralName,
	})
}
