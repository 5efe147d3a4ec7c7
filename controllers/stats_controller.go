package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// StatsController provides blog statistics such as counts and today's page views.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the blog.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())
	counts := gin.H{}
	for key, model := range map[string]interface{}{
		"post_count":     &models.Post{},
		"comment_count":  &models.Comment{},
		"tag_count":      &models.Tag{},
		"category_count": &models.Category{},
		"user_count":     &models.User{},
	} {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			// Fallback to 0 instead of failing the whole endpoint
			utils.Sugar.Warnf("stats count %s failed: %v", key, err)
			n = 0
		}
		counts[key] = n
	}

	// Today's page views summed across paths, using the same local-midnight key the recorder writes.
	today := models.PageViewDay(db.NowFunc())
	var views int64
	if err := db.Model(&models.PageView{}).
		Where("date >= ? AND date < ?", today, today.AddDate(0, 0, 1)).
		Select("COALESCE(SUM(count),0)").
		Scan(&views).Error; err != nil {
		views = 0
	}
	counts["today_page_views"] = views

	utils.Success(ctx, counts)
}
