package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mileusna/useragent"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// PageViewRecorder records page views per day and path. Crawlers are not counted.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only record successful page views (2xx) for GET requests.
		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		path := c.Request.URL.Path
		if !countedPath(path) {
			return
		}
		if ua := c.Request.UserAgent(); ua == "" || useragent.Parse(ua).Bot {
			return
		}

		now := db.NowFunc()

		// Atomic upsert to avoid duplicate key errors under concurrency
		err := db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": now}),
		}).Create(&models.PageView{Day: models.PageViewDay(now), Path: path, Count: 1}).Error
		if err != nil {
			utils.Sugar.Warnf("record page view path=%s err=%v", path, err)
		}
	}
}

// countedPath ignores non-content endpoints (API, media, static assets, health).
func countedPath(path string) bool {
	switch {
	case path == "/health", path == "/favicon.ico":
		return false
	case strings.HasPrefix(path, "/api/"), strings.HasPrefix(path, "/media/"), strings.HasPrefix(path, "/static/"):
		return false
	}
	return true
}
