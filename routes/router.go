package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/controllers"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repositories"
	"github.com/cppla/aiblog/templates"
	"github.com/cppla/aiblog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, storage *utils.Storage, cfg config.AppConfig) (*gin.Engine, error) {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	tmpl, err := templates.New()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)
	r.Static(strings.TrimSuffix(cfg.MediaURL, "/"), storage.Root())

	postRepo := repositories.NewPostRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	taxonomyRepo := repositories.NewTaxonomyRepository(db)
	userRepo := repositories.NewUserRepository(db)
	uploadRepo := repositories.NewUploadRepository(db)
	avatars := models.NewAvatarResolver(userRepo)

	pageController := controllers.NewPageController(postRepo, taxonomyRepo, avatars, storage, cfg)
	postController := controllers.NewPostController(postRepo, commentRepo, taxonomyRepo, avatars, storage, cfg)
	taxonomyController := controllers.NewTaxonomyController(taxonomyRepo, postRepo)
	uploadController := controllers.NewUploadController(uploadRepo, storage, cfg)
	authController := controllers.NewAuthController(userRepo, avatars, cfg)
	statsController := controllers.NewStatsController(db)
	configController := controllers.NewConfigController(cfg)

	r.GET("/", pageController.Landing)
	r.GET("/about_me", pageController.About)
	r.GET("/blog", pageController.BlogList)
	r.GET("/blog/:id", pageController.BlogDetail)
	r.GET("/blog/tag/:slug", pageController.TagPosts)
	r.GET("/blog/category/:slug", pageController.CategoryPosts)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/tags", taxonomyController.ListTags)
	api.GET("/categories", taxonomyController.ListCategories)
	// Public stats and site settings
	api.GET("/stats", statsController.GetStats)
	api.GET("/site", configController.GetSite)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	protected.POST("/upload", uploadController.Upload)
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.PUT("/comments/:commentId", postController.UpdateComment)
	protected.DELETE("/comments/:commentId", postController.DeleteComment)

	admin := protected.Group("")
	admin.Use(middleware.AdminRequired())
	admin.POST("/tags", taxonomyController.CreateTag)
	admin.DELETE("/tags/:id", taxonomyController.DeleteTag)
	admin.POST("/categories", taxonomyController.CreateCategory)
	admin.DELETE("/categories/:id", taxonomyController.DeleteCategory)
	admin.DELETE("/users/:id", authController.DeleteUser)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		pageController.NotFound(ctx)
	})

	return r, nil
}
