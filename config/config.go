package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppConfig holds file and environment driven configuration values.
// Secrets have no defaults in code and must come from config.json, .env or the environment.
type AppConfig struct {
	AppPort   string `json:"AppPort" env:"APP_PORT"`
	JWTSecret string `json:"JWTSecret" env:"JWT_SECRET"`
	SiteTitle string `json:"SiteTitle" env:"SITE_TITLE"`
	// Database
	DBDriver    string `json:"DBDriver" env:"DB_DRIVER"`
	DatabaseURI string `json:"DatabaseURI" env:"DATABASE_URI"`
	DBHost      string `json:"DBHost" env:"DB_HOST"`
	DBPort      string `json:"DBPort" env:"DB_PORT"`
	DBUser      string `json:"DBUser" env:"DB_USER"`
	DBPassword  string `json:"DBPassword" env:"DB_PASSWORD"`
	DBName      string `json:"DBName" env:"DB_NAME"`
	// OAuth providers used to link social accounts
	GitHubClientID     string `json:"GitHubClientID" env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `json:"GitHubClientSecret" env:"GITHUB_CLIENT_SECRET"`
	GoogleClientID     string `json:"GoogleClientID" env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `json:"GoogleClientSecret" env:"GOOGLE_CLIENT_SECRET"`
	OAuthRedirectBase  string `json:"OAuthRedirectBase" env:"OAUTH_REDIRECT_BASE_URL"`
	// HTTP
	RateLimitPerMinute int      `json:"RateLimitPerMinute" env:"RATE_LIMIT_PER_MINUTE"`
	AllowedOrigins     []string `json:"AllowedOrigins" env:"CORS_ALLOWED_ORIGINS"`
	GinMode            string   `json:"GinMode" env:"GIN_MODE"`
	GinPath            string   `json:"GinPath" env:"GIN_PATH"`
	// Redis for caching, OAuth state and token revocation. Empty host disables Redis.
	RedisHost       string `json:"RedisHost" env:"REDIS_HOST"`
	RedisPort       int    `json:"RedisPort" env:"REDIS_PORT"`
	RedisDB         int    `json:"RedisDB" env:"REDIS_DB"`
	RedisPassword   string `json:"RedisPassword" env:"REDIS_PASSWORD"`
	CacheTTLSeconds int    `json:"CacheTTLSeconds" env:"CACHE_TTL_SECONDS"`
	// Logging
	LogLevel      string `json:"LogLevel" env:"LOG_LEVEL"`
	LogPath       string `json:"LogPath" env:"LOG_PATH"`
	LogMaxSizeMB  int    `json:"LogMaxSizeMB" env:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `json:"LogMaxBackups" env:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `json:"LogMaxAgeDays" env:"LOG_MAX_AGE_DAYS"`
	LogCompress   bool   `json:"LogCompress" env:"LOG_COMPRESS"`
	// Media uploads
	MediaRoot           string `json:"MediaRoot" env:"MEDIA_ROOT"`
	MediaURL            string `json:"MediaURL" env:"MEDIA_URL"`
	UploadMaxMB         int    `json:"UploadMaxMB" env:"UPLOAD_MAX_MB"`
	UploadOrphanMinutes int    `json:"UploadOrphanMinutes" env:"UPLOAD_ORPHAN_MINUTES"`
	UploadCleanupSpec   string `json:"UploadCleanupSpec" env:"UPLOAD_CLEANUP_SPEC"`
	ImageMaxWidth       int    `json:"ImageMaxWidth" env:"IMAGE_MAX_WIDTH"`
	ImageMaxHeight      int    `json:"ImageMaxHeight" env:"IMAGE_MAX_HEIGHT"`
	// Pages
	LandingPostCount int `json:"LandingPostCount" env:"LANDING_POST_COUNT"`
	BlogPageSize     int `json:"BlogPageSize" env:"BLOG_PAGE_SIZE"`
	// Admins may manage tags, categories, users and any post or comment
	AdminUsernames []string `json:"AdminUsernames" env:"ADMIN_USERNAMES"`
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}
	c, err := LoadFrom(filepath.Join("config", "config.json"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if c.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in config.json or the environment")
	}
	cfg = c
	loaded = true
	return cfg
}

// LoadFrom builds a configuration from the JSON file at path (optional), a .env file in the
// working directory (optional), defaults and environment overrides, in that order.
func LoadFrom(path string) (AppConfig, error) {
	var c AppConfig
	if err := loadJSONConfig(path, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}

	// .env only seeds variables that are not already set in the process environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, fmt.Errorf("parse .env: %w", err)
	}

	applyDefaults(&c)

	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse environment: %w", err)
	}
	return c, nil
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration.
func Set(c AppConfig) {
	applyDefaults(&c)
	cfg = c
	loaded = true
}

// loadJSONConfig reads a JSON file into out if present. Keys may be flat or grouped in
// sections ("app", "database", "redis", "log", "upload", ...); section names are ignored.
func loadJSONConfig(path string, out *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil // silently ignore missing file
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return err
	}
	for _, section := range raw {
		if len(section) == 0 || section[0] != '{' {
			continue
		}
		if err := json.Unmarshal(section, out); err != nil {
			return err
		}
	}
	return nil
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.SiteTitle == "" {
		c.SiteTitle = "Do It Blog"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		switch c.DBDriver {
		case "postgres":
			c.DBPort = "5432"
		default:
			c.DBPort = "3306"
		}
	}
	if c.DBName == "" {
		c.DBName = "aiblog"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/gin.log"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 3600
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MediaRoot == "" {
		c.MediaRoot = "media"
	}
	if c.MediaURL == "" {
		c.MediaURL = "/media/"
	}
	if c.UploadMaxMB == 0 {
		c.UploadMaxMB = 20
	}
	if c.UploadOrphanMinutes == 0 {
		c.UploadOrphanMinutes = 24 * 60
	}
	if c.UploadCleanupSpec == "" {
		c.UploadCleanupSpec = "@every 10m"
	}
	if c.ImageMaxWidth == 0 {
		c.ImageMaxWidth = 1600
	}
	if c.ImageMaxHeight == 0 {
		c.ImageMaxHeight = 1600
	}
	if c.LandingPostCount == 0 {
		c.LandingPostCount = 3
	}
	if c.BlogPageSize == 0 {
		c.BlogPageSize = 10
	}
}
