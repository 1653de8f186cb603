package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath      = "config.yaml"
	defaultDatabasePath    = "./ytproxy.db"
	defaultStagingDir      = "./videos"
	defaultAssetBackend    = "cloudinary"
	defaultTokenURL        = "https://oauth2.googleapis.com/token"
	defaultUploadURL       = "https://www.googleapis.com/upload/youtube/v3/videos"
	defaultThumbnailURL    = "https://www.googleapis.com/upload/youtube/v3/thumbnails/set"
	defaultCategoryID      = "22"
	defaultPrivacyStatus   = "private"
	defaultTokenTimeout    = 15 * time.Second
	defaultFetchTimeout    = 10 * time.Minute
	defaultUploadTimeout   = 30 * time.Minute
	defaultThumbTimeout    = 2 * time.Minute
	defaultDeleteTimeout   = 30 * time.Second
	defaultStaleFileMaxAge = 24 * time.Hour
)

type Config struct {
	GoogleClientID      string
	GoogleClientSecret  string
	CloudinaryURL       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	GCSBucket           string
	GCPProject          string
	DatabasePath        string

	Staging  StagingConfig  `yaml:"staging"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Assets   AssetsConfig   `yaml:"assets"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Secrets  SecretsConfig  `yaml:"secrets"`
}

type StagingConfig struct {
	Dir         string        `yaml:"dir"`
	StaleMaxAge time.Duration `yaml:"stale_max_age"`
}

type YouTubeConfig struct {
	TokenURL             string `yaml:"token_url"`
	UploadURL            string `yaml:"upload_url"`
	ThumbnailURL         string `yaml:"thumbnail_url"`
	DefaultCategoryID    string `yaml:"default_category_id"`
	DefaultPrivacyStatus string `yaml:"default_privacy_status"`
}

type AssetsConfig struct {
	Backend string `yaml:"backend"` // "cloudinary" or "gcs"
	Prefix  string `yaml:"prefix"`
}

// TimeoutsConfig holds one deadline per remote call of a pipeline run.
type TimeoutsConfig struct {
	Token     time.Duration `yaml:"token"`
	Fetch     time.Duration `yaml:"fetch"`
	Upload    time.Duration `yaml:"upload"`
	Thumbnail time.Duration `yaml:"thumbnail"`
	Delete    time.Duration `yaml:"delete"`
}

type SecretsConfig struct {
	ClientSecretName     string `yaml:"client_secret_name"`
	CloudinarySecretName string `yaml:"cloudinary_secret_name"`
}

func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GoogleClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
		CloudinaryURL:       os.Getenv("CLOUDINARY_URL"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		GCSBucket:           os.Getenv("GCS_BUCKET"),
		GCPProject:          os.Getenv("GOOGLE_CLOUD_PROJECT"),
		DatabasePath:        getEnvOrDefault("DATABASE_PATH", defaultDatabasePath),
	}

	if err := loadYAMLConfig(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if cfg.GCPProject != "" {
		if err := resolveSecrets(ctx, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config) error {
	data, err := os.ReadFile(defaultConfigPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", defaultConfigPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", defaultConfigPath, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyStagingDefaults(cfg)
	applyYouTubeDefaults(cfg)
	applyAssetsDefaults(cfg)
	applyTimeoutDefaults(cfg)
	applySecretsDefaults(cfg)
}

func applyStagingDefaults(cfg *Config) {
	if cfg.Staging.Dir == "" {
		cfg.Staging.Dir = defaultStagingDir
	}
	if cfg.Staging.StaleMaxAge == 0 {
		cfg.Staging.StaleMaxAge = defaultStaleFileMaxAge
	}
}

func applyYouTubeDefaults(cfg *Config) {
	if cfg.YouTube.TokenURL == "" {
		cfg.YouTube.TokenURL = defaultTokenURL
	}
	if cfg.YouTube.UploadURL == "" {
		cfg.YouTube.UploadURL = defaultUploadURL
	}
	if cfg.YouTube.ThumbnailURL == "" {
		cfg.YouTube.ThumbnailURL = defaultThumbnailURL
	}
	if cfg.YouTube.DefaultCategoryID == "" {
		cfg.YouTube.DefaultCategoryID = defaultCategoryID
	}
	if cfg.YouTube.DefaultPrivacyStatus == "" {
		cfg.YouTube.DefaultPrivacyStatus = defaultPrivacyStatus
	}
}

func applyAssetsDefaults(cfg *Config) {
	if cfg.Assets.Backend == "" {
		cfg.Assets.Backend = defaultAssetBackend
	}
}

func applyTimeoutDefaults(cfg *Config) {
	if cfg.Timeouts.Token == 0 {
		cfg.Timeouts.Token = defaultTokenTimeout
	}
	if cfg.Timeouts.Fetch == 0 {
		cfg.Timeouts.Fetch = defaultFetchTimeout
	}
	if cfg.Timeouts.Upload == 0 {
		cfg.Timeouts.Upload = defaultUploadTimeout
	}
	if cfg.Timeouts.Thumbnail == 0 {
		cfg.Timeouts.Thumbnail = defaultThumbTimeout
	}
	if cfg.Timeouts.Delete == 0 {
		cfg.Timeouts.Delete = defaultDeleteTimeout
	}
}

func applySecretsDefaults(cfg *Config) {
	if cfg.Secrets.ClientSecretName == "" {
		cfg.Secrets.ClientSecretName = "google-client-secret"
	}
	if cfg.Secrets.CloudinarySecretName == "" {
		cfg.Secrets.CloudinarySecretName = "cloudinary-url"
	}
}

// HasCloudinary reports whether either form of Cloudinary credentials is set.
func (c *Config) HasCloudinary() bool {
	if c.CloudinaryURL != "" {
		return true
	}
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
