package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"ytproxy/internal/assetstore"
	"ytproxy/internal/auth"
	"ytproxy/internal/distribution/youtube"
	"ytproxy/internal/staging"
	"ytproxy/internal/storage"
	"ytproxy/internal/store"
	"ytproxy/pkg/config"
)

// BuildService wires every component from cfg. The caller must Close the
// returned service.
func BuildService(ctx context.Context, cfg *config.Config) (service *Service, err error) {
	var closers []io.Closer
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i].Close()
			}
		}
	}()

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	closers = append(closers, db)

	localStorage := storage.NewLocalStorage(cfg.Staging.Dir)
	if err := localStorage.EnsureDirectory(); err != nil {
		return nil, err
	}

	var bucket *storage.GCSStorage
	if cfg.GCSBucket != "" {
		bucket, err = storage.NewGCSStorage(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, err
		}
		closers = append(closers, bucket)
	}

	fetcherCfg := staging.Config{Timeout: cfg.Timeouts.Fetch}
	if bucket != nil {
		fetcherCfg.Objects = bucket
	}
	fetcher := staging.NewFetcher(localStorage, fetcherCfg)

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		slog.Warn("Google OAuth client is not configured, publishing will fail")
	}
	broker := auth.NewBroker(cfg.GoogleClientID, cfg.GoogleClientSecret,
		auth.WithTokenURL(cfg.YouTube.TokenURL),
		auth.WithTimeout(cfg.Timeouts.Token),
	)

	publisher := youtube.NewClient(youtube.Config{
		UploadURL:        cfg.YouTube.UploadURL,
		ThumbnailURL:     cfg.YouTube.ThumbnailURL,
		UploadTimeout:    cfg.Timeouts.Upload,
		ThumbnailTimeout: cfg.Timeouts.Thumbnail,
	})

	remote, err := buildRemote(cfg, bucket)
	if err != nil {
		return nil, err
	}
	assets := assetstore.New(remote, db, assetstore.WithTimeout(cfg.Timeouts.Delete))

	return NewService(ServiceOptions{
		Config:    cfg,
		Records:   db,
		Tokens:    broker,
		Fetcher:   fetcher,
		Publisher: publisher,
		Assets:    assets,
		Storage:   localStorage,
		Closers:   closers,
	}), nil
}

func buildRemote(cfg *config.Config, bucket *storage.GCSStorage) (assetstore.Remote, error) {
	switch cfg.Assets.Backend {
	case "cloudinary":
		if !cfg.HasCloudinary() {
			return nil, fmt.Errorf("cloudinary backend selected but CLOUDINARY_URL is not set")
		}
		return assetstore.NewCloudinaryRemote(
			cfg.CloudinaryURL,
			cfg.CloudinaryCloudName,
			cfg.CloudinaryAPIKey,
			cfg.CloudinaryAPISecret,
			cfg.Assets.Prefix,
		)
	case "gcs":
		if bucket == nil {
			return nil, fmt.Errorf("gcs backend selected but GCS_BUCKET is not set")
		}
		return assetstore.NewGCSRemote(bucket, cfg.Assets.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown asset backend %q", cfg.Assets.Backend)
	}
}
