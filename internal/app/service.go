package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"ytproxy/internal/app/model"
	"ytproxy/internal/distribution/youtube"
	"ytproxy/internal/storage"
	"ytproxy/pkg/config"
)

// Records is the durable request store.
type Records interface {
	Get(ctx context.Context, id string) (*model.Request, error)
	Insert(ctx context.Context, req *model.Request) error
	MarkPublished(ctx context.Context, id, videoURL, thumbnailURL string) error
	ClearResponseTime(ctx context.Context, id string) error
	Respond(ctx context.Context, id string, approve bool, refreshToken string, now time.Time) error
	Resend(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ListAwaitingUpload(ctx context.Context) ([]*model.Request, error)
	ListPendingDeletes(ctx context.Context) ([]model.PendingDelete, error)
}

type TokenRenewer interface {
	Renew(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url, requestID string, kind model.AssetKind) (string, error)
}

type Publisher interface {
	UploadVideo(ctx context.Context, token *oauth2.Token, meta model.Metadata, videoPath string) (*youtube.VideoResult, error)
	SetThumbnail(ctx context.Context, token *oauth2.Token, videoID, thumbnailPath string) (*youtube.ThumbnailResult, error)
}

// Assets is the secondary store holding media until it is published.
type Assets interface {
	Upload(ctx context.Context, localPath string, kind model.AssetKind) (*model.Asset, error)
	Delete(ctx context.Context, requestID, publicID string, kind model.AssetKind) error
	Retry(ctx context.Context, pd model.PendingDelete) error
}

type Service struct {
	cfg       *config.Config
	records   Records
	tokens    TokenRenewer
	fetcher   Fetcher
	publisher Publisher
	assets    Assets
	storage   *storage.LocalStorage
	closers   []io.Closer
	now       func() time.Time
}

type ServiceOptions struct {
	Config    *config.Config
	Records   Records
	Tokens    TokenRenewer
	Fetcher   Fetcher
	Publisher Publisher
	Assets    Assets
	Storage   *storage.LocalStorage
	Closers   []io.Closer
	Now       func() time.Time
}

func NewService(opts ServiceOptions) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		cfg:       opts.Config,
		records:   opts.Records,
		tokens:    opts.Tokens,
		fetcher:   opts.Fetcher,
		publisher: opts.Publisher,
		assets:    opts.Assets,
		storage:   opts.Storage,
		closers:   opts.Closers,
		now:       now,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) Records() Records {
	return s.records
}

func (s *Service) Storage() *storage.LocalStorage {
	return s.storage
}

// Close releases the handles opened by BuildService, last opened first.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type SubmitInput struct {
	VideoPath     string
	ThumbnailPath string
	Metadata      model.Metadata
	FromUser      string
	ToUser        string
}

// Submit stages an editor's video and thumbnail in the secondary store and
// files a pending request for the owner.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*model.Request, error) {
	if in.VideoPath == "" || in.ThumbnailPath == "" {
		return nil, errors.New("video and thumbnail are both required")
	}
	if in.ToUser == "" {
		return nil, errors.New("recipient is required")
	}

	meta := in.Metadata
	if s.cfg != nil {
		if meta.CategoryID == "" {
			meta.CategoryID = s.cfg.YouTube.DefaultCategoryID
		}
		if meta.PrivacyStatus == "" {
			meta.PrivacyStatus = s.cfg.YouTube.DefaultPrivacyStatus
		}
	}

	slog.Info("Uploading video to asset store", "path", in.VideoPath)
	video, err := s.assets.Upload(ctx, in.VideoPath, model.KindVideo)
	if err != nil {
		return nil, err
	}

	slog.Info("Uploading thumbnail to asset store", "path", in.ThumbnailPath)
	thumb, err := s.assets.Upload(ctx, in.ThumbnailPath, model.KindImage)
	if err != nil {
		s.dropAsset(ctx, "", video)
		return nil, err
	}

	req := &model.Request{
		VideoURL:          video.URL,
		ThumbnailURL:      thumb.URL,
		VideoPublicID:     video.PublicID,
		ThumbnailPublicID: thumb.PublicID,
		Metadata:          meta,
		Status:            model.StatusPending,
		UploadStatus:      model.UploadNotUploaded,
		FromUser:          in.FromUser,
		ToUser:            in.ToUser,
		RequestedAt:       s.now(),
	}
	if err := s.records.Insert(ctx, req); err != nil {
		s.dropAsset(ctx, "", video)
		s.dropAsset(ctx, "", thumb)
		return nil, err
	}

	slog.Info("Request submitted", "request_id", req.ID, "to", req.ToUser)
	return req, nil
}

func (s *Service) dropAsset(ctx context.Context, requestID string, asset *model.Asset) {
	if err := s.assets.Delete(ctx, requestID, asset.PublicID, asset.Kind); err != nil {
		slog.Warn("Failed to remove staged asset", "public_id", asset.PublicID, "error", err)
	}
}

// Respond records the owner's decision. Approval needs the refresh token
// obtained from the consent flow.
func (s *Service) Respond(ctx context.Context, id string, approve bool, refreshToken string) error {
	if approve && refreshToken == "" {
		return errors.New("approval requires a refresh token")
	}

	req, err := s.records.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.Published() {
		return fmt.Errorf("%w: %s", ErrAlreadyPublished, id)
	}

	if err := s.records.Respond(ctx, id, approve, refreshToken, s.now()); err != nil {
		return err
	}

	slog.Info("Request answered", "request_id", id, "approved", approve)
	return nil
}

// Resend puts a request back in front of its owner. It is the only retry.
func (s *Service) Resend(ctx context.Context, id string) error {
	req, err := s.records.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.Published() {
		return fmt.Errorf("%w: %s", ErrAlreadyPublished, id)
	}

	if err := s.records.Resend(ctx, id); err != nil {
		return err
	}
	slog.Info("Request resent", "request_id", id)
	return nil
}

// VerifyCredentials renews the stored credential of every approved request
// still waiting for upload and returns the ids that need approving again.
func (s *Service) VerifyCredentials(ctx context.Context) ([]string, error) {
	requests, err := s.records.ListAwaitingUpload(ctx)
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, req := range requests {
		if req.NeedsReapproval() {
			stale = append(stale, req.ID)
			continue
		}

		if _, err := s.tokens.Renew(ctx, req.RefreshToken); err != nil {
			slog.Warn("Credential renewal failed", "request_id", req.ID, "error", err)
			if clearErr := s.records.ClearResponseTime(ctx, req.ID); clearErr != nil {
				return stale, clearErr
			}
			stale = append(stale, req.ID)
		}
	}

	return stale, nil
}

// DeleteRequest removes both staged assets, then the request itself.
// Asset failures leave breadcrumbs and do not stop the row delete.
func (s *Service) DeleteRequest(ctx context.Context, id string) error {
	req, err := s.records.Get(ctx, id)
	if err != nil {
		return err
	}

	for _, asset := range []model.Asset{
		{PublicID: req.VideoPublicID, Kind: model.KindVideo},
		{PublicID: req.ThumbnailPublicID, Kind: model.KindImage},
	} {
		s.dropAsset(ctx, req.ID, &asset)
	}

	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("Request deleted", "request_id", id)
	return nil
}

func (s *Service) PendingDeletes(ctx context.Context) ([]model.PendingDelete, error) {
	return s.records.ListPendingDeletes(ctx)
}

// RetryPendingDeletes makes one pass over the breadcrumbs and returns how
// many were cleared. Failures stay recorded.
func (s *Service) RetryPendingDeletes(ctx context.Context) (int, error) {
	pending, err := s.records.ListPendingDeletes(ctx)
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, pd := range pending {
		if err := s.assets.Retry(ctx, pd); err != nil {
			slog.Warn("Pending delete still failing", "public_id", pd.PublicID, "error", err)
			continue
		}
		cleared++
	}
	return cleared, nil
}
