package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"ytproxy/internal/app/model"
	"ytproxy/internal/distribution/youtube"
)

type Pipeline struct {
	service *Service
}

type PublishResult struct {
	RequestID    string
	Outcome      Outcome
	Stage        Stage
	VideoID      string
	VideoURL     string
	ThumbnailURL string
	Err          error
}

type publishRun struct {
	ctx      context.Context
	pipeline *Pipeline
	session  *session
	req      *model.Request
	stage    Stage
	err      error

	token         *oauth2.Token
	videoPath     string
	thumbnailPath string
	video         *youtube.VideoResult
	thumbnailURL  string
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

// Publish moves an approved request onto the owner's channel. The returned
// error is nil only for OutcomePublished; a result is returned for every run
// that got past its preconditions.
func (pipeline *Pipeline) Publish(ctx context.Context, requestID string) (*PublishResult, error) {
	req, err := pipeline.service.records.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Published() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPublished, requestID)
	}
	if req.Status != model.StatusApproved {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotApproved, requestID, req.Status)
	}
	if req.NeedsReapproval() {
		return nil, fmt.Errorf("%w: %s needs approval again", ErrCredentialUnavailable, requestID)
	}

	run := pipeline.newRun(ctx, req)
	defer run.session.release()

	for !run.stage.Terminal() {
		run.advance()
	}

	return run.result()
}

func (pipeline *Pipeline) newRun(ctx context.Context, req *model.Request) *publishRun {
	var remove func(string) error
	if pipeline.service.storage != nil {
		remove = pipeline.service.storage.Remove
	}

	return &publishRun{
		ctx:      ctx,
		pipeline: pipeline,
		session:  newSession(req.ID, remove),
		req:      req,
		stage:    StageStart,
	}
}

func (run *publishRun) advance() {
	var err error
	switch run.stage {
	case StageStart:
		err = run.acquireToken()
	case StageTokenAcquired:
		err = run.stageAsset(model.KindVideo)
	case StageVideoStaged:
		err = run.stageAsset(model.KindImage)
	case StageThumbnailStaged:
		err = run.uploadVideo()
	case StageVideoPublished:
		err = run.setThumbnail()
	case StageThumbnailPublished:
		run.cleanup()
	case StageCleanupComplete:
		err = run.updateRecord()
	case StageThumbnailRejected:
		run.cleanup()
		err = run.updateRecord()
	}

	if err != nil {
		if run.err == nil {
			run.err = err
		} else {
			run.err = errors.Join(run.err, err)
		}
	}

	next := step(run.stage, err == nil)
	slog.Debug("Stage transition", "request_id", run.req.ID, "from", run.stage, "to", next)
	run.stage = next
}

func (run *publishRun) acquireToken() error {
	service := run.pipeline.service

	token, err := service.tokens.Renew(run.ctx, run.req.RefreshToken)
	if err != nil {
		slog.Warn("Credential unavailable, request needs approval again", "request_id", run.req.ID, "error", err)
		if clearErr := service.records.ClearResponseTime(run.ctx, run.req.ID); clearErr != nil {
			slog.Warn("Failed to reset response time", "request_id", run.req.ID, "error", clearErr)
		}
		return fmt.Errorf("%w: %w", ErrCredentialUnavailable, err)
	}

	run.token = token
	return nil
}

func (run *publishRun) stageAsset(kind model.AssetKind) error {
	url := run.req.VideoURL
	if kind == model.KindImage {
		url = run.req.ThumbnailURL
	}

	slog.Info("Fetching asset", "request_id", run.req.ID, "kind", kind)
	path, err := run.pipeline.service.fetcher.Fetch(run.ctx, url, run.req.ID, kind)
	if err != nil {
		return &StagingError{Kind: kind, Err: err}
	}
	run.session.track(path)

	if kind == model.KindVideo {
		run.videoPath = path
	} else {
		run.thumbnailPath = path
	}
	return nil
}

func (run *publishRun) uploadVideo() error {
	slog.Info("Uploading video", "request_id", run.req.ID, "title", run.req.Metadata.Title)
	video, err := run.pipeline.service.publisher.UploadVideo(run.ctx, run.token, run.req.Metadata, run.videoPath)
	if err != nil {
		return &PublishError{Kind: model.KindVideo, Err: err}
	}

	run.video = video
	run.session.discard(run.videoPath)
	slog.Info("Video live", "request_id", run.req.ID, "video_id", video.ID)
	return nil
}

func (run *publishRun) setThumbnail() error {
	// From here on the video is live, so bookkeeping must not be abandoned
	// when the caller goes away.
	run.ctx = context.WithoutCancel(run.ctx)

	thumb, err := run.pipeline.service.publisher.SetThumbnail(run.ctx, run.token, run.video.ID, run.thumbnailPath)
	run.session.discard(run.thumbnailPath)
	if err != nil {
		slog.Warn("Thumbnail rejected", "request_id", run.req.ID, "video_id", run.video.ID, "error", err)
		return &PublishError{Kind: model.KindImage, Err: err}
	}

	run.thumbnailURL = thumb.URL
	return nil
}

func (run *publishRun) cleanup() {
	run.session.release()

	assets := run.pipeline.service.assets
	for _, asset := range []model.Asset{
		{PublicID: run.req.VideoPublicID, Kind: model.KindVideo},
		{PublicID: run.req.ThumbnailPublicID, Kind: model.KindImage},
	} {
		if err := assets.Delete(run.ctx, run.req.ID, asset.PublicID, asset.Kind); err != nil {
			slog.Warn("Staged asset not removed", "request_id", run.req.ID, "public_id", asset.PublicID, "error", err)
		}
	}
}

func (run *publishRun) updateRecord() error {
	err := run.pipeline.service.records.MarkPublished(run.ctx, run.req.ID, run.video.ID, run.thumbnailURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRecordUpdate, err)
	}
	return nil
}

func (run *publishRun) result() (*PublishResult, error) {
	result := &PublishResult{
		RequestID:    run.req.ID,
		Outcome:      outcome(run.stage),
		Stage:        run.stage,
		ThumbnailURL: run.thumbnailURL,
		Err:          run.err,
	}
	if run.video != nil {
		result.VideoID = run.video.ID
		result.VideoURL = run.video.URL
	}

	if result.Outcome == OutcomePublished {
		slog.Info("Request published", "request_id", run.req.ID, "video_id", result.VideoID)
		return result, nil
	}

	slog.Warn("Publish did not complete",
		"request_id", run.req.ID,
		"outcome", result.Outcome,
		"stage", result.Stage,
		"error", run.err,
	)
	return result, run.err
}
