package app

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"ytproxy/internal/app/model"
	"ytproxy/internal/auth"
	"ytproxy/internal/distribution/youtube"
	"ytproxy/internal/staging"
	"ytproxy/internal/store"
)

func TestPublishSuccess(t *testing.T) {
	h := newHarness(t)
	req := h.request(model.StatusApproved, nil)

	result, err := h.pipeline.Publish(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	if result.Outcome != OutcomePublished || result.Stage != StageDone {
		t.Errorf("result = %v/%v, want published/done", result.Outcome, result.Stage)
	}
	if result.VideoID != "vid123" || result.VideoURL != "https://youtube.com/watch?v=vid123" {
		t.Errorf("video = %q %q", result.VideoID, result.VideoURL)
	}

	got := h.reload(req.ID)
	if !got.Published() {
		t.Errorf("UploadStatus = %q, want uploaded", got.UploadStatus)
	}
	if got.VideoURL != "vid123" {
		t.Errorf("VideoURL = %q, want platform id", got.VideoURL)
	}
	if got.ThumbnailURL != "https://i.ytimg.com/vi/vid123/default.jpg" {
		t.Errorf("ThumbnailURL = %q", got.ThumbnailURL)
	}
	if got.VideoPublicID != "" || got.ThumbnailPublicID != "" {
		t.Errorf("public ids not cleared: %q %q", got.VideoPublicID, got.ThumbnailPublicID)
	}

	if len(h.remote.destroyed) != 2 {
		t.Errorf("destroyed = %v, want both assets", h.remote.destroyed)
	}
	if n := h.pendingDeletes(); n != 0 {
		t.Errorf("pending deletes = %d, want 0", n)
	}
	if n := h.stagedFiles(); n != 0 {
		t.Errorf("staged files = %d, want 0", n)
	}
}

func TestPublishOneFilePerStagedAsset(t *testing.T) {
	h := newHarness(t)
	req := h.request(model.StatusApproved, nil)

	if _, err := h.pipeline.Publish(context.Background(), req.ID); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	if h.publisher.filesAtVideo != 2 {
		t.Errorf("files during video upload = %d, want 2", h.publisher.filesAtVideo)
	}
	if h.publisher.filesAtThumb != 1 {
		t.Errorf("files during thumbnail upload = %d, want 1", h.publisher.filesAtThumb)
	}
}

func TestPublishCredentialUnavailable(t *testing.T) {
	h := newHarness(t)
	h.tokens.err = unavailable()
	req := h.request(model.StatusApproved, nil)

	result, err := h.pipeline.Publish(context.Background(), req.ID)
	if !errors.Is(err, ErrCredentialUnavailable) {
		t.Fatalf("Publish() error = %v, want ErrCredentialUnavailable", err)
	}
	if !errors.Is(err, auth.ErrUnavailable) {
		t.Errorf("error does not wrap auth.ErrUnavailable: %v", err)
	}
	if result.Outcome != OutcomeAborted || result.Stage != StageFailedInfra {
		t.Errorf("result = %v/%v, want aborted/failedInfra", result.Outcome, result.Stage)
	}

	if atomic.LoadInt32(&h.fetches) != 0 {
		t.Errorf("fetches = %d, want 0", atomic.LoadInt32(&h.fetches))
	}
	if h.publisher.videoCalls != 0 || h.publisher.thumbCalls != 0 {
		t.Errorf("publish calls = %d/%d, want 0", h.publisher.videoCalls, h.publisher.thumbCalls)
	}
	if n := h.stagedFiles(); n != 0 {
		t.Errorf("staged files = %d, want 0", n)
	}
	if !h.reload(req.ID).NeedsReapproval() {
		t.Error("response time not cleared")
	}
	if Advice(err) != Reauthorize {
		t.Errorf("Advice() = %v, want Reauthorize", Advice(err))
	}
}

func TestPublishVideoQuotaExceeded(t *testing.T) {
	h := newHarness(t)
	h.publisher.videoErr = &youtube.Error{Op: "video upload", Cause: youtube.CauseQuotaExceeded, Code: http.StatusForbidden, Reason: "quotaExceeded", Err: errors.New("quota")}
	req := h.request(model.StatusApproved, nil)

	result, err := h.pipeline.Publish(context.Background(), req.ID)
	if !IsQuotaExceeded(err) {
		t.Fatalf("Publish() error = %v, want quota exceeded", err)
	}

	var pubErr *PublishError
	if !errors.As(err, &pubErr) || pubErr.Kind != model.KindVideo {
		t.Errorf("expected video PublishError, got %v", err)
	}
	if result.Outcome != OutcomeVideoRejected || result.Stage != StageFailedVideo {
		t.Errorf("result = %v/%v, want video rejected/failedVideo", result.Outcome, result.Stage)
	}

	if len(h.remote.destroyed) != 0 {
		t.Errorf("secondary store touched: %v", h.remote.destroyed)
	}
	if n := h.pendingDeletes(); n != 0 {
		t.Errorf("pending deletes = %d, want 0", n)
	}
	if n := h.stagedFiles(); n != 0 {
		t.Errorf("staged files = %d, want 0", n)
	}

	got := h.reload(req.ID)
	if got.Published() || got.VideoPublicID == "" || got.ThumbnailPublicID == "" {
		t.Errorf("record changed after video rejection: %+v", got)
	}
	if Advice(err) != RetryLater {
		t.Errorf("Advice() = %v, want RetryLater", Advice(err))
	}
}

func TestPublishThumbnailForbidden(t *testing.T) {
	h := newHarness(t)
	h.publisher.thumbErr = &youtube.Error{Op: "thumbnail upload", Cause: youtube.CauseForbidden, Code: http.StatusForbidden, Reason: "forbidden", Err: errors.New("forbidden")}
	req := h.request(model.StatusApproved, nil)

	result, err := h.pipeline.Publish(context.Background(), req.ID)
	if !IsForbidden(err) {
		t.Fatalf("Publish() error = %v, want forbidden", err)
	}
	if result.Outcome != OutcomePartial || result.Stage != StageFailedThumbnail {
		t.Errorf("result = %v/%v, want partial/failedThumbnail", result.Outcome, result.Stage)
	}
	if result.VideoID != "vid123" {
		t.Errorf("VideoID = %q, want vid123", result.VideoID)
	}

	var pubErr *PublishError
	if !errors.As(err, &pubErr) || pubErr.Kind != model.KindImage {
		t.Errorf("expected thumbnail PublishError, got %v", err)
	}

	if len(h.remote.destroyed) != 2 {
		t.Errorf("destroyed = %v, want both assets attempted", h.remote.destroyed)
	}
	if n := h.stagedFiles(); n != 0 {
		t.Errorf("staged files = %d, want 0", n)
	}

	got := h.reload(req.ID)
	if !got.Published() || got.VideoURL != "vid123" {
		t.Errorf("record = %q/%q, want uploaded with platform id", got.UploadStatus, got.VideoURL)
	}
	if got.ThumbnailURL != "" {
		t.Errorf("ThumbnailURL = %q, want empty", got.ThumbnailURL)
	}
	if hint := Advice(err); hint != None {
		t.Errorf("Advice() = %v, want none once the video is live", hint)
	}
}

func TestPublishThumbnailQuotaGivesNoAdvice(t *testing.T) {
	h := newHarness(t)
	h.publisher.thumbErr = &youtube.Error{Op: "thumbnail upload", Cause: youtube.CauseQuotaExceeded, Code: http.StatusForbidden, Reason: "quotaExceeded", Err: errors.New("quota")}
	req := h.request(model.StatusApproved, nil)

	result, err := h.pipeline.Publish(context.Background(), req.ID)
	if !IsQuotaExceeded(err) {
		t.Fatalf("Publish() error = %v, want quota exceeded", err)
	}
	if result.Outcome != OutcomePartial {
		t.Errorf("Outcome = %v, want partial", result.Outcome)
	}
	if hint := Advice(err); hint != None {
		t.Errorf("Advice() = %v, want none", hint)
	}
}

func TestPublishStagingFailure(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(h *harness) func(*model.Request)
		wantKind  model.AssetKind
		wantFetch int32
	}{
		{
			name: "videoMissing",
			mutate: func(h *harness) func(*model.Request) {
				return func(r *model.Request) { r.VideoURL = h.server.URL + "/gone.mp4" }
			},
			wantKind:  model.KindVideo,
			wantFetch: 1,
		},
		{
			name: "thumbnailMissing",
			mutate: func(h *harness) func(*model.Request) {
				return func(r *model.Request) { r.ThumbnailURL = h.server.URL + "/gone.jpg" }
			},
			wantKind:  model.KindImage,
			wantFetch: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := h.request(model.StatusApproved, tt.mutate(h))

			result, err := h.pipeline.Publish(context.Background(), req.ID)

			var stagingErr *StagingError
			if !errors.As(err, &stagingErr) {
				t.Fatalf("Publish() error = %v, want StagingError", err)
			}
			if stagingErr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", stagingErr.Kind, tt.wantKind)
			}
			var fetchErr *staging.FetchError
			if !errors.As(err, &fetchErr) {
				t.Errorf("error does not wrap FetchError: %v", err)
			}
			if result.Stage != StageFailedInfra || result.Outcome != OutcomeAborted {
				t.Errorf("result = %v/%v, want aborted/failedInfra", result.Outcome, result.Stage)
			}
			if got := atomic.LoadInt32(&h.fetches); got != tt.wantFetch {
				t.Errorf("fetches = %d, want %d", got, tt.wantFetch)
			}
			if h.publisher.videoCalls != 0 {
				t.Errorf("video upload attempted after staging failure")
			}
			if len(h.remote.destroyed) != 0 {
				t.Errorf("secondary store touched: %v", h.remote.destroyed)
			}
			if n := h.stagedFiles(); n != 0 {
				t.Errorf("staged files = %d, want 0", n)
			}
		})
	}
}

func TestPublishDeleteFailureKeepsBreadcrumbs(t *testing.T) {
	h := newHarness(t)
	h.remote.destroyErr = errors.New("503 from asset store")
	req := h.request(model.StatusApproved, nil)

	result, err := h.pipeline.Publish(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("Publish() error = %v, delete failures must not escalate", err)
	}
	if result.Outcome != OutcomePublished {
		t.Errorf("Outcome = %v, want published", result.Outcome)
	}
	if n := h.pendingDeletes(); n != 2 {
		t.Errorf("pending deletes = %d, want one per asset", n)
	}
}

type failingPublishRecords struct {
	*store.Store
}

func (failingPublishRecords) MarkPublished(context.Context, string, string, string) error {
	return errors.New("database is locked")
}

func TestPublishRecordUpdateFailure(t *testing.T) {
	h := newHarness(t)
	req := h.request(model.StatusApproved, nil)

	h.service.records = failingPublishRecords{Store: h.db}

	result, err := h.pipeline.Publish(context.Background(), req.ID)
	if !errors.Is(err, ErrRecordUpdate) {
		t.Fatalf("Publish() error = %v, want ErrRecordUpdate", err)
	}
	if result.Outcome != OutcomePartial || result.Stage != StageFailedRecord {
		t.Errorf("result = %v/%v, want partial/failedRecord", result.Outcome, result.Stage)
	}
	if Advice(err) != None {
		t.Errorf("Advice() = %v, want None for a live video", Advice(err))
	}
	if n := h.stagedFiles(); n != 0 {
		t.Errorf("staged files = %d, want 0", n)
	}
}

func TestPublishPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(h *harness) string
		wantErr error
	}{
		{
			name:    "missing",
			setup:   func(h *harness) string { return "missing" },
			wantErr: store.ErrNotFound,
		},
		{
			name: "pending",
			setup: func(h *harness) string {
				return h.request(model.StatusPending, nil).ID
			},
			wantErr: ErrNotApproved,
		},
		{
			name: "rejected",
			setup: func(h *harness) string {
				return h.request(model.StatusRejected, nil).ID
			},
			wantErr: ErrNotApproved,
		},
		{
			name: "alreadyPublished",
			setup: func(h *harness) string {
				return h.request(model.StatusApproved, func(r *model.Request) {
					r.UploadStatus = model.UploadUploaded
				}).ID
			},
			wantErr: ErrAlreadyPublished,
		},
		{
			name: "needsReapproval",
			setup: func(h *harness) string {
				req := h.request(model.StatusApproved, nil)
				if err := h.db.ClearResponseTime(context.Background(), req.ID); err != nil {
					h.t.Fatalf("ClearResponseTime() error: %v", err)
				}
				return req.ID
			},
			wantErr: ErrCredentialUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			id := tt.setup(h)

			result, err := h.pipeline.Publish(context.Background(), id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Publish() error = %v, want %v", err, tt.wantErr)
			}
			if result != nil {
				t.Errorf("result = %+v, want nil", result)
			}
			if h.tokens.calls != 0 || atomic.LoadInt32(&h.fetches) != 0 {
				t.Errorf("side effects before precondition: renew %d fetch %d", h.tokens.calls, atomic.LoadInt32(&h.fetches))
			}
		})
	}
}

func TestPublishPanicReleasesFiles(t *testing.T) {
	h := newHarness(t)
	h.publisher.onVideo = func(context.Context) { panic("upload exploded") }
	req := h.request(model.StatusApproved, nil)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_, _ = h.pipeline.Publish(context.Background(), req.ID)
	}()

	if n := h.stagedFiles(); n != 0 {
		t.Errorf("staged files after panic = %d, want 0", n)
	}
}

func TestPublishFinishesAfterCancelOnceVideoLive(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.publisher.onVideo = func(context.Context) { cancel() }
	req := h.request(model.StatusApproved, nil)

	result, err := h.pipeline.Publish(ctx, req.ID)
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if result.Outcome != OutcomePublished {
		t.Errorf("Outcome = %v, want published", result.Outcome)
	}
	if h.publisher.thumbCtxErr != nil {
		t.Errorf("thumbnail ran with a canceled context: %v", h.publisher.thumbCtxErr)
	}
	if !h.reload(req.ID).Published() {
		t.Error("record not updated after cancel")
	}
	if n := h.pendingDeletes(); n != 0 {
		t.Errorf("pending deletes = %d, want 0", n)
	}
}
