package assetstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ytproxy/internal/app/model"
)

var ErrDeleteFailed = errors.New("asset delete failed")

const defaultTimeout = 30 * time.Second

// Remote is a secondary store holding assets until they are published.
type Remote interface {
	Upload(ctx context.Context, localPath string, kind model.AssetKind) (*model.Asset, error)
	Destroy(ctx context.Context, publicID string, kind model.AssetKind) error
}

// IntentLog durably records deletes that have been started but not confirmed.
type IntentLog interface {
	RecordPendingDelete(ctx context.Context, pd model.PendingDelete) (int64, error)
	ClearPendingDelete(ctx context.Context, id int64) error
}

type Option func(*Store)

func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

type Store struct {
	remote  Remote
	intents IntentLog
	timeout time.Duration
	now     func() time.Time
}

func New(remote Remote, intents IntentLog, opts ...Option) *Store {
	s := &Store{
		remote:  remote,
		intents: intents,
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Upload(ctx context.Context, localPath string, kind model.AssetKind) (*model.Asset, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown asset kind %q", kind)
	}

	asset, err := s.remote.Upload(ctx, localPath, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", kind, err)
	}

	slog.Debug("Asset uploaded", "kind", kind, "public_id", asset.PublicID)
	return asset, nil
}

// Delete removes publicID from the secondary store in two phases: the intent
// row is written first and cleared only after the remote confirms. A remote
// failure leaves the row for an external sweeper.
func (s *Store) Delete(ctx context.Context, requestID, publicID string, kind model.AssetKind) error {
	if publicID == "" {
		return nil
	}

	intentID, err := s.intents.RecordPendingDelete(ctx, model.PendingDelete{
		PublicID:  publicID,
		RequestID: requestID,
		Kind:      kind,
		CreatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDeleteFailed, publicID, err)
	}

	if err := s.destroy(ctx, publicID, kind); err != nil {
		slog.Warn("Remote delete failed, breadcrumb kept",
			"request_id", requestID,
			"public_id", publicID,
			"kind", kind,
			"pending_delete_id", intentID,
			"error", err,
		)
		return fmt.Errorf("%w: %s: %w", ErrDeleteFailed, publicID, err)
	}

	// The asset is gone; a leftover breadcrumb only causes a no-op retry.
	if err := s.intents.ClearPendingDelete(ctx, intentID); err != nil {
		slog.Warn("Failed to clear breadcrumb", "pending_delete_id", intentID, "error", err)
	}
	return nil
}

// Retry repeats the remote half of an interrupted delete and clears its row.
func (s *Store) Retry(ctx context.Context, pd model.PendingDelete) error {
	if err := s.destroy(ctx, pd.PublicID, pd.Kind); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDeleteFailed, pd.PublicID, err)
	}
	return s.intents.ClearPendingDelete(ctx, pd.ID)
}

func (s *Store) destroy(ctx context.Context, publicID string, kind model.AssetKind) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.remote.Destroy(ctx, publicID, kind)
}
