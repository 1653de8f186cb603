package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ytproxy/internal/app/model"
	"ytproxy/internal/storage"
	"ytproxy/pkg/httputil"
)

const defaultTimeout = 10 * time.Minute

var errNoObjectStore = errors.New("gs:// source requires a configured GCS bucket")

// FetchError reports a staging failure. No remote side effect has happened
// yet when it is returned, and no partial file is left on disk.
type FetchError struct {
	Kind      model.AssetKind
	URL       string
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Config struct {
	HTTPClient *http.Client
	Objects    storage.ObjectOpener
	Timeout    time.Duration
}

type Fetcher struct {
	local   *storage.LocalStorage
	client  *http.Client
	objects storage.ObjectOpener
	timeout time.Duration
}

func NewFetcher(local *storage.LocalStorage, cfg Config) *Fetcher {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Fetcher{
		local:   local,
		client:  client,
		objects: cfg.Objects,
		timeout: timeout,
	}
}

// Fetch streams the asset at url into a new transient file and returns its
// path. The caller owns the file and must remove it.
func (f *Fetcher) Fetch(ctx context.Context, url, requestID string, kind model.AssetKind) (string, error) {
	if err := f.local.EnsureDirectory(); err != nil {
		return "", &FetchError{Kind: kind, URL: url, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	src, err := f.open(ctx, url)
	if err != nil {
		return "", f.fetchError(kind, url, err)
	}
	defer func() { _ = src.Close() }()

	path := f.local.TransientPath(requestID, kind.Extension())
	if err := writeFile(path, src); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("Failed to remove partial file", "path", path, "error", rmErr)
		}
		return "", f.fetchError(kind, url, err)
	}

	slog.Debug("Staged asset", "kind", kind, "path", path)
	return path, nil
}

func (f *Fetcher) open(ctx context.Context, url string) (io.ReadCloser, error) {
	if bucket, object, ok := storage.ParseGSURL(url); ok {
		if f.objects == nil {
			return nil, errNoObjectStore
		}
		return f.objects.OpenObject(ctx, bucket, object)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, &statusError{code: resp.StatusCode}
	}

	return resp.Body, nil
}

func (f *Fetcher) fetchError(kind model.AssetKind, url string, err error) *FetchError {
	transient := httputil.IsTransientError(err)
	var se *statusError
	if errors.As(err, &se) {
		transient = httputil.IsTransientStatus(se.code)
	}
	return &FetchError{Kind: kind, URL: url, Transient: transient, Err: err}
}

func writeFile(path string, src io.Reader) error {
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to download file: %w", err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close local file: %w", err)
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}
