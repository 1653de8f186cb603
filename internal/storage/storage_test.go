package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseGSURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantBucket string
		wantObject string
		wantOK     bool
	}{
		{name: "valid", url: "gs://bucket/staging/video.mp4", wantBucket: "bucket", wantObject: "staging/video.mp4", wantOK: true},
		{name: "http", url: "https://example.com/video.mp4", wantOK: false},
		{name: "noObject", url: "gs://bucket", wantOK: false},
		{name: "emptyObject", url: "gs://bucket/", wantOK: false},
		{name: "emptyBucket", url: "gs:///object", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, object, ok := ParseGSURL(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ParseGSURL(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseGSURL(%q) = %q, %q", tt.url, bucket, object)
			}
		})
	}
}

func TestGSURLRoundTrip(t *testing.T) {
	bucket, object, ok := ParseGSURL(GSURL("b", "dir/o.jpg"))
	if !ok || bucket != "b" || object != "dir/o.jpg" {
		t.Errorf("round trip = %q, %q, %v", bucket, object, ok)
	}
}

func TestLocalStorageTransientPath(t *testing.T) {
	s := NewLocalStorage("/staging")

	first := s.TransientPath("req-1", "mp4")
	second := s.TransientPath("req-1", "mp4")

	if first == second {
		t.Error("TransientPath() should add a random suffix")
	}
	if filepath.Dir(first) != "/staging" {
		t.Errorf("TransientPath() dir = %q, want /staging", filepath.Dir(first))
	}
	base := filepath.Base(first)
	if !strings.HasPrefix(base, "req-1_") || !strings.HasSuffix(base, ".mp4") {
		t.Errorf("TransientPath() = %q, want req-1_<uuid>.mp4", base)
	}
}

func TestLocalStorageTransientPathSanitizes(t *testing.T) {
	s := NewLocalStorage("/staging")

	path := s.TransientPath("../../etc/passwd", "jpg")
	if filepath.Dir(path) != "/staging" {
		t.Errorf("TransientPath() escaped staging dir: %q", path)
	}

	path = s.TransientPath("", "jpg")
	if !strings.HasPrefix(filepath.Base(path), "request_") {
		t.Errorf("TransientPath() with empty id = %q", path)
	}
}

func TestLocalStorageListMissingDir(t *testing.T) {
	s := NewLocalStorage(filepath.Join(t.TempDir(), "missing"))

	files, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("List() = %v, want empty", files)
	}
}

func TestLocalStorageEnsureDirectoryIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "videos")
	s := NewLocalStorage(dir)

	for i := 0; i < 2; i++ {
		if err := s.EnsureDirectory(); err != nil {
			t.Fatalf("EnsureDirectory() call %d error = %v", i+1, err)
		}
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("staging dir not created: %v", err)
	}
}

func TestLocalStorageRemoveStale(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)

	oldPath := filepath.Join(dir, "old.mp4")
	freshPath := filepath.Join(dir, "fresh.jpg")
	_ = os.WriteFile(oldPath, []byte("old"), 0644)
	_ = os.WriteFile(freshPath, []byte("fresh"), 0644)

	now := time.Now()
	_ = os.Chtimes(oldPath, now.Add(-48*time.Hour), now.Add(-48*time.Hour))

	removed, err := s.RemoveStale(24*time.Hour, now)
	if err != nil {
		t.Fatalf("RemoveStale() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("RemoveStale() removed = %d, want 1", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("old file should be removed")
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Error("fresh file should be kept")
	}
}
