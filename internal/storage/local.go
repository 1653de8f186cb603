package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// LocalStorage is the transient staging directory. Files are named
// <request id>_<uuid>.<ext> so concurrent runs never collide.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) EnsureDirectory() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	return nil
}

func (s *LocalStorage) TransientPath(requestID, ext string) string {
	prefix := sanitizeForPath(requestID)
	if prefix == "" {
		prefix = "request"
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.%s", prefix, uuid.NewString(), ext))
}

func (s *LocalStorage) Remove(path string) error {
	return os.Remove(path)
}

func (s *LocalStorage) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read staging directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(s.dir, entry.Name()))
	}

	return files, nil
}

// RemoveStale deletes staged files older than maxAge, left behind by a
// process that died mid-run.
func (s *LocalStorage) RemoveStale(maxAge time.Duration, now time.Time) (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
	}

	return removed, nil
}

func sanitizeForPath(s string) string {
	s = sanitizeRegex.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
