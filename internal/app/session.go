package app

import (
	"errors"
	"log/slog"
	"os"
)

// session owns the transient files of one publish run. Each tracked file is
// removed exactly once, either when its stage is done with it or on release.
type session struct {
	requestID string
	remove    func(path string) error
	files     []string
	removed   map[string]bool
}

func newSession(requestID string, remove func(path string) error) *session {
	if remove == nil {
		remove = os.Remove
	}
	return &session{
		requestID: requestID,
		remove:    remove,
		removed:   make(map[string]bool),
	}
}

func (s *session) track(path string) {
	if path == "" {
		return
	}
	s.files = append(s.files, path)
}

func (s *session) discard(path string) {
	if path == "" || s.removed[path] {
		return
	}
	s.removed[path] = true

	if err := s.remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to remove transient file", "request_id", s.requestID, "path", path, "error", err)
	}
}

func (s *session) release() {
	for _, path := range s.files {
		s.discard(path)
	}
}

// live reports tracked files not yet removed.
func (s *session) live() []string {
	var paths []string
	for _, path := range s.files {
		if !s.removed[path] {
			paths = append(paths, path)
		}
	}
	return paths
}
