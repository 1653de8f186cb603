package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ytproxy/internal/app/model"
)

var ErrNotFound = errors.New("request not found")

const timeLayout = time.RFC3339Nano

// Store persists publish requests and the pending delete breadcrumbs of the
// secondary asset store. Every write is a single autocommit statement.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Debug("Database opened", "path", path)
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			video_url TEXT NOT NULL DEFAULT '',
			thumbnail_url TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			category_id TEXT NOT NULL DEFAULT '',
			audience TEXT NOT NULL DEFAULT '',
			privacy_status TEXT NOT NULL DEFAULT '',
			request_status TEXT NOT NULL DEFAULT 'pending',
			video_upload_status TEXT NOT NULL DEFAULT 'not uploaded',
			from_user TEXT NOT NULL DEFAULT '',
			to_user TEXT NOT NULL DEFAULT '',
			video_refresh_token TEXT NOT NULL DEFAULT '',
			video_public_id TEXT NOT NULL DEFAULT '',
			thumbnail_public_id TEXT NOT NULL DEFAULT '',
			requested_date_time TEXT NOT NULL DEFAULT '',
			response_date_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pending_deletes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			public_id TEXT NOT NULL,
			request_id TEXT NOT NULL DEFAULT '',
			resource_type TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_to_user ON videos(to_user)`,
	}

	for _, stmt := range tables {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const requestColumns = `id, video_url, thumbnail_url, title, description, category_id, audience,
	privacy_status, request_status, video_upload_status, from_user, to_user,
	video_refresh_token, video_public_id, thumbnail_public_id, requested_date_time, response_date_time`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*model.Request, error) {
	var (
		req         model.Request
		status      string
		upload      string
		requestedAt string
		respondedAt sql.NullString
	)

	err := row.Scan(
		&req.ID, &req.VideoURL, &req.ThumbnailURL,
		&req.Metadata.Title, &req.Metadata.Description, &req.Metadata.CategoryID,
		&req.Metadata.Audience, &req.Metadata.PrivacyStatus,
		&status, &upload, &req.FromUser, &req.ToUser,
		&req.RefreshToken, &req.VideoPublicID, &req.ThumbnailPublicID,
		&requestedAt, &respondedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Status = model.RequestStatus(status)
	req.UploadStatus = model.UploadStatus(upload)
	req.RequestedAt = parseTime(requestedAt)
	if respondedAt.Valid && respondedAt.String != "" {
		t := parseTime(respondedAt.String)
		req.RespondedAt = &t
	}
	return &req, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func (s *Store) Get(ctx context.Context, id string) (*model.Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM videos WHERE id = ?`, id)

	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request %s: %w", id, err)
	}
	return req, nil
}

// Insert stores a new pending request. An empty ID is filled with a UUID.
func (s *Store) Insert(ctx context.Context, req *model.Request) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = model.StatusPending
	}
	if req.UploadStatus == "" {
		req.UploadStatus = model.UploadNotUploaded
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO videos (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.VideoURL, req.ThumbnailURL,
		req.Metadata.Title, req.Metadata.Description, req.Metadata.CategoryID,
		req.Metadata.Audience, req.Metadata.PrivacyStatus,
		string(req.Status), string(req.UploadStatus), req.FromUser, req.ToUser,
		req.RefreshToken, req.VideoPublicID, req.ThumbnailPublicID,
		formatTime(req.RequestedAt), nullableTime(req.RespondedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// MarkPublished points the record at the platform copy and forgets the
// secondary store public ids.
func (s *Store) MarkPublished(ctx context.Context, id, videoURL, thumbnailURL string) error {
	return s.execOne(ctx, "mark published", `UPDATE videos
		SET video_url = ?, thumbnail_url = ?, video_upload_status = ?,
			video_public_id = '', thumbnail_public_id = ''
		WHERE id = ?`,
		videoURL, thumbnailURL, string(model.UploadUploaded), id)
}

// ClearResponseTime forces the owner to re-approve the request.
func (s *Store) ClearResponseTime(ctx context.Context, id string) error {
	return s.execOne(ctx, "clear response time",
		`UPDATE videos SET response_date_time = NULL WHERE id = ?`, id)
}

// Respond records the owner's decision. Only an approval stores a token.
func (s *Store) Respond(ctx context.Context, id string, approve bool, refreshToken string, now time.Time) error {
	if approve {
		return s.execOne(ctx, "approve request", `UPDATE videos
			SET request_status = ?, video_refresh_token = ?, response_date_time = ?
			WHERE id = ?`,
			string(model.StatusApproved), refreshToken, formatTime(now), id)
	}
	return s.execOne(ctx, "reject request", `UPDATE videos
		SET request_status = ?, response_date_time = ?
		WHERE id = ?`,
		string(model.StatusRejected), formatTime(now), id)
}

func (s *Store) Resend(ctx context.Context, id string) error {
	return s.execOne(ctx, "resend request",
		`UPDATE videos SET request_status = ? WHERE id = ?`, string(model.StatusPending), id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete request", `DELETE FROM videos WHERE id = ?`, id)
}

// ListAwaitingUpload returns approved requests that were never published.
func (s *Store) ListAwaitingUpload(ctx context.Context) ([]*model.Request, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+requestColumns+` FROM videos
		WHERE request_status = ? AND video_upload_status = ?
		ORDER BY requested_date_time`,
		string(model.StatusApproved), string(model.UploadNotUploaded))
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var requests []*model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (s *Store) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	}
	return nil
}
