package store

import (
	"context"
	"fmt"
	"time"

	"ytproxy/internal/app/model"
)

// RecordPendingDelete writes the intent breadcrumb before a remote delete.
func (s *Store) RecordPendingDelete(ctx context.Context, pd model.PendingDelete) (int64, error) {
	if pd.CreatedAt.IsZero() {
		pd.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO pending_deletes (public_id, request_id, resource_type, created_at)
		VALUES (?, ?, ?, ?)`,
		pd.PublicID, pd.RequestID, string(pd.Kind), formatTime(pd.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to record pending delete: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to record pending delete: %w", err)
	}
	return id, nil
}

func (s *Store) ClearPendingDelete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_deletes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear pending delete %d: %w", id, err)
	}
	return nil
}

// ListPendingDeletes returns breadcrumbs left by interrupted deletes, oldest first.
func (s *Store) ListPendingDeletes(ctx context.Context) ([]model.PendingDelete, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, public_id, request_id, resource_type, created_at FROM pending_deletes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deletes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var deletes []model.PendingDelete
	for rows.Next() {
		var (
			pd        model.PendingDelete
			kind      string
			createdAt string
		)
		if err := rows.Scan(&pd.ID, &pd.PublicID, &pd.RequestID, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending delete: %w", err)
		}
		pd.Kind = model.AssetKind(kind)
		pd.CreatedAt = parseTime(createdAt)
		deletes = append(deletes, pd)
	}
	return deletes, rows.Err()
}
