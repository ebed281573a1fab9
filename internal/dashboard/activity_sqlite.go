package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const maxRecentActivity = 5000

// SQLiteActivityRepository implements ActivityRepository on the
// activity_log table.
type SQLiteActivityRepository struct {
	db *sql.DB
}

// NewSQLiteActivityRepository creates a repository using an open, migrated database.
func NewSQLiteActivityRepository(db *sql.DB) *SQLiteActivityRepository {
	return &SQLiteActivityRepository{db: db}
}

// Append inserts one entry. A zero Time is stamped with the current time.
func (r *SQLiteActivityRepository) Append(ctx context.Context, e LogEntry) error {
	if e.Kind == "" {
		e.Kind = KindInfo
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO activity_log (kind, line, created_at) VALUES (?, ?, ?)",
		e.Kind,
		e.Line,
		e.Time.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting activity log entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, oldest first.
func (r *SQLiteActivityRepository) Recent(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		return []LogEntry{}, nil
	}
	if limit > maxRecentActivity {
		limit = maxRecentActivity
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, line, created_at FROM (
		     SELECT id, kind, line, created_at FROM activity_log
		     ORDER BY id DESC
		     LIMIT ?
		 ) ORDER BY id ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity log: %w", err)
	}
	defer rows.Close()

	entries := make([]LogEntry, 0, limit)
	for rows.Next() {
		var e LogEntry
		var createdAt string
		if err := rows.Scan(&e.Kind, &e.Line, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning activity log: %w", err)
		}
		e.Time, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing activity log timestamp %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity log: %w", err)
	}
	return entries, nil
}

// Trim keeps only the newest keep entries.
func (r *SQLiteActivityRepository) Trim(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	// Deletes up to and including the (keep+1)th newest id; a no-op
	// while the table holds keep rows or fewer.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM activity_log WHERE id <= (
		     SELECT id FROM activity_log ORDER BY id DESC LIMIT 1 OFFSET ?
		 )`,
		keep,
	)
	if err != nil {
		return fmt.Errorf("trimming activity log: %w", err)
	}
	return nil
}
