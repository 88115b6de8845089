package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iconidentify/mediagate/internal/domain"
)

const allocationSchema = `
CREATE TABLE IF NOT EXISTS allocations (
	id         TEXT PRIMARY KEY,
	base_path  TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS allocations_created_at ON allocations (created_at);
`

// SQLiteAllocationRepository implements AllocationRepository on a SQLite file.
type SQLiteAllocationRepository struct {
	db *sql.DB
}

// NewSQLiteAllocationRepository opens (or creates) the journal database at path.
func NewSQLiteAllocationRepository(ctx context.Context, path string) (*SQLiteAllocationRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, allocationSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLiteAllocationRepository{db: db}, nil
}

// Record stores a new allocation.
func (r *SQLiteAllocationRepository) Record(ctx context.Context, alloc domain.Allocation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO allocations (id, base_path, created_at) VALUES (?, ?, ?)`,
		string(alloc.ID), alloc.BasePath, alloc.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record allocation: %w", err)
	}
	return nil
}

// Remove deletes an allocation.
func (r *SQLiteAllocationRepository) Remove(ctx context.Context, id domain.ArtifactID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM allocations WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("remove allocation: %w", err)
	}
	return nil
}

// List returns allocations created before the given time, oldest first.
func (r *SQLiteAllocationRepository) List(ctx context.Context, before time.Time) ([]domain.Allocation, error) {
	query := `SELECT id, base_path, created_at FROM allocations ORDER BY created_at`
	args := []any{}
	if !before.IsZero() {
		query = `SELECT id, base_path, created_at FROM allocations WHERE created_at < ? ORDER BY created_at`
		args = append(args, before.UnixNano())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var result []domain.Allocation
	for rows.Next() {
		var (
			id        string
			basePath  string
			createdAt int64
		)
		if err := rows.Scan(&id, &basePath, &createdAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		result = append(result, domain.Allocation{
			ID:        domain.ArtifactID(id),
			BasePath:  basePath,
			CreatedAt: time.Unix(0, createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocations: %w", err)
	}

	return result, nil
}

// Count returns the number of journaled allocations.
func (r *SQLiteAllocationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM allocations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count allocations: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (r *SQLiteAllocationRepository) Close() error {
	return r.db.Close()
}
