package history

import (
	"context"
	"time"
)

type Entry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Operation string    `json:"operation"`
	Label     string    `json:"label"`
	ElapsedMs int       `json:"elapsed_ms"`
	CacheHit  bool      `json:"cache_hit"`
	CreatedAt time.Time `json:"created_at"`
}

type Stats struct {
	TotalCalls   int64   `json:"total_calls"`
	CacheHits    int64   `json:"cache_hits"`
	AvgElapsedMs float64 `json:"avg_elapsed_ms"`
}

func (db *DB) Record(ctx context.Context, e *Entry) error {
	query := `
        INSERT INTO activity_log (user_id, operation, label, elapsed_ms, cache_hit)
        VALUES ($1, $2, $3, $4, $5)
    `

	_, err := db.Pool.Exec(ctx, query,
		e.UserID,
		e.Operation,
		e.Label,
		e.ElapsedMs,
		e.CacheHit,
	)

	return err
}

func (db *DB) ListByUser(ctx context.Context, userID string, limit int) ([]Entry, error) {
	query := `
        SELECT id, user_id, operation, label, elapsed_ms, cache_hit, created_at
        FROM activity_log
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `

	rows, err := db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Operation, &e.Label, &e.ElapsedMs, &e.CacheHit, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	query := `
        SELECT count(*),
               count(*) FILTER (WHERE cache_hit),
               COALESCE(avg(elapsed_ms), 0)
        FROM activity_log
    `

	var stats Stats
	err := db.Pool.QueryRow(ctx, query).Scan(
		&stats.TotalCalls,
		&stats.CacheHits,
		&stats.AvgElapsedMs,
	)

	if err != nil {
		return nil, err
	}

	return &stats, nil
}
