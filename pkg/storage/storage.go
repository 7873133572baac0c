// Package storage keeps an append-only sqlite ledger of every record a run
// created in the target store. The migration pipeline only writes to it; the
// runs and stats commands read it back.
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS created_records (
  id          INTEGER PRIMARY KEY,
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  run_id      INTEGER NOT NULL,
  kind        TEXT NOT NULL CHECK (kind IN ('planet','character')),
  name        TEXT NOT NULL,
  odoo_id     INTEGER NOT NULL,
  source_id   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_created_run ON created_records(run_id);
CREATE INDEX IF NOT EXISTS idx_created_kind ON created_records(kind, created_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// RecordCreations appends one row per created record. The ledger is
// append-only: nothing ever updates or deletes rows.
func (d *DB) RecordCreations(ctx context.Context, runID int64, records []CreatedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range records {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO created_records(run_id, kind, name, odoo_id, source_id) VALUES(?,?,?,?,?)`,
			runID, r.Kind, r.Name, r.OdooID, r.SourceID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRecentCreations returns the most recent N created records.
func (d *DB) ListRecentCreations(ctx context.Context, limit int) ([]CreatedRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT created_at, run_id, kind, name, odoo_id, source_id FROM created_records ORDER BY created_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []CreatedRecord{}
	for rows.Next() {
		var r CreatedRecord
		var createdAtStr string
		if err := rows.Scan(&createdAtStr, &r.RunID, &r.Kind, &r.Name, &r.OdooID, &r.SourceID); err != nil {
			return nil, err
		}
		// Parse SQLite CURRENT_TIMESTAMP format
		// Try "2006-01-02 15:04:05" then RFC3339
		if t, perr := time.Parse("2006-01-02 15:04:05", createdAtStr); perr == nil {
			r.CreatedAt = t
		} else if t2, perr2 := time.Parse(time.RFC3339, createdAtStr); perr2 == nil {
			r.CreatedAt = t2
		} else {
			r.CreatedAt = time.Time{}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (d *DB) GetStats(ctx context.Context) ([]KindStats, error) {
	query := `
		SELECT
			kind,
			COUNT(*),
			COUNT(DISTINCT run_id)
		FROM
			created_records
		GROUP BY
			kind
		ORDER BY
			kind;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []KindStats
	for rows.Next() {
		var s KindStats
		if err := rows.Scan(&s.Kind, &s.RecordCount, &s.RunCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
