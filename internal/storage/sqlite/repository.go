package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pagecrawl/internal/observability"
	"pagecrawl/internal/scraper"
	"pagecrawl/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS crawl_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	source TEXT NOT NULL,
	crawled_at TEXT NOT NULL,
	checksum TEXT NOT NULL,
	payload TEXT NOT NULL,
	UNIQUE (source, checksum)
);
`

const insertRecord = `
	INSERT OR IGNORE INTO crawl_records (run_id, source, crawled_at, checksum, payload)
	VALUES (?, ?, ?, ?, ?)
`

// Repository stores records in a local SQLite file.
type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dbPath string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Repository{db: db, commandTimeout: commandTimeout, logger: logger}, nil
}

func (r *Repository) SaveRecords(ctx context.Context, run storage.CrawlRun, records []*scraper.Record) (int, error) {
	rows, err := storage.BuildRows(run, records)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, row := range rows {
		result, err := stmt.ExecContext(ctx,
			row.RunID,
			row.Source,
			row.CrawledAt.Format(time.RFC3339),
			row.CheckSum,
			row.Payload,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert record: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		saved += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Records saved", "run_id", run.RunID, "saved", saved, "skipped", len(rows)-saved)
	return saved, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}
