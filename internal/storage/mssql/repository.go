package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"pagecrawl/internal/observability"
	"pagecrawl/internal/scraper"
	"pagecrawl/internal/storage"
)

const schema = `
IF OBJECT_ID(N'dbo.TblCrawlRecords', N'U') IS NULL
BEGIN
	CREATE TABLE dbo.TblCrawlRecords (
		[UID]       BIGINT IDENTITY(1,1) PRIMARY KEY,
		[RunID]     NVARCHAR(36)  NOT NULL,
		[Source]    NVARCHAR(800) NOT NULL,
		[CrawledAt] DATETIME2     NOT NULL,
		[CheckSum]  CHAR(64)      NOT NULL,
		[Payload]   NVARCHAR(MAX) NOT NULL,
		CONSTRAINT UQ_TblCrawlRecords_Source_CheckSum UNIQUE ([Source], [CheckSum])
	);
END`

const mergeRecord = `
	MERGE INTO dbo.TblCrawlRecords AS target
	USING (SELECT @Source AS Source, @CheckSum AS CheckSum) AS source
	ON target.[Source] = source.Source AND target.[CheckSum] = source.CheckSum
	WHEN NOT MATCHED THEN
		INSERT ([RunID], [Source], [CrawledAt], [CheckSum], [Payload])
		VALUES (@RunID, @Source, @CrawledAt, @CheckSum, @Payload);
`

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}
	if err := r.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) initSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRecords inserts through MERGE; existing (source, checksum) rows are skipped.
func (r *Repository) SaveRecords(ctx context.Context, run storage.CrawlRun, records []*scraper.Record) (int, error) {
	rows, err := storage.BuildRows(run, records)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	stmt, err := r.db.PrepareContext(ctx, mergeRecord)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	saved := 0
	for _, row := range rows {
		result, err := stmt.ExecContext(ctx,
			sql.Named("RunID", row.RunID),
			sql.Named("Source", row.Source),
			sql.Named("CrawledAt", row.CrawledAt),
			sql.Named("CheckSum", row.CheckSum),
			sql.Named("Payload", row.Payload),
		)
		if err != nil {
			return saved, fmt.Errorf("failed to execute merge: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return saved, fmt.Errorf("failed to get rows affected: %w", err)
		}
		// 0 means the row already exists
		saved += int(rowsAffected)
	}

	r.logger.Info("Records saved", "run_id", run.RunID, "saved", saved, "skipped", len(rows)-saved)
	return saved, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
