package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pagecrawl/internal/checksum"
	"pagecrawl/internal/scraper"
)

// CrawlRun identifies the crawl a batch of records came from.
type CrawlRun struct {
	RunID     string
	Source    string
	CrawledAt time.Time
}

// StoredRecord is a record prepared for insertion.
type StoredRecord struct {
	RunID     string
	Source    string
	CrawledAt time.Time
	CheckSum  string // SHA256 of the record fields
	Payload   string // record JSON, field order kept
}

// Repository is a sink for crawl results.
type Repository interface {
	// SaveRecords stores records, skipping (source, checksum) duplicates,
	// and returns how many rows were new.
	SaveRecords(ctx context.Context, run CrawlRun, records []*scraper.Record) (int, error)

	Close() error
}

// BuildRows turns records into rows with checksum and JSON payload.
func BuildRows(run CrawlRun, records []*scraper.Record) ([]StoredRecord, error) {
	gen := checksum.NewGenerator()
	rows := make([]StoredRecord, 0, len(records))
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		rows = append(rows, StoredRecord{
			RunID:     run.RunID,
			Source:    run.Source,
			CrawledAt: run.CrawledAt.UTC(),
			CheckSum:  gen.GenerateRecordHash(run.Source, rec),
			Payload:   string(payload),
		})
	}
	return rows, nil
}
