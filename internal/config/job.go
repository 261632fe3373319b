package config

import (
	"fmt"
	"os"

	"pagecrawl/internal/scraper"
)

// LoadJob reads and validates a crawl job YAML file.
func LoadJob(filePath string) (*scraper.Job, error) {
	if filePath == "" {
		return nil, fmt.Errorf("job file path is empty")
	}

	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("job file not found: %s: %w", filePath, err)
	}

	var job scraper.Job
	if err := decodeYAMLFile(filePath, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job YAML: %w", err)
	}

	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("job validation error: %w", err)
	}

	return &job, nil
}
