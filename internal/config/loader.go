package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PAGECRAWL_HTTP_TIMEOUT_MS.
const EnvPrefix = "pagecrawl"

// LoadConfig reads filePath over Default(), applies environment overrides
// and validates. An empty filePath skips the file.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		if err := decodeYAMLFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// empty vocabulary lists fall back to the built-in ones
	cfg.Vocabulary = cfg.Vocabulary.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

func decodeYAMLFile(filePath string, out interface{}) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			// logged only, so the decode error is not masked
			log.Printf("Warning: failed to close %s: %v", filePath, closeErr)
		}
	}()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
