package config

import (
	"fmt"
	"time"

	"pagecrawl/internal/scraper"
)

type Config struct {
	HTTP          HttpConfig          `yaml:"http"`
	Pagination    PaginationConfig    `yaml:"pagination"`
	Vocabulary    scraper.Vocabulary  `yaml:"vocabulary" ignored:"true"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	Server        ServerConfig        `yaml:"server"`
}

type HttpConfig struct {
	UserAgents     []string `yaml:"user_agents" ignored:"true"`
	TimeoutMS      int      `yaml:"timeout_ms" envconfig:"timeout_ms"`
	AcceptLanguage string   `yaml:"accept_language" envconfig:"accept_language"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes" envconfig:"max_body_bytes"`
}

type PaginationConfig struct {
	DefaultMaxPages int `yaml:"default_max_pages" envconfig:"default_max_pages"`
}

const (
	DriverMSSQL  = "mssql"
	DriverSQLite = "sqlite"
)

type StorageConfig struct {
	// Driver is "mssql", "sqlite" or empty for no result sink.
	Driver           string `yaml:"driver" envconfig:"driver"`
	DSN              string `yaml:"dsn" envconfig:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms" envconfig:"command_timeout_ms"`
}

type ObservabilityConfig struct {
	// LogPath is a file path, or "stderr"/"stdout".
	LogPath     string `yaml:"log_path" envconfig:"log_path"`
	LogLevel    string `yaml:"log_level" envconfig:"log_level"`
	MetricsPath string `yaml:"metrics_path" envconfig:"metrics_path"`
}

type ServerConfig struct {
	Addr              string `yaml:"addr" envconfig:"addr"`
	ShutdownTimeoutMS int    `yaml:"shutdown_timeout_ms" envconfig:"shutdown_timeout_ms"`
}

// DefaultUserAgents is the browser identity pool; one is picked per crawl.
func DefaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTP: HttpConfig{
			UserAgents:     DefaultUserAgents(),
			TimeoutMS:      20000,
			AcceptLanguage: "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7",
			MaxBodyBytes:   10 << 20,
		},
		Pagination: PaginationConfig{
			DefaultMaxPages: 1,
		},
		Vocabulary: scraper.DefaultVocabulary(),
		Storage: StorageConfig{
			CommandTimeoutMS: 5000,
		},
		Observability: ObservabilityConfig{
			LogPath:  "stderr",
			LogLevel: "info",
		},
		Server: ServerConfig{
			Addr:              ":5000",
			ShutdownTimeoutMS: 10000,
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if len(c.HTTP.UserAgents) == 0 {
		return fmt.Errorf("http.user_agents must contain at least one entry")
	}
	for _, ua := range c.HTTP.UserAgents {
		if ua == "" {
			return fmt.Errorf("http.user_agents must not contain empty entries")
		}
	}
	if c.HTTP.TimeoutMS <= 0 {
		return fmt.Errorf("http.timeout_ms must be > 0")
	}
	if c.HTTP.AcceptLanguage == "" {
		return fmt.Errorf("http.accept_language is required")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be > 0")
	}
	if c.Pagination.DefaultMaxPages <= 0 {
		return fmt.Errorf("pagination.default_max_pages must be > 0")
	}
	switch c.Storage.Driver {
	case "":
	case DriverMSSQL, DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.driver is set")
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	default:
		return fmt.Errorf("storage.driver must be 'mssql', 'sqlite' or empty")
	}
	if c.Observability.LogPath == "" {
		return fmt.Errorf("observability.log_path is required")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeoutMS <= 0 {
		return fmt.Errorf("server.shutdown_timeout_ms must be > 0")
	}
	return nil
}

// Getters
func (c *Config) GetHTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutMS) * time.Millisecond
}
