package main

import (
	"fmt"

	"pagecrawl/internal/config"
	"pagecrawl/internal/observability"
	"pagecrawl/internal/storage"
	"pagecrawl/internal/storage/mssql"
	"pagecrawl/internal/storage/sqlite"
)

func openRepository(cfg *config.Config, logger *observability.Logger) (storage.Repository, error) {
	switch cfg.Storage.Driver {
	case config.DriverMSSQL:
		return mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	case config.DriverSQLite:
		return sqlite.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	case "":
		return nil, fmt.Errorf("storage.driver is not configured")
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
