// Package store implements ports.ReportStore on SQLite, PostgreSQL and
// an in-memory LRU cache, plus the ports.ThreatCache used by threat
// intelligence collectors.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/logx"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// Open returns the report store for driver. An empty driver selects SQLite.
func Open(ctx context.Context, driver, dsn string, logger logx.Logger) (ports.ReportStore, error) {
	switch strings.ToLower(driver) {
	case "", DriverSQLite:
		return NewSQLiteStore(ctx, dsn, logger)
	case DriverPostgres, "postgresql", "pgx":
		return NewPostgresStore(ctx, dsn, logger)
	case DriverMemory:
		return NewMemoryStore(0), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidConfig, driver)
	}
}

// migrate applies the embedded migrations for dialect.
func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string, logger logx.Logger) error {
	fsys, err := fs.Sub(migrations, "migrations/"+dir)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Debug("migration applied", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
	}
	return nil
}

// encodeReport serializa el reporte completo para la columna report.
func encodeReport(report *domain.ScanReport) ([]byte, error) {
	if report == nil || report.ID == "" || report.NormalizedURL == "" {
		return nil, domain.ErrInvalidReport
	}
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidReport, err)
	}
	return data, nil
}

func decodeReport(data []byte) (*domain.ScanReport, error) {
	var report domain.ScanReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidReport, err)
	}
	if report.Checks == nil {
		report.Checks = domain.NewCheckResults(report.Domain)
	}
	// Cached es un atributo de la respuesta, no del dato persistido
	report.Cached = false
	return &report, nil
}
