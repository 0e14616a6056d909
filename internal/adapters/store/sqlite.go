// internal/adapters/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/logx"
)

// DefaultSQLitePath ubicación por defecto de la base de datos.
const DefaultSQLitePath = ".trustscan/trustscan.db"

// SQLiteStore implementa ports.ReportStore sobre SQLite (driver modernc).
type SQLiteStore struct {
	db     *sql.DB
	logger logx.Logger
}

var _ ports.ReportStore = (*SQLiteStore)(nil)

// NewSQLiteStore abre (o crea) la base de datos en dsn y aplica las
// migraciones. dsn vacío usa DefaultSQLitePath; ":memory:" crea una base
// efímera.
func NewSQLiteStore(ctx context.Context, dsn string, logger logx.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logx.New()
	}
	if dsn == "" {
		dsn = DefaultSQLitePath
	}

	inMemory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if !inMemory && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Una sola conexión: las bases en memoria son por conexión y SQLite
	// serializa las escrituras de todos modos
	db.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, db, inMemory); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(ctx, db, goose.DialectSQLite3, "sqlite", logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite report store initialized", "dsn", dsn)

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "sqlite_store"),
	}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB, inMemory bool) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to set %q: %w", p, err)
		}
	}
	return nil
}

// Get implementa ports.ReportStore.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.ScanReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM scans WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	return decodeReport([]byte(data))
}

// FindByURL implementa ports.ReportStore.
func (s *SQLiteStore) FindByURL(ctx context.Context, normalizedURL string, now time.Time) (*domain.ScanReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT report FROM scans
		WHERE normalized_url = ? AND expires_at > ?
		ORDER BY scanned_at DESC
		LIMIT 1
	`, normalizedURL, now.UnixMilli()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find report for %s: %w", normalizedURL, err)
	}
	return decodeReport([]byte(data))
}

// Save implementa ports.ReportStore. Reemplaza cualquier reporte previo
// de la misma URL dentro de una transacción.
func (s *SQLiteStore) Save(ctx context.Context, report *domain.ScanReport) error {
	data, err := encodeReport(report)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scans WHERE normalized_url = ? OR id = ?`, report.NormalizedURL, report.ID); err != nil {
		return fmt.Errorf("delete previous reports: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scans (id, url, normalized_url, domain, risk_score, risk_level, report, scanned_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.URL,
		report.NormalizedURL,
		report.Domain,
		report.RiskScore,
		report.RiskLevel.String(),
		string(data),
		report.ScannedAt.UnixMilli(),
		report.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	return tx.Commit()
}

// DeleteByURL implementa ports.ReportStore.
func (s *SQLiteStore) DeleteByURL(ctx context.Context, normalizedURL string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE normalized_url = ?`, normalizedURL); err != nil {
		return fmt.Errorf("delete reports for %s: %w", normalizedURL, err)
	}
	return nil
}

// PurgeExpired implementa ports.ReportStore.
func (s *SQLiteStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge expired reports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug("expired reports purged", "count", n)
	}
	return int(n), nil
}

// Close implementa ports.ReportStore.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
