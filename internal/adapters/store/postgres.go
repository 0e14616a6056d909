// internal/adapters/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/logx"
)

// PostgresStore implementa ports.ReportStore sobre PostgreSQL (pgxpool).
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logx.Logger
}

var _ ports.ReportStore = (*PostgresStore)(nil)

// NewPostgresStore conecta con dsn y aplica las migraciones.
func NewPostgresStore(ctx context.Context, dsn string, logger logx.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = logx.New()
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres store requires a DSN", domain.ErrInvalidConfig)
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 2 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// goose trabaja sobre database/sql; el adaptador comparte el pool
	db := stdlib.OpenDBFromPool(pool)
	err = migrate(ctx, db, goose.DialectPostgres, "postgres", logger)
	db.Close()
	if err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres report store initialized", "host", config.ConnConfig.Host, "database", config.ConnConfig.Database)

	return &PostgresStore{
		pool:   pool,
		logger: logger.With("component", "postgres_store"),
	}, nil
}

// Get implementa ports.ReportStore.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.ScanReport, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT report FROM scans WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	return decodeReport(data)
}

// FindByURL implementa ports.ReportStore.
func (s *PostgresStore) FindByURL(ctx context.Context, normalizedURL string, now time.Time) (*domain.ScanReport, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT report FROM scans
		WHERE normalized_url = $1 AND expires_at > $2
		ORDER BY scanned_at DESC
		LIMIT 1
	`, normalizedURL, now).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find report for %s: %w", normalizedURL, err)
	}
	return decodeReport(data)
}

// Save implementa ports.ReportStore.
func (s *PostgresStore) Save(ctx context.Context, report *domain.ScanReport) error {
	data, err := encodeReport(report)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM scans WHERE normalized_url = $1 OR id = $2`, report.NormalizedURL, report.ID); err != nil {
			return fmt.Errorf("delete previous reports: %w", err)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO scans (id, url, normalized_url, domain, risk_score, risk_level, report, scanned_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			report.ID,
			report.URL,
			report.NormalizedURL,
			report.Domain,
			report.RiskScore,
			report.RiskLevel.String(),
			data,
			report.ScannedAt,
			report.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
		return nil
	})
}

// DeleteByURL implementa ports.ReportStore.
func (s *PostgresStore) DeleteByURL(ctx context.Context, normalizedURL string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM scans WHERE normalized_url = $1`, normalizedURL); err != nil {
		return fmt.Errorf("delete reports for %s: %w", normalizedURL, err)
	}
	return nil
}

// PurgeExpired implementa ports.ReportStore.
func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scans WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired reports: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// HealthCheck verifica la conexión.
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implementa ports.ReportStore.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
