// internal/core/domain/errors.go
package domain

import "errors"

// Errores de dominio comunes.
var (
	// Collector errors
	ErrCollectorNotFound = errors.New("collector not found")
	ErrNoCollectors      = errors.New("no collectors available for scan")
	ErrMissingInput      = errors.New("required input from previous stage is missing")

	// Scan errors
	ErrScanFailed   = errors.New("scan failed")
	ErrScanTimeout  = errors.New("scan timeout exceeded")
	ErrScanCanceled = errors.New("scan was canceled")

	// Report errors
	ErrReportNotFound = errors.New("report not found")
	ErrInvalidReport  = errors.New("invalid report")

	// Configuration errors
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrConfigLoadFailed = errors.New("failed to load configuration")

	// Export errors
	ErrExportFailed      = errors.New("export failed")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
