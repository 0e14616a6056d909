// internal/platform/ui/raw_presenter.go
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogFormat define el formato de salida para el modo raw
type LogFormat string

const (
	LogFormatText LogFormat = "text" // Formato logfmt (default)
	LogFormatJSON LogFormat = "json" // Formato JSON estructurado
)

// RawPresenter implementa el Presenter para modo raw (logs sin formato visual).
// Escribe en stderr para no mezclarse con el reporte en stdout.
type RawPresenter struct {
	format    LogFormat
	out       io.Writer
	mu        sync.Mutex
	startTime time.Time
	now       func() time.Time
}

// NewRawPresenter crea un nuevo RawPresenter
func NewRawPresenter(format LogFormat) *RawPresenter {
	return &RawPresenter{
		format:    format,
		out:       os.Stderr,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// WithWriter redirige la salida.
func (r *RawPresenter) WithWriter(w io.Writer) *RawPresenter {
	r.out = w
	return r
}

// log escribe un log en el formato configurado
func (r *RawPresenter) log(level, message string, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timestamp := r.now().UTC().Format(time.RFC3339)

	if r.format == LogFormatJSON {
		r.logJSON(timestamp, level, message, fields)
	} else {
		r.logText(timestamp, level, message, fields)
	}
}

// logText escribe en formato logfmt: timestamp LEVEL message key=value key2=value2
func (r *RawPresenter) logText(timestamp, level, message string, fields map[string]interface{}) {
	parts := []string{timestamp, fmt.Sprintf("%-5s", level), message}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, r.formatValue(fields[k])))
	}

	fmt.Fprintln(r.out, strings.Join(parts, " "))
}

// logJSON escribe en formato JSON estructurado
func (r *RawPresenter) logJSON(timestamp, level, message string, fields map[string]interface{}) {
	logEntry := map[string]interface{}{
		"timestamp": timestamp,
		"level":     level,
		"message":   message,
	}

	if len(fields) > 0 {
		data := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			if d, ok := v.(time.Duration); ok {
				v = d.String()
			}
			data[k] = v
		}
		logEntry["data"] = data
	}

	jsonBytes, _ := json.Marshal(logEntry)
	fmt.Fprintln(r.out, string(jsonBytes))
}

// formatValue formatea valores para logfmt (entrecomilla strings con espacios)
func (r *RawPresenter) formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " =\"") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case time.Duration:
		return formatDuration(val)
	case float64:
		return fmt.Sprintf("%.1f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Start inicia la presentación
func (r *RawPresenter) Start(info ScanInfo) {
	r.startTime = r.now()
	r.log("INFO", "scan_started", map[string]interface{}{
		"target":     info.Target,
		"workers":    info.Workers,
		"timeout":    fmt.Sprintf("%ds", info.TimeoutSeconds),
		"stages":     info.TotalStages,
		"collectors": info.Collectors,
	})
}

// StartStage notifica el inicio de un stage
func (r *RawPresenter) StartStage(stage StageInfo) {
	r.log("INFO", "stage_started", map[string]interface{}{
		"stage":      stage.Number,
		"name":       stage.Name,
		"collectors": strings.Join(stage.Collectors, ","),
	})
}

// FinishStage notifica la finalización de un stage
func (r *RawPresenter) FinishStage(stageNum int, duration time.Duration) {
	r.log("INFO", "stage_completed", map[string]interface{}{
		"stage":    stageNum,
		"duration": duration,
	})
}

// StartCollector notifica el inicio de un colector
func (r *RawPresenter) StartCollector(stageNum int, name string) {
	r.log("INFO", "collector_started", map[string]interface{}{
		"stage":     stageNum,
		"collector": name,
	})
}

// FinishCollector notifica la finalización de un colector
func (r *RawPresenter) FinishCollector(name string, status Status, duration time.Duration, detail string) {
	level := "INFO"
	fields := map[string]interface{}{
		"collector": name,
		"status":    status.String(),
		"duration":  duration,
	}
	if detail != "" {
		fields["detail"] = detail
	}
	if status == StatusError {
		level = "WARN"
	}
	r.log(level, "collector_completed", fields)
}

// Info muestra un mensaje informativo
func (r *RawPresenter) Info(msg string) {
	r.log("INFO", msg, nil)
}

// Warning muestra una advertencia
func (r *RawPresenter) Warning(msg string) {
	r.log("WARN", msg, nil)
}

// Error muestra un error
func (r *RawPresenter) Error(msg string) {
	r.log("ERROR", msg, nil)
}

// Finish emite el resultado del escaneo y una línea por señal de riesgo
func (r *RawPresenter) Finish(s ScanSummary) {
	r.log("INFO", "scan_completed", map[string]interface{}{
		"report_id":  s.ReportID,
		"url":        s.URL,
		"score":      s.RiskScore,
		"level":      s.RiskLevel,
		"confidence": s.Confidence,
		"flags":      len(s.Flags),
		"cached":     s.Cached,
		"duration":   s.Duration,
		"ok":         s.CollectorsOK,
		"failed":     s.CollectorsFailed,
	})

	for _, f := range s.Flags {
		r.log(strings.ToUpper(f.Severity), "red_flag", map[string]interface{}{
			"category": f.Category,
			"message":  f.Message,
		})
	}
}

// Close limpia recursos
func (r *RawPresenter) Close() error {
	return nil
}
