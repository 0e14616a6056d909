// internal/core/ports/notifier.go
package ports

import (
	"context"
	"time"
)

// Notifier recibe eventos del ciclo de vida de un escaneo (webhooks,
// auditoría). Los errores de notificación nunca afectan al escaneo.
type Notifier interface {
	// Notify envía una notificación para un evento
	Notify(ctx context.Context, event Event) error

	// Close cierra el notifier y libera recursos
	Close() error
}

// Event representa un evento del sistema.
type Event struct {
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Source    string            `json:"source"`
	Target    string            `json:"target,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EventType define los tipos de eventos del sistema.
type EventType string

const (
	EventTypeScanStarted   EventType = "scan.started"
	EventTypeScanCompleted EventType = "scan.completed"
	EventTypeScanFailed    EventType = "scan.failed"

	EventTypeCollectorFailed EventType = "collector.failed"
)

// NewEvent crea un nuevo evento.
func NewEvent(eventType EventType, source, target string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Target:    target,
		Data:      data,
		Metadata:  make(map[string]string),
	}
}

// ScanCompletedEvent datos del evento de finalización de escaneo.
type ScanCompletedEvent struct {
	ReportID  string        `json:"reportId"`
	RiskScore int           `json:"riskScore"`
	RiskLevel string        `json:"riskLevel"`
	RedFlags  int           `json:"redFlags"`
	Cached    bool          `json:"cached"`
	Duration  time.Duration `json:"durationNs"`
}
