// internal/platform/ui/noop_presenter.go
package ui

import "time"

// NoopPresenter es una implementación vacía del Presenter
// que no produce ninguna salida. Útil para modo quiet y para el API HTTP.
type NoopPresenter struct{}

// NewNoopPresenter crea una instancia del presenter sin salida
func NewNoopPresenter() *NoopPresenter {
	return &NoopPresenter{}
}

func (n *NoopPresenter) Start(info ScanInfo)                              {}
func (n *NoopPresenter) StartStage(stage StageInfo)                       {}
func (n *NoopPresenter) FinishStage(stageNum int, duration time.Duration) {}
func (n *NoopPresenter) StartCollector(stageNum int, name string)         {}
func (n *NoopPresenter) FinishCollector(name string, status Status, duration time.Duration, detail string) {
}
func (n *NoopPresenter) Info(msg string)            {}
func (n *NoopPresenter) Warning(msg string)         {}
func (n *NoopPresenter) Error(msg string)           {}
func (n *NoopPresenter) Finish(summary ScanSummary) {}
func (n *NoopPresenter) Close() error               { return nil }

// New construye el presenter para el modo indicado.
func New(mode UIMode) Presenter {
	switch mode {
	case UIModeRaw:
		return NewRawPresenter(LogFormatText)
	case UIModeQuiet:
		return NewNoopPresenter()
	default:
		return NewPTermPresenter()
	}
}
