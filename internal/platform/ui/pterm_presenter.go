// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// PTermPresenter implementa Presenter usando la biblioteca pterm
// para renderizar spinners, colores y paneles en la terminal.
type PTermPresenter struct {
	mu sync.Mutex

	// Tracking de progreso
	stages        map[int]*StageProgress
	currentStage  int
	scanStartTime time.Time

	// Spinners activos por colector
	spinners map[string]*pterm.SpinnerPrinter

	scanInfo ScanInfo
}

// StageProgress representa el progreso de un stage completo
type StageProgress struct {
	Number     int
	Name       string
	Status     Status
	Collectors map[string]Status
	StartTime  time.Time
	Duration   time.Duration
}

// NewPTermPresenter crea una nueva instancia del presenter con pterm
func NewPTermPresenter() *PTermPresenter {
	return &PTermPresenter{
		stages:   make(map[int]*StageProgress),
		spinners: make(map[string]*pterm.SpinnerPrinter),
	}
}

// Start inicia la presentación mostrando el header del escaneo
func (p *PTermPresenter) Start(info ScanInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scanInfo = info
	p.scanStartTime = time.Now()

	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgBlue)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("trustscan - URL Trust Scanner")

	pterm.Println()

	infoPanel := pterm.DefaultBox.
		WithTitle("Scan").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgBlue))

	content := fmt.Sprintf("%s Target: %s\n", IconTarget, pterm.Cyan(info.Target))
	content += fmt.Sprintf("%s Collectors: %d in %d stages\n", IconCollectors, info.Collectors, info.TotalStages)
	content += fmt.Sprintf("%s Workers: %d\n", IconWorkers, info.Workers)
	content += fmt.Sprintf("%s Timeout: %ds", IconTime, info.TimeoutSeconds)

	infoPanel.Println(content)
	pterm.Println()
}

// StartStage notifica el inicio de un nuevo stage
func (p *PTermPresenter) StartStage(stage StageInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentStage = stage.Number

	progress := &StageProgress{
		Number:     stage.Number,
		Name:       stage.Name,
		Status:     StatusRunning,
		Collectors: make(map[string]Status, len(stage.Collectors)),
		StartTime:  time.Now(),
	}
	for _, name := range stage.Collectors {
		progress.Collectors[name] = StatusPending
	}
	p.stages[stage.Number] = progress

	pterm.DefaultSection.WithLevel(2).Println(fmt.Sprintf("%s Stage %d/%d: %s",
		IconStage,
		stage.Number+1,
		stage.TotalStages,
		pterm.Cyan(stage.Name),
	))
}

// StartCollector arranca un spinner para el colector
func (p *PTermPresenter) StartCollector(stageNum int, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stage, ok := p.stages[stageNum]; ok {
		stage.Collectors[name] = StatusRunning
	}

	spinner, _ := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷").
		WithRemoveWhenDone(true).
		Start(fmt.Sprintf("  Running %s...", pterm.Cyan(name)))

	p.spinners[name] = spinner
}

// FinishCollector detiene el spinner y deja la línea final
func (p *PTermPresenter) FinishCollector(name string, status Status, duration time.Duration, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, stage := range p.stages {
		if _, ok := stage.Collectors[name]; ok {
			stage.Collectors[name] = status
			break
		}
	}

	if spinner, ok := p.spinners[name]; ok {
		_ = spinner.Stop()
		delete(p.spinners, name)
	}

	line := fmt.Sprintf("  %s %s (%s)", status.Symbol(), name, formatDuration(duration))
	if detail != "" {
		line += ": " + detail
	}
	status.Style().Println(line)
}

// FinishStage notifica la finalización de un stage
func (p *PTermPresenter) FinishStage(stageNum int, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stage, ok := p.stages[stageNum]
	if !ok {
		return
	}

	stage.Status = StatusSuccess
	stage.Duration = duration
	for _, st := range stage.Collectors {
		if st == StatusError {
			stage.Status = StatusWarning
			break
		}
	}

	pterm.Println(pterm.Gray(fmt.Sprintf("  stage %d done in %s", stageNum+1, formatDuration(duration))))
	pterm.Println()
}

// Info muestra un mensaje informativo
func (p *PTermPresenter) Info(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Info.Println(msg)
}

// Warning muestra una advertencia
func (p *PTermPresenter) Warning(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Warning.Println(msg)
}

// Error muestra un error
func (p *PTermPresenter) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Error.Println(msg)
}

// Finish muestra el panel de puntuación y la tabla de señales de riesgo
func (p *PTermPresenter) Finish(s ScanSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, spinner := range p.spinners {
		_ = spinner.Stop()
	}

	pterm.Println(pterm.LightBlue(SeparatorHeavy))
	pterm.Println()

	levelStyle := LevelStyle(s.RiskLevel)

	scorePanel := pterm.DefaultBox.
		WithTitle("Risk Assessment").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgBlue))

	content := fmt.Sprintf("%s %s\n\n", IconTarget, pterm.Cyan(s.URL))
	content += fmt.Sprintf("%s Score: %s %s\n",
		IconShield,
		levelStyle.Sprint(fmt.Sprintf("%3d/100", s.RiskScore)),
		levelStyle.Sprint(scoreBar(s.RiskScore)),
	)
	content += fmt.Sprintf("   Level: %s\n", levelStyle.Sprint(s.RiskLevel))
	content += fmt.Sprintf("   Confidence: %s\n", s.Confidence)
	content += fmt.Sprintf("   Cached: %s", boolToString(s.Cached))
	if s.Verified != "" {
		content += fmt.Sprintf("\n%s Verified: %s", IconSuccess, StyleSuccess.Sprint(s.Verified))
	}
	if s.KnownEntity {
		content += fmt.Sprintf("\n%s Known legitimate entity", IconSuccess)
	}
	scorePanel.Println(content)

	if len(s.Flags) > 0 {
		pterm.Println()
		pterm.DefaultSection.WithLevel(2).Println(fmt.Sprintf("%s Red Flags (%d)", IconFlag, len(s.Flags)))

		tableData := pterm.TableData{{"Severity", "Category", "Message"}}
		for _, f := range s.Flags {
			tableData = append(tableData, []string{
				LevelStyle(f.Severity).Sprint(f.Severity),
				f.Category,
				f.Message,
			})
		}
		_ = pterm.DefaultTable.
			WithHasHeader().
			WithBoxed().
			WithData(tableData).
			Render()
	}

	if len(s.Notes) > 0 {
		pterm.Println()
		pterm.DefaultSection.WithLevel(2).Println("Scan Notes")
		items := make([]pterm.BulletListItem, 0, len(s.Notes))
		for _, n := range s.Notes {
			items = append(items, pterm.BulletListItem{Level: 0, Text: n})
		}
		_ = pterm.DefaultBulletList.WithItems(items).Render()
	}

	for _, w := range s.Warnings {
		pterm.Warning.Println(w)
	}

	pterm.Println()
	pterm.Info.Printf("%s Completed in %s: %d collectors ok, %d failed, %d skipped\n",
		IconTime,
		formatDuration(s.Duration),
		s.CollectorsOK,
		s.CollectorsFailed,
		s.CollectorsSkipped,
	)
	pterm.Println()
}

// Close limpia recursos del presenter
func (p *PTermPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, spinner := range p.spinners {
		_ = spinner.Stop()
	}

	p.spinners = make(map[string]*pterm.SpinnerPrinter)
	return nil
}
