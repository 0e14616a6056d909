// internal/core/usecases/scan_service.go
package usecases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/entities"
	"trustscan/internal/core/ports"
	"trustscan/internal/core/scoring"
	perrors "trustscan/internal/platform/errors"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/ui"
	"trustscan/internal/platform/workerpool"
)

const (
	// DefaultScanTimeout deadline global de un escaneo
	DefaultScanTimeout = 30 * time.Second

	// storeTimeout tiempo máximo de cada operación contra el store
	storeTimeout = 10 * time.Second

	// TimeoutNote nota añadida cuando el deadline global corta el escaneo
	TimeoutNote = "Scan timed out - some checks may have failed"

	// IncompleteNote nota de confianza media
	IncompleteNote = "Some scan data may be incomplete"
)

// ScanService coordina un escaneo: validación, atajo de entidades
// conocidas, caché persistente, ejecución de colectores por stages,
// fusión de evidencia y persistencia del reporte.
// Es seguro para uso concurrente; cada Scan trabaja sobre su propio reporte.
type ScanService struct {
	collectors []ports.Collector
	metadata   map[string]ports.CollectorMetadata
	stages     []Stage

	engine   *scoring.Engine
	store    ports.ReportStore
	verified *entities.VerifiedRegistry

	pool             *workerpool.WorkerPool
	workers          int
	timeout          time.Duration
	collectorTimeout time.Duration
	reportTTL        time.Duration

	// Observers para eventos
	observers []ports.Notifier

	// UI Presenter para visualización del progreso
	presenter ui.Presenter

	logger logx.Logger
	now    func() time.Time
}

// ScanServiceOptions configura el servicio de escaneo.
type ScanServiceOptions struct {
	Collectors []ports.Collector

	// Metadata del registry; define dependencias y prioridades
	Metadata map[string]ports.CollectorMetadata

	// Store opcional; sin store no hay caché ni persistencia
	Store ports.ReportStore

	// Verified registro de sitios verificados (opcional)
	Verified *entities.VerifiedRegistry

	Engine    *scoring.Engine
	Workers   int
	Scheduler workerpool.Scheduler

	// Timeout deadline global (0 = DefaultScanTimeout, negativo = sin deadline)
	Timeout          time.Duration
	CollectorTimeout time.Duration
	ReportTTL        time.Duration

	Observers []ports.Notifier
	Presenter ui.Presenter
	Logger    logx.Logger
	Clock     func() time.Time
}

// NewScanService crea el servicio y construye los stages.
func NewScanService(opts ScanServiceOptions) (*ScanService, error) {
	if len(opts.Collectors) == 0 {
		return nil, domain.ErrNoCollectors
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.Presenter == nil {
		opts.Presenter = ui.NewNoopPresenter()
	}
	if opts.Engine == nil {
		opts.Engine = scoring.NewEngine()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultScanTimeout
	}
	if opts.ReportTTL <= 0 {
		opts.ReportTTL = domain.ReportTTL
	}
	if opts.Metadata == nil {
		opts.Metadata = make(map[string]ports.CollectorMetadata)
	}

	stages, err := BuildStages(opts.Collectors, opts.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to build stages: %w", err)
	}

	logger := opts.Logger.With("component", "scan_service")
	for _, stage := range stages {
		logger.Debug("stage details",
			"stage_id", stage.ID,
			"stage_name", stage.Name,
			"collectors", stage.CollectorNames(),
		)
	}

	return &ScanService{
		collectors: opts.Collectors,
		metadata:   opts.Metadata,
		stages:     stages,
		engine:     opts.Engine,
		store:      opts.Store,
		verified:   opts.Verified,
		pool: workerpool.NewWorkerPool(workerpool.WorkerPoolConfig{
			Workers:   opts.Workers,
			Scheduler: opts.Scheduler,
			Logger:    opts.Logger,
		}),
		workers:          opts.Workers,
		timeout:          opts.Timeout,
		collectorTimeout: opts.CollectorTimeout,
		reportTTL:        opts.ReportTTL,
		observers:        opts.Observers,
		presenter:        opts.Presenter,
		logger:           logger,
		now:              opts.Clock,
	}, nil
}

// Stages retorna los stages construidos.
func (s *ScanService) Stages() []Stage {
	return s.stages
}

// Scan ejecuta el escaneo completo de rawURL. Solo retorna error si la URL
// es inválida o el contexto del llamador se cancela: los fallos de
// colectores y del store quedan reflejados en el reporte.
func (s *ScanService) Scan(ctx context.Context, rawURL string) (*domain.ScanReport, error) {
	startTime := time.Now()
	now := s.now()

	target, err := domain.NewTarget(rawURL)
	if err != nil {
		return nil, err
	}

	if entities.IsKnownLegitDomain(target.Domain) {
		s.logger.Info("known entity, skipping collectors", "domain", target.Domain)
		report := knownEntityReport(*target, now, s.reportTTL)
		s.finish(report, nil, time.Since(startTime))
		return report, nil
	}

	if cached := s.lookupCached(ctx, target.Normalized, now); cached != nil {
		s.logger.Info("serving cached report", "url", target.Normalized, "id", cached.ID)
		s.attachBadge(cached)
		s.finish(cached, nil, time.Since(startTime))
		return cached, nil
	}

	report := domain.NewScanReport(*target, now)
	report.ExpiresAt = now.Add(s.reportTTL)

	s.logger.Info("starting scan",
		"url", target.Normalized,
		"collectors", len(s.collectors),
		"stages", len(s.stages),
	)

	s.presenter.Start(ui.ScanInfo{
		Target:         target.String(),
		Workers:        s.workers,
		TimeoutSeconds: int(s.timeout.Seconds()),
		TotalStages:    len(s.stages),
		Collectors:     len(s.collectors),
	})

	s.notifyEvent(ctx, ports.NewEvent(ports.EventTypeScanStarted, "scan_service", target.Normalized, nil))

	scanCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	stageResults := s.runStages(scanCtx, *target, report)

	if err := ctx.Err(); err != nil {
		s.notifyEvent(context.WithoutCancel(ctx), ports.NewEvent(ports.EventTypeScanFailed, "scan_service", target.Normalized, err.Error()))
		return nil, fmt.Errorf("%w: %w", domain.ErrScanCanceled, err)
	}
	if errors.Is(scanCtx.Err(), context.DeadlineExceeded) {
		s.logger.Warn("scan deadline exceeded", "url", target.Normalized, "timeout", s.timeout.String())
		report.AddNote(TimeoutNote)
	}

	result, breakdown := s.engine.Score(report.Checks)
	report.ApplyScoring(result)
	report.Breakdown = &breakdown

	confidence, notes := AssessConfidence(report.Checks)
	report.ScanConfidence = confidence
	report.ScanNotes = append(notes, report.ScanNotes...)

	s.attachBadge(report)
	s.persist(ctx, report)

	s.finish(report, stageResults, time.Since(startTime))
	return report, nil
}

// Report recupera un reporte persistido por ID.
func (s *ScanService) Report(ctx context.Context, id string) (*domain.ScanReport, error) {
	if s.store == nil {
		return nil, domain.ErrReportNotFound
	}
	report, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachBadge(report)
	return report, nil
}

// VerifiedBadge retorna la insignia vigente de un dominio.
func (s *ScanService) VerifiedBadge(domainName string) (*domain.VerifiedBadge, bool) {
	return verifiedBadge(s.verified, domainName)
}

// Close detiene el worker pool y cierra colectores y observers.
func (s *ScanService) Close() error {
	s.pool.Stop()

	var errs []error
	for _, c := range s.collectors {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.Name(), err))
		}
	}
	for _, o := range s.observers {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runStages ejecuta los stages en orden. La evidencia de cada stage se
// aplica al reporte antes de empezar el siguiente.
func (s *ScanService) runStages(ctx context.Context, target domain.Target, report *domain.ScanReport) []StageResult {
	results := make([]StageResult, 0, len(s.stages))

	for _, stage := range s.stages {
		stageStart := time.Now()

		s.presenter.StartStage(ui.StageInfo{
			Number:      stage.ID,
			TotalStages: len(s.stages),
			Name:        stage.Name,
			Collectors:  stage.CollectorNames(),
		})

		stageResult := s.executeStage(ctx, stage, target, report)
		stageResult.Duration = time.Since(stageStart)
		results = append(results, stageResult)

		s.logger.Debug("stage completed",
			"stage_id", stage.ID,
			"stage_name", stage.Name,
			"duration_ms", stageResult.Duration.Milliseconds(),
			"succeeded", stageResult.Succeeded(),
			"failed", stageResult.Failed(),
		)
		s.presenter.FinishStage(stage.ID, stageResult.Duration)
	}

	return results
}

// executeStage ejecuta los colectores del stage en el worker pool.
func (s *ScanService) executeStage(ctx context.Context, stage Stage, target domain.Target, report *domain.ScanReport) StageResult {
	tasks := make([]workerpool.Task, 0, len(stage.Collectors))
	for _, c := range stage.Collectors {
		meta := s.metadata[c.Name()]
		tasks = append(tasks, NewCollectorTask(c, target, report.Checks, meta.Priority, estimateCollectorWeight(meta), s.collectorTimeout))
		s.presenter.StartCollector(stage.ID, c.Name())
	}

	taskResults := s.pool.Submit(ctx, tasks)

	// Orden estable para que warnings y evidencia no dependan del scheduling
	sort.Slice(taskResults, func(i, j int) bool {
		return taskResults[i].Task.Name() < taskResults[j].Task.Name()
	})

	stageResult := StageResult{
		StageID:    stage.ID,
		StageName:  stage.Name,
		Executions: make([]CollectorExecution, 0, len(taskResults)),
	}

	for _, tr := range taskResults {
		name := tr.Task.Name()
		exec := CollectorExecution{Name: name, Error: tr.Error, Duration: tr.Duration}

		if tr.Error == nil {
			ev, _ := tr.Task.(*CollectorTask).Result()
			ev.Apply(report.Checks)
			s.presenter.FinishCollector(name, ui.StatusSuccess, tr.Duration, "")
		} else {
			exec.Skipped = perrors.IsCircuitOpen(tr.Error)
			report.AddWarning(name, tr.Error.Error())

			status := ui.StatusError
			if exec.Skipped {
				status = ui.StatusSkipped
			}
			s.presenter.FinishCollector(name, status, tr.Duration, tr.Error.Error())

			s.logger.Warn("collector failed", "collector", name, "error", tr.Error.Error())
			s.notifyEvent(ctx, ports.NewEvent(ports.EventTypeCollectorFailed, name, target.Normalized, tr.Error.Error()))
		}

		stageResult.Executions = append(stageResult.Executions, exec)
	}

	return stageResult
}

// lookupCached retorna el reporte vigente de la URL o nil. Los errores del
// store se registran y el escaneo continúa.
func (s *ScanService) lookupCached(ctx context.Context, normalizedURL string, now time.Time) *domain.ScanReport {
	if s.store == nil {
		return nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	report, err := s.store.FindByURL(storeCtx, normalizedURL, now)
	if err != nil {
		if !errors.Is(err, domain.ErrReportNotFound) {
			s.logger.Warn("report cache lookup failed", "url", normalizedURL, "error", err.Error())
		}
		return nil
	}
	report.Cached = true
	return report
}

// persist guarda el reporte; un fallo no invalida el resultado.
func (s *ScanService) persist(ctx context.Context, report *domain.ScanReport) {
	if s.store == nil {
		return
	}

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	if err := s.store.Save(storeCtx, report); err != nil {
		s.logger.Warn("failed to persist report", "id", report.ID, "error", err.Error())
	}
}

func (s *ScanService) attachBadge(report *domain.ScanReport) {
	if badge, ok := verifiedBadge(s.verified, report.Domain); ok {
		report.VerifiedBadge = badge
	}
}

// finish notifica al presenter y a los observers.
func (s *ScanService) finish(report *domain.ScanReport, stageResults []StageResult, duration time.Duration) {
	s.logger.Info("scan completed",
		"url", report.NormalizedURL,
		"score", report.RiskScore,
		"level", report.RiskLevel.String(),
		"flags", len(report.RedFlags),
		"warnings", len(report.Warnings),
		"cached", report.Cached,
		"duration_ms", duration.Milliseconds(),
	)

	s.presenter.Finish(Summarize(report, stageResults, duration))

	s.notifyEvent(context.Background(), ports.NewEvent(
		ports.EventTypeScanCompleted,
		"scan_service",
		report.NormalizedURL,
		ports.ScanCompletedEvent{
			ReportID:  report.ID,
			RiskScore: report.RiskScore,
			RiskLevel: report.RiskLevel.String(),
			RedFlags:  len(report.RedFlags),
			Cached:    report.Cached,
			Duration:  duration,
		},
	))
}

// notifyEvent envía una notificación a todos los observers de forma asíncrona.
func (s *ScanService) notifyEvent(ctx context.Context, event ports.Event) {
	for _, observer := range s.observers {
		go func(notifier ports.Notifier) {
			notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()

			if err := notifier.Notify(notifyCtx, event); err != nil {
				s.logger.Warn("notification failed", "event", string(event.Type), "error", err.Error())
			}
		}(observer)
	}
}
