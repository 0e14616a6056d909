// internal/platform/workerpool/worker_pool.go
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"trustscan/internal/platform/logx"
)

// ErrPoolStopped se devuelve para las tareas que no llegaron a ejecutarse
// porque el pool se detuvo.
var ErrPoolStopped = errors.New("worker pool stopped")

// Task representa una tarea a ejecutar en el worker pool.
type Task interface {
	// Execute ejecuta la tarea
	Execute(ctx context.Context) error

	// Priority retorna la prioridad de la tarea (mayor = más prioritario)
	Priority() int

	// Weight retorna el peso/costo estimado de la tarea (0-100)
	Weight() int

	// Name retorna el nombre de la tarea
	Name() string
}

// Scheduler define la estrategia de scheduling.
type Scheduler interface {
	// Schedule ordena las tareas según la estrategia
	Schedule(tasks []Task) []Task

	// Name retorna el nombre del scheduler
	Name() string
}

// TaskResult representa el resultado de una tarea.
type TaskResult struct {
	Task     Task
	Error    error
	Duration time.Duration
}

// job asocia una tarea con el contexto y el canal de su llamada a Submit.
type job struct {
	ctx  context.Context
	task Task
	out  chan<- TaskResult
}

// WorkerPool ejecuta tareas concurrentemente con un número fijo de
// workers. Es seguro llamar a Submit desde varias goroutines: cada
// llamada recibe solo sus propios resultados y ejecuta sus tareas con
// su propio contexto.
type WorkerPool struct {
	workers   int
	scheduler Scheduler
	logger    logx.Logger

	queue chan job
	done  chan struct{}

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once

	active    atomic.Int64
	completed atomic.Int64
}

// WorkerPoolConfig configura el worker pool.
type WorkerPoolConfig struct {
	Workers   int
	Scheduler Scheduler
	Logger    logx.Logger
}

// NewWorkerPool crea un nuevo worker pool.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewPriorityScheduler()
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.New()
	}

	return &WorkerPool{
		workers:   cfg.Workers,
		scheduler: cfg.Scheduler,
		logger:    cfg.Logger.With("component", "worker-pool"),
		queue:     make(chan job),
		done:      make(chan struct{}),
	}
}

// Start inicia los workers. Llamadas repetidas no tienen efecto.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		wp.logger.Debug("starting worker pool", "workers", wp.workers, "scheduler", wp.scheduler.Name())
		for i := 0; i < wp.workers; i++ {
			wp.wg.Add(1)
			go wp.worker(i)
		}
	})
}

// worker es el goroutine que procesa tareas.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.done:
			return
		case j := <-wp.queue:
			wp.execute(id, j)
		}
	}
}

// execute ejecuta una tarea; un panic se convierte en error.
func (wp *WorkerPool) execute(workerID int, j job) {
	if err := j.ctx.Err(); err != nil {
		j.out <- TaskResult{Task: j.task, Error: err}
		return
	}

	wp.active.Add(1)
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task %s panicked: %v", j.task.Name(), r)
			}
		}()
		return j.task.Execute(j.ctx)
	}()

	duration := time.Since(start)
	wp.active.Add(-1)
	wp.completed.Add(1)

	wp.logger.Debug("task completed",
		"worker_id", workerID,
		"task", j.task.Name(),
		"duration_ms", duration.Milliseconds(),
		"error", err != nil,
	)

	j.out <- TaskResult{Task: j.task, Error: err, Duration: duration}
}

// Submit ejecuta las tareas y espera a que todas terminen. Retorna un
// resultado por tarea en orden de finalización. Las tareas que no
// llegan a empezar antes de que ctx termine reportan ctx.Err().
func (wp *WorkerPool) Submit(ctx context.Context, tasks []Task) []TaskResult {
	if len(tasks) == 0 {
		return []TaskResult{}
	}
	wp.Start()

	scheduled := wp.scheduler.Schedule(tasks)
	out := make(chan TaskResult, len(scheduled))

	go func() {
		for i, task := range scheduled {
			select {
			case wp.queue <- job{ctx: ctx, task: task, out: out}:
			case <-ctx.Done():
				skip(scheduled[i:], ctx.Err(), out)
				return
			case <-wp.done:
				skip(scheduled[i:], ErrPoolStopped, out)
				return
			}
		}
	}()

	results := make([]TaskResult, 0, len(scheduled))
	for range scheduled {
		results = append(results, <-out)
	}
	return results
}

func skip(tasks []Task, err error, out chan<- TaskResult) {
	for _, t := range tasks {
		out <- TaskResult{Task: t, Error: err}
	}
}

// Stop detiene el worker pool y espera a que los workers terminen las
// tareas en curso.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.done)
		wp.wg.Wait()
		wp.logger.Debug("worker pool stopped", "completed", wp.completed.Load())
	})
}

// Stats retorna estadísticas del worker pool.
func (wp *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		Workers:       wp.workers,
		SchedulerName: wp.scheduler.Name(),
		Active:        int(wp.active.Load()),
		Completed:     int(wp.completed.Load()),
	}
}

// WorkerPoolStats contiene estadísticas del worker pool.
type WorkerPoolStats struct {
	Workers       int
	SchedulerName string
	Active        int
	Completed     int
}
