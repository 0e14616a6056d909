// internal/core/usecases/collector_task.go
package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	perrors "trustscan/internal/platform/errors"
)

// errNoEvidence un colector retornó nil sin error.
var errNoEvidence = errors.New("collector returned no evidence")

// CollectorTask adapta un ports.Collector a workerpool.Task.
type CollectorTask struct {
	collector ports.Collector
	target    domain.Target
	prior     *domain.CheckResults
	priority  int
	weight    int
	timeout   time.Duration

	// Result storage
	evidence domain.Evidence
	err      error
}

// NewCollectorTask crea una nueva CollectorTask. prior se comparte en
// solo lectura entre las tareas del mismo stage.
func NewCollectorTask(collector ports.Collector, target domain.Target, prior *domain.CheckResults, priority, weight int, timeout time.Duration) *CollectorTask {
	return &CollectorTask{
		collector: collector,
		target:    target,
		prior:     prior,
		priority:  priority,
		weight:    weight,
		timeout:   timeout,
	}
}

// Execute ejecuta el colector con su propio timeout.
func (ct *CollectorTask) Execute(ctx context.Context) error {
	if ct.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ct.timeout)
		defer cancel()
	}

	ct.evidence, ct.err = ct.collector.Collect(ctx, ct.target, ct.prior)
	if ct.err == nil && ct.evidence == nil {
		ct.err = errNoEvidence
	}
	if ct.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !perrors.IsTimeout(ct.err) {
		ct.err = fmt.Errorf("%w: %w", perrors.ErrTimeout, ct.err)
	}
	return ct.err
}

// Priority retorna la prioridad de la tarea.
func (ct *CollectorTask) Priority() int {
	return ct.priority
}

// Weight retorna el peso/costo estimado de la tarea.
func (ct *CollectorTask) Weight() int {
	return ct.weight
}

// Name retorna el nombre de la tarea (nombre del colector).
func (ct *CollectorTask) Name() string {
	return ct.collector.Name()
}

// Result retorna la evidencia producida.
func (ct *CollectorTask) Result() (domain.Evidence, error) {
	return ct.evidence, ct.err
}

// estimateCollectorWeight estima el costo de un colector a partir de su metadata.
func estimateCollectorWeight(meta ports.CollectorMetadata) int {
	weight := 30

	// APIs con cuota suelen ser más lentas
	if meta.RateLimit > 0 || meta.RequiresAuth {
		weight += 20
	}
	if meta.Stage > 0 {
		weight += 10
	}

	return min(max(weight, 10), 100)
}
