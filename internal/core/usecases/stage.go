// internal/core/usecases/stage.go
package usecases

import (
	"fmt"
	"time"

	"trustscan/internal/core/ports"
)

// Stage representa una etapa de ejecución del escaneo.
// Un stage agrupa colectores que pueden ejecutarse concurrentemente porque:
// - No dependen entre sí
// - Todo lo que consumen lo produjo un stage anterior
type Stage struct {
	// ID único del stage (0 = primer stage, 1 = segundo, etc.)
	ID int

	// Name nombre descriptivo del stage
	Name string

	// Collectors colectores que se ejecutan en este stage
	Collectors []ports.Collector
}

// StageResult encapsula el resultado de ejecución de un stage completo.
type StageResult struct {
	StageID   int
	StageName string

	// Executions resultado individual de cada colector
	Executions []CollectorExecution

	Duration time.Duration
}

// CollectorExecution resultado de ejecución de un colector individual.
type CollectorExecution struct {
	Name string

	// Error error de ejecución (nil si exitoso)
	Error error

	// Skipped el circuit breaker rechazó la llamada
	Skipped bool

	Duration time.Duration
}

// NewStage crea un nuevo stage.
func NewStage(id int, collectors []ports.Collector) *Stage {
	return &Stage{
		ID:         id,
		Name:       stageName(id),
		Collectors: collectors,
	}
}

// stageName nombre descriptivo según la profundidad del stage.
func stageName(id int) string {
	switch id {
	case 0:
		return "Evidence Collection"
	case 1:
		return "Derived Analysis"
	default:
		return fmt.Sprintf("Stage %d", id)
	}
}

// IsEmpty retorna true si el stage no tiene colectores.
func (s *Stage) IsEmpty() bool {
	return len(s.Collectors) == 0
}

// CollectorNames nombres de los colectores del stage.
func (s *Stage) CollectorNames() []string {
	names := make([]string, 0, len(s.Collectors))
	for _, c := range s.Collectors {
		names = append(names, c.Name())
	}
	return names
}

// Succeeded número de colectores que terminaron sin error.
func (sr *StageResult) Succeeded() int {
	count := 0
	for _, e := range sr.Executions {
		if e.Error == nil {
			count++
		}
	}
	return count
}

// Failed número de colectores que fallaron (sin contar los omitidos).
func (sr *StageResult) Failed() int {
	count := 0
	for _, e := range sr.Executions {
		if e.Error != nil && !e.Skipped {
			count++
		}
	}
	return count
}

// Skipped número de colectores omitidos por circuit breaker.
func (sr *StageResult) Skipped() int {
	count := 0
	for _, e := range sr.Executions {
		if e.Skipped {
			count++
		}
	}
	return count
}
