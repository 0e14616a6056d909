// internal/platform/workerpool/schedulers.go
package workerpool

import (
	"sort"
)

// PriorityScheduler ordena tareas por prioridad (mayor primero).
type PriorityScheduler struct{}

// NewPriorityScheduler crea un scheduler basado en prioridad.
func NewPriorityScheduler() *PriorityScheduler {
	return &PriorityScheduler{}
}

// Schedule ordena por prioridad descendente; a igual prioridad, las
// tareas más livianas primero. El orden original desempata.
func (s *PriorityScheduler) Schedule(tasks []Task) []Task {
	scheduled := make([]Task, len(tasks))
	copy(scheduled, tasks)

	sort.SliceStable(scheduled, func(i, j int) bool {
		if scheduled[i].Priority() != scheduled[j].Priority() {
			return scheduled[i].Priority() > scheduled[j].Priority()
		}
		return scheduled[i].Weight() < scheduled[j].Weight()
	})

	return scheduled
}

// Name retorna el nombre del scheduler.
func (s *PriorityScheduler) Name() string {
	return "priority"
}

// WeightedScheduler ordena tareas por peso/costo (menor primero) para
// que los colectores rápidos no esperen detrás de los lentos.
type WeightedScheduler struct{}

// NewWeightedScheduler crea un scheduler basado en peso.
func NewWeightedScheduler() *WeightedScheduler {
	return &WeightedScheduler{}
}

// Schedule ordena por peso ascendente; a igual peso, mayor prioridad primero.
func (s *WeightedScheduler) Schedule(tasks []Task) []Task {
	scheduled := make([]Task, len(tasks))
	copy(scheduled, tasks)

	sort.SliceStable(scheduled, func(i, j int) bool {
		if scheduled[i].Weight() != scheduled[j].Weight() {
			return scheduled[i].Weight() < scheduled[j].Weight()
		}
		return scheduled[i].Priority() > scheduled[j].Priority()
	})

	return scheduled
}

// Name retorna el nombre del scheduler.
func (s *WeightedScheduler) Name() string {
	return "weighted"
}

// SchedulerByName retorna el scheduler con ese nombre (priority por defecto).
func SchedulerByName(name string) Scheduler {
	if name == "weighted" {
		return NewWeightedScheduler()
	}
	return NewPriorityScheduler()
}
