// internal/core/usecases/dependency_graph.go
package usecases

import (
	"fmt"
	"sort"

	"trustscan/internal/core/ports"
)

// dependencyGraph representa el grafo de dependencias entre colectores.
type dependencyGraph struct {
	// nodes mapea nombre de colector a su índice en el slice
	nodes map[string]int

	collectors []ports.Collector

	// adjacencyList[A] = [B, C] significa que B y C consumen resultados de A
	adjacencyList map[int][]int

	// inDegree número de dependencias presentes de cada colector
	inDegree map[int]int
}

// buildDependencyGraph construye el grafo a partir de CollectorMetadata.Requires.
// Las dependencias sobre colectores deshabilitados se ignoran: el colector
// se ejecuta igualmente y decide qué hacer con la evidencia ausente.
func buildDependencyGraph(collectors []ports.Collector, metadata map[string]ports.CollectorMetadata) *dependencyGraph {
	graph := &dependencyGraph{
		nodes:         make(map[string]int, len(collectors)),
		collectors:    collectors,
		adjacencyList: make(map[int][]int),
		inDegree:      make(map[int]int, len(collectors)),
	}

	for i, c := range collectors {
		graph.nodes[c.Name()] = i
		graph.inDegree[i] = 0
	}

	for i, c := range collectors {
		for _, required := range metadata[c.Name()].Requires {
			j, ok := graph.nodes[required]
			if !ok || j == i {
				continue
			}
			graph.adjacencyList[j] = append(graph.adjacencyList[j], i)
			graph.inDegree[i]++
		}
	}

	return graph
}

// BuildStages agrupa los colectores en stages con el algoritmo de Kahn.
// El stage de un colector es el mayor entre el declarado por Stage() y
// uno más que el de cualquiera de sus dependencias. Los niveles vacíos se
// compactan.
func BuildStages(collectors []ports.Collector, metadata map[string]ports.CollectorMetadata) ([]Stage, error) {
	n := len(collectors)
	if n == 0 {
		return nil, fmt.Errorf("no collectors in graph")
	}

	graph := buildDependencyGraph(collectors, metadata)

	currentInDegree := make(map[int]int, n)
	level := make([]int, n)
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		currentInDegree[i] = graph.inDegree[i]
		level[i] = max(collectors[i].Stage(), 0)
		if currentInDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	processed := 0
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		processed++

		for _, dependent := range graph.adjacencyList[idx] {
			level[dependent] = max(level[dependent], level[idx]+1)
			currentInDegree[dependent]--
			if currentInDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if processed != n {
		unprocessed := make([]string, 0)
		for i := 0; i < n; i++ {
			if currentInDegree[i] > 0 {
				unprocessed = append(unprocessed, collectors[i].Name())
			}
		}
		sort.Strings(unprocessed)
		return nil, fmt.Errorf("circular dependency detected involving collectors: %v", unprocessed)
	}

	byLevel := make(map[int][]ports.Collector)
	levels := make([]int, 0)
	for i, c := range collectors {
		if _, seen := byLevel[level[i]]; !seen {
			levels = append(levels, level[i])
		}
		byLevel[level[i]] = append(byLevel[level[i]], c)
	}
	sort.Ints(levels)

	stages := make([]Stage, 0, len(levels))
	for id, l := range levels {
		stages = append(stages, *NewStage(id, byLevel[l]))
	}
	return stages, nil
}
