// internal/platform/registry/collector_registry.go
package registry

import (
	"fmt"
	"sort"
	"sync"

	"trustscan/internal/core/ports"
	"trustscan/internal/platform/logx"
)

// CollectorRegistry gestiona el registro y construcción de colectores.
// Implementa el patrón Registry + Factory para desacoplar la creación
// de colectores del código de aplicación.
type CollectorRegistry struct {
	mu        sync.RWMutex
	factories map[string]CollectorFactory
	metadata  map[string]ports.CollectorMetadata
	logger    logx.Logger
}

// CollectorFactory crea una instancia de Collector a partir de su configuración.
type CollectorFactory func(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error)

var (
	globalRegistry *CollectorRegistry
	once           sync.Once
)

// Global retorna la instancia global del registry.
func Global() *CollectorRegistry {
	once.Do(func() {
		globalRegistry = NewCollectorRegistry(logx.New())
	})
	return globalRegistry
}

// NewCollectorRegistry crea un nuevo registry de colectores.
func NewCollectorRegistry(logger logx.Logger) *CollectorRegistry {
	return &CollectorRegistry{
		factories: make(map[string]CollectorFactory),
		metadata:  make(map[string]ports.CollectorMetadata),
		logger:    logger.With("component", "collector-registry"),
	}
}

// Register registra una factory con su metadata.
// Típicamente llamado desde init() de cada paquete de sources.
func (r *CollectorRegistry) Register(name string, factory CollectorFactory, meta ports.CollectorMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("collector name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil for collector %s", name)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("collector %s is already registered", name)
	}
	if meta.Stage < 0 || meta.Stage > 1 {
		return fmt.Errorf("collector %s has invalid stage %d", name, meta.Stage)
	}

	if meta.Name == "" {
		meta.Name = name
	}
	r.factories[name] = factory
	r.metadata[name] = meta
	r.logger.Debug("collector registered", "name", name, "stage", meta.Stage)

	return nil
}

// MustRegister es Register para init(): un registro inválido es un bug.
func (r *CollectorRegistry) MustRegister(name string, factory CollectorFactory, meta ports.CollectorMetadata) {
	if err := r.Register(name, factory, meta); err != nil {
		panic(err)
	}
}

// Build construye todos los colectores habilitados según la configuración.
// Los colectores que fallan al construirse se omiten con un warning; solo
// es un error que no se pueda construir ninguno.
func (r *CollectorRegistry) Build(configs map[string]ports.CollectorConfig, logger logx.Logger) ([]ports.Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if configs == nil {
		return nil, fmt.Errorf("configs cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	type prioritized struct {
		name   string
		config ports.CollectorConfig
	}

	var (
		candidates []prioritized
		errs       []error
	)
	for name, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		if _, exists := r.factories[name]; !exists {
			errs = append(errs, fmt.Errorf("collector %s not registered in registry", name))
			continue
		}
		if cfg.Priority < 0 {
			r.logger.Warn("invalid priority, using default", "collector", name, "priority", cfg.Priority)
			cfg.Priority = r.metadata[name].Priority
		}
		candidates = append(candidates, prioritized{name: name, config: cfg})
	}

	// Etapa ascendente, luego prioridad descendente, luego nombre
	sort.Slice(candidates, func(i, j int) bool {
		si, sj := r.metadata[candidates[i].name].Stage, r.metadata[candidates[j].name].Stage
		if si != sj {
			return si < sj
		}
		if candidates[i].config.Priority != candidates[j].config.Priority {
			return candidates[i].config.Priority > candidates[j].config.Priority
		}
		return candidates[i].name < candidates[j].name
	})

	collectors := make([]ports.Collector, 0, len(candidates))
	for _, c := range candidates {
		collector, err := r.factories[c.name](c.config, logger)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to build collector %s: %w", c.name, err))
			continue
		}
		collectors = append(collectors, collector)
		r.logger.Debug("collector built", "name", c.name, "priority", c.config.Priority)
	}

	for _, err := range errs {
		r.logger.Warn("collector build error", "error", err.Error())
	}

	if len(collectors) == 0 && len(configs) > 0 {
		return nil, fmt.Errorf("no collectors could be built")
	}

	logger.Debug("collectors built", "count", len(collectors), "requested", len(configs))
	return collectors, nil
}

// DefaultConfigs retorna una configuración habilitada por defecto para
// cada colector registrado, usando la prioridad y rate limit declarados.
func (r *CollectorRegistry) DefaultConfigs() map[string]ports.CollectorConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]ports.CollectorConfig, len(r.metadata))
	for name, meta := range r.metadata {
		cfg := ports.DefaultCollectorConfig()
		cfg.Priority = meta.Priority
		cfg.RateLimit = meta.RateLimit
		out[name] = cfg
	}
	return out
}

// List retorna los nombres de todos los colectores registrados.
func (r *CollectorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetMetadata retorna el metadata de un colector.
func (r *CollectorRegistry) GetMetadata(name string) (ports.CollectorMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.metadata[name]
	return meta, exists
}

// GetAllMetadata retorna una copia del metadata de todos los colectores.
func (r *CollectorRegistry) GetAllMetadata() map[string]ports.CollectorMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]ports.CollectorMetadata, len(r.metadata))
	for name, meta := range r.metadata {
		result[name] = meta
	}
	return result
}

// IsRegistered verifica si un colector está registrado.
func (r *CollectorRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Clear elimina todos los colectores registrados (útil para testing).
func (r *CollectorRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[string]CollectorFactory)
	r.metadata = make(map[string]ports.CollectorMetadata)
}
