// internal/platform/registry/collector_registry_test.go
package registry

import (
	"context"
	"errors"
	"testing"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/logx"
	"trustscan/internal/testutil"
)

type stubCollector struct {
	name  string
	stage int
}

func (s *stubCollector) Name() string { return s.name }
func (s *stubCollector) Stage() int   { return s.stage }
func (s *stubCollector) Close() error { return nil }

func (s *stubCollector) Collect(ctx context.Context, target domain.Target, prior *domain.CheckResults) (domain.Evidence, error) {
	return &domain.SSLData{Valid: true}, nil
}

func stubFactory(name string, stage int) CollectorFactory {
	return func(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
		return &stubCollector{name: name, stage: stage}, nil
	}
}

func TestCollectorRegistry_Register(t *testing.T) {
	registry := NewCollectorRegistry(logx.Nop())

	err := registry.Register("ssl", stubFactory("ssl", 0), ports.CollectorMetadata{Stage: 0})
	testutil.AssertNoError(t, err, "register should succeed")
	testutil.AssertTrue(t, registry.IsRegistered("ssl"), "collector should be registered")

	meta, ok := registry.GetMetadata("ssl")
	testutil.AssertTrue(t, ok, "metadata should exist")
	testutil.AssertEqual(t, meta.Name, "ssl", "empty metadata name defaults to registration name")
}

func TestCollectorRegistry_Register_Invalid(t *testing.T) {
	registry := NewCollectorRegistry(logx.Nop())

	testutil.AssertError(t, registry.Register("", stubFactory("x", 0), ports.CollectorMetadata{}), "empty name")
	testutil.AssertError(t, registry.Register("x", nil, ports.CollectorMetadata{}), "nil factory")
	testutil.AssertError(t, registry.Register("x", stubFactory("x", 2), ports.CollectorMetadata{Stage: 2}), "invalid stage")

	_ = registry.Register("dup", stubFactory("dup", 0), ports.CollectorMetadata{})
	testutil.AssertError(t, registry.Register("dup", stubFactory("dup", 0), ports.CollectorMetadata{}), "duplicate registration should fail")
}

func TestCollectorRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	registry := NewCollectorRegistry(logx.Nop())
	registry.MustRegister("whois", stubFactory("whois", 0), ports.CollectorMetadata{})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate MustRegister")
		}
	}()
	registry.MustRegister("whois", stubFactory("whois", 0), ports.CollectorMetadata{})
}

func TestCollectorRegistry_Build_OrdersByStageThenPriority(t *testing.T) {
	registry := NewCollectorRegistry(logx.Nop())
	registry.MustRegister("patterns", stubFactory("patterns", 1), ports.CollectorMetadata{Stage: 1})
	registry.MustRegister("ssl", stubFactory("ssl", 0), ports.CollectorMetadata{Stage: 0})
	registry.MustRegister("whois", stubFactory("whois", 0), ports.CollectorMetadata{Stage: 0})

	configs := map[string]ports.CollectorConfig{
		"patterns": {Enabled: true, Priority: 10},
		"ssl":      {Enabled: true, Priority: 1},
		"whois":    {Enabled: true, Priority: 5},
	}

	collectors, err := registry.Build(configs, logx.Nop())
	testutil.AssertNoError(t, err, "build should succeed")
	testutil.AssertEqual(t, len(collectors), 3, "collector count")

	got := []string{collectors[0].Name(), collectors[1].Name(), collectors[2].Name()}
	want := []string{"whois", "ssl", "patterns"}
	for i := range want {
		testutil.AssertEqual(t, got[i], want[i], "build order")
	}
}

func TestCollectorRegistry_Build_SkipsDisabledAndUnknown(t *testing.T) {
	registry := NewCollectorRegistry(logx.Nop())
	registry.MustRegister("ssl", stubFactory("ssl", 0), ports.CollectorMetadata{})
	registry.MustRegister("whois", stubFactory("whois", 0), ports.CollectorMetadata{})

	configs := map[string]ports.CollectorConfig{
		"ssl":     {Enabled: true},
		"whois":   {Enabled: false},
		"unknown": {Enabled: true},
	}

	collectors, err := registry.Build(configs, logx.Nop())
	testutil.AssertNoError(t, err, "partial build should succeed")
	testutil.AssertEqual(t, len(collectors), 1, "only ssl should be built")
	testutil.AssertEqual(t, collectors[0].Name(), "ssl", "built collector")
}

func TestCollectorRegistry_Build_FactoryErrors(t *testing.T) {
	registry := NewCollectorRegistry(logx.Nop())
	registry.MustRegister("broken", func(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
		return nil, errors.New("missing api key")
	}, ports.CollectorMetadata{})

	_, err := registry.Build(map[string]ports.CollectorConfig{"broken": {Enabled: true}}, logx.Nop())
	testutil.AssertError(t, err, "build with no usable collectors should fail")

	_, err = registry.Build(nil, logx.Nop())
	testutil.AssertError(t, err, "nil configs should fail")
}

func TestCollectorRegistry_DefaultConfigs(t *testing.T) {
	registry := NewCollectorRegistry(logx.Nop())
	registry.MustRegister("github", stubFactory("github", 1), ports.CollectorMetadata{Stage: 1, Priority: 7, RateLimit: 2})

	configs := registry.DefaultConfigs()
	cfg, ok := configs["github"]
	testutil.AssertTrue(t, ok, "github config should exist")
	testutil.AssertTrue(t, cfg.Enabled, "default config is enabled")
	testutil.AssertEqual(t, cfg.Priority, 7, "priority from metadata")
	testutil.AssertEqual(t, cfg.RateLimit, 2, "rate limit from metadata")
}

func TestCollectorRegistry_ListAndClear(t *testing.T) {
	registry := NewCollectorRegistry(logx.Nop())
	registry.MustRegister("b", stubFactory("b", 0), ports.CollectorMetadata{})
	registry.MustRegister("a", stubFactory("a", 0), ports.CollectorMetadata{})

	names := registry.List()
	testutil.AssertLen(t, names, 2, "list length")
	testutil.AssertEqual(t, names[0], "a", "list is sorted")
	testutil.AssertEqual(t, len(registry.GetAllMetadata()), 2, "metadata count")

	registry.Clear()
	testutil.AssertLen(t, registry.List(), 0, "cleared registry")
}
