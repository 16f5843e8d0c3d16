// Package app assembles the dispatch components from configuration.
package app

import (
	"fmt"

	"github.com/avelot/fleetdispatch/config"
	"github.com/avelot/fleetdispatch/core/coverage"
	"github.com/avelot/fleetdispatch/core/dispatch"
	"github.com/avelot/fleetdispatch/core/dispatch/audit"
	coremetrics "github.com/avelot/fleetdispatch/core/metrics"
	"github.com/avelot/fleetdispatch/core/store"
	"github.com/avelot/fleetdispatch/core/workload"
	"github.com/avelot/fleetdispatch/infra/logger"
	"github.com/avelot/fleetdispatch/infra/metrics"
	"github.com/avelot/fleetdispatch/infra/notify"
	"github.com/avelot/fleetdispatch/infra/store/memory"
	"github.com/avelot/fleetdispatch/internal/eventbus"
)

// Service wires the evaluator, orchestrator, coverage provider and workload
// balancer to one backend.
type Service struct {
	Backend      store.Backend
	Evaluator    *dispatch.Evaluator
	Orchestrator *dispatch.Orchestrator
	Search       *dispatch.Search
	Coverage     coverage.Provider
	Workload     *workload.Balancer

	bus      eventbus.EventBus
	audit    audit.Store
	notifier *notify.PahoNotifier
	log      logger.Logger
}

// New creates a Service from the configuration. The backend is the seeded
// in-memory store; callers embedding this module wire their own port with
// NewWithBackend.
func New(cfg *config.Config) (*Service, error) {
	if cfg.Store.SeedPath == "" {
		return nil, fmt.Errorf("app: store.seed_path is required")
	}
	mem, err := memory.NewFromSeed(cfg.Store.SeedPath)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(cfg, memory.WithCoverage(mem))
}

// NewWithBackend creates a Service on an externally provided backend.
func NewWithBackend(cfg *config.Config, backend store.Backend) (*Service, error) {
	logg := logger.New("dispatch-service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.Prometheus {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.Influx.URL != "" {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.Influx.URL, cfg.Metrics.Influx.Token, cfg.Metrics.Influx.Org, cfg.Metrics.Influx.Bucket))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	svc := &Service{Backend: backend, bus: eventbus.New(), log: logg}

	timeout := cfg.Dispatch.CallTimeout()
	svc.Evaluator = dispatch.NewEvaluator(svc.Backend, cfg.Dispatch.Weights, timeout, logg)
	orch, err := dispatch.NewOrchestrator(svc.Backend, svc.Evaluator, logg, sink, svc.bus, timeout)
	if err != nil {
		return nil, err
	}
	svc.Orchestrator = orch
	if cfg.Notifier.Enabled {
		notifier, err := notify.NewPahoNotifier(cfg.Notifier.MQTT, logger.New("mqtt-notifier"))
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		svc.notifier = notifier
		orch.SetNotifier(notifier)
	}
	if cfg.Audit.Enabled {
		as, err := audit.NewJSONLStore(cfg.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("audit store: %w", err)
		}
		svc.audit = as
		orch.SetAuditStore(as)
	}

	svc.Search = dispatch.NewSearch(svc.Backend, timeout, logg)
	svc.Coverage = coverage.NewProvider(svc.Backend, logg, sink, svc.bus, timeout)
	svc.Workload = workload.NewBalancer(svc.Backend, cfg.Workload, timeout, logg)
	return svc, nil
}

// Bus exposes the event bus for dashboard subscribers.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.notifier != nil {
		s.notifier.Close()
	}
	if s.audit != nil {
		return s.audit.Close()
	}
	return nil
}
