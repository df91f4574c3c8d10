package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is one monitored dependency (store, rate limiter backend).
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker folds dependency checkers into the service status
// reported by /api/health. With no dependencies the service is healthy.
type ServiceHealthChecker struct {
	deps    []HealthChecker
	up      atomic.Bool
	checked atomic.Bool
	log     zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{deps: deps, log: log}
}

func (h *ServiceHealthChecker) IsHealthy() bool { return h.up.Load() }

// Components maps dependency name to its last known health.
func (h *ServiceHealthChecker) Components() map[string]bool {
	out := make(map[string]bool, len(h.deps))
	for _, c := range h.deps {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

// StartAll launches every dependency checker plus the aggregate loop.
// All of them stop with ctx.
func (h *ServiceHealthChecker) StartAll(ctx context.Context, interval time.Duration) {
	for _, c := range h.deps {
		go c.Start(ctx, interval)
	}
	go h.Start(ctx, interval)
}

// Start re-evaluates the aggregate every interval until ctx is done.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.evaluate()
		}
	}
}

func (h *ServiceHealthChecker) evaluate() {
	var down []string
	for _, c := range h.deps {
		if !c.IsHealthy() {
			down = append(down, c.Name())
		}
	}
	up := len(down) == 0
	prev := h.up.Swap(up)
	first := !h.checked.Swap(true)
	if !first && prev == up {
		return
	}
	if up {
		h.log.Info().Int("dependencies", len(h.deps)).Msg("service healthy")
		return
	}
	h.log.Warn().Strs("down", down).Msg("service degraded")
}
