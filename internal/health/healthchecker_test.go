package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeChecker struct {
	name    string
	healthy atomic.Int32
	started atomic.Int32
}

func (f *fakeChecker) Name() string                               { return f.name }
func (f *fakeChecker) IsHealthy() bool                            { return f.healthy.Load() == 1 }
func (f *fakeChecker) Start(ctx context.Context, _ time.Duration) { f.started.Store(1) }

func TestServiceHealthChecker_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeChecker{name: "store"}
	limiter := &fakeChecker{name: "ratelimit"}
	store.healthy.Store(1)
	limiter.healthy.Store(1)

	svc := NewServiceHealthChecker(zerolog.Nop(), store, limiter)
	svc.StartAll(ctx, 10*time.Millisecond)

	waitTrue(t, func() bool { return svc.IsHealthy() })
	waitTrue(t, func() bool { return store.started.Load() == 1 && limiter.started.Load() == 1 })

	limiter.healthy.Store(0)
	waitTrue(t, func() bool { return !svc.IsHealthy() })
	assert.Equal(t, map[string]bool{"store": true, "ratelimit": false}, svc.Components())

	limiter.healthy.Store(1)
	waitTrue(t, func() bool { return svc.IsHealthy() })
}

func TestServiceHealthChecker_NoDependenciesIsHealthy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewServiceHealthChecker(zerolog.Nop())
	go svc.Start(ctx, 10*time.Millisecond)
	waitTrue(t, func() bool { return svc.IsHealthy() })
	assert.Empty(t, svc.Components())
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}

type pingFunc func(context.Context) error

func (f pingFunc) HealthPing(ctx context.Context) error { return f(ctx) }

func TestPingChecker_Probe(t *testing.T) {
	var fail atomic.Bool
	pc := NewPingChecker("redis", pingFunc(func(context.Context) error {
		if fail.Load() {
			return context.DeadlineExceeded
		}
		return nil
	}), zerolog.Nop(), 0)

	assert.Equal(t, "redis", pc.Name())
	assert.False(t, pc.IsHealthy(), "unhealthy until the first probe")
	assert.True(t, pc.Probe(context.Background()))
	assert.True(t, pc.IsHealthy())

	fail.Store(true)
	assert.False(t, pc.Probe(context.Background()))
	assert.False(t, pc.IsHealthy())
}
