package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/health"
)

// Pinger probes a Store. Drivers with a native ping use it; the rest must
// answer a public listing.
type Pinger struct{ Store Store }

func (p Pinger) HealthPing(ctx context.Context) error {
	if hp, ok := p.Store.(health.HealthPinger); ok {
		return hp.HealthPing(ctx)
	}
	_, err := p.Store.Archives().ListPublic(ctx)
	return err
}

// NewHealthChecker reports the store as the "store" component.
// It starts unhealthy until the first probe succeeds.
func NewHealthChecker(s Store, log zerolog.Logger, probeTimeout time.Duration) *health.PingChecker {
	return health.NewPingChecker("store", Pinger{Store: s}, log, probeTimeout)
}
