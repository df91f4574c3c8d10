// Package archiveservice assembles and runs the musui HTTP server.
package archiveservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/api"
	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/config"
	"github.com/musui/musui-server/internal/factory"
	"github.com/musui/musui-server/internal/health"
	"github.com/musui/musui-server/internal/identity"
	"github.com/musui/musui-server/internal/localstore"
	"github.com/musui/musui-server/internal/logger"
	"github.com/musui/musui-server/internal/ratelimit"
	"github.com/musui/musui-server/internal/services"
	"github.com/musui/musui-server/internal/store"
)

// Run starts the archive service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("musui-server")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log = logger.SetGlobal(log, cfg.LogLevel)

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Bool("auth_configured", cfg.AuthConfigured()).
		Msg("Archive service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	deps, cleanup, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	svcHealth := startHealthCheckers(ctx, cfg, log, deps.store, deps.redis)
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		// serve anyway; reads degrade and /api/health reports the outage
		log.Warn().Err(err).Msg("starting with unhealthy dependencies")
	}

	router := api.NewRouter(api.Deps{
		Config:     cfg,
		Log:        log,
		Archives:   services.NewArchiveService(deps.store, log),
		Profiles:   services.NewProfileService(deps.store),
		Accounts:   services.NewAccountService(identity.NewDirectory(cfg), deps.store),
		Identity:   identity.NewProvider(cfg, log),
		Local:      deps.local,
		Catalog:    deps.catalog,
		Limiter:    deps.limiter,
		IsHealthy:  svcHealth.IsHealthy,
		Components: svcHealth.Components,
	})

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

type dependencies struct {
	store   store.Store
	catalog *catalog.Catalog
	local   *localstore.Registry
	limiter ratelimit.Limiter
	redis   *ratelimit.Redis
}

// initDependencies builds the store, catalog, device registry and rate limiter.
// An absent store is not an error: the service runs in degraded mode.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	d := &dependencies{}
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, cleanup, err
	}
	if st != nil {
		d.store = st
		closers = append(closers, func() { _ = st.Close() })
	}

	d.catalog, err = catalog.Load(cfg.CatalogPath)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("load catalog: %w", err)
	}

	d.local = localstore.NewRegistry(cfg.LocalStoreTTL(), log)
	go d.local.Run(ctx, time.Minute)

	if cfg.RedisAddr != "" {
		d.redis = ratelimit.NewRedis(cfg.RedisAddr, cfg.RateLimitRPS, cfg.RateLimitBurst)
		d.limiter = d.redis
		closers = append(closers, func() { _ = d.redis.Close() })
		log.Info().Str("addr", cfg.RedisAddr).Msg("rate limiting via redis")
	} else {
		mem := ratelimit.NewMemory(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go mem.Run(ctx)
		d.limiter = mem
	}
	return d, cleanup, nil
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, redis *ratelimit.Redis) *health.ServiceHealthChecker {
	var checkers []health.HealthChecker
	probeTimeout := cfg.HealthProbeTimeout()

	if st != nil {
		checkers = append(checkers, store.NewHealthChecker(st, log, probeTimeout))
	}
	if redis != nil {
		checkers = append(checkers, health.NewPingChecker("ratelimit", redis, log, probeTimeout))
	}

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	svcHealth.StartAll(ctx, cfg.HealthInterval())
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 10 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 10 {
		return 10
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
