package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/config"
	storepkg "github.com/musui/musui-server/internal/store"
	"github.com/musui/musui-server/internal/store/cloudspanner"
	storepg "github.com/musui/musui-server/internal/store/postgres"
	storesqlite "github.com/musui/musui-server/internal/store/sqlite"
)

// ClosableStore is a store.Store owning a connection pool or client.
type ClosableStore interface {
	storepkg.Store
	Close() error
}

const bootstrapTimeout = 30 * time.Second

// NewStore builds the store selected by cfg.DBDriver. DriverNone returns a nil
// store and no error: the service runs with storage-backed endpoints degraded.
// Schema creation runs in the background when AutoMigrate is set so startup stays fast.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ClosableStore, error) {
	switch cfg.DBDriver {
	case config.DriverNone:
		log.Warn().Msg("no storage driver configured; remote archives disabled")
		return nil, nil

	case config.DriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("MUSUI_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		// Open connection synchronously since health checks need it immediately
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			bootstrap(ctx, cfg, log, func(ctx context.Context) error { return storepg.EnsureSchema(ctx, db) })
		}
		return storepg.NewWithDB(db), nil

	case config.DriverSQLite:
		db, err := storesqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		// sqlite is local; create the schema before serving
		if err := storesqlite.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return storesqlite.NewWithDB(db), nil

	case config.DriverSpanner:
		client, err := cloudspanner.Open(ctx, cfg.SpannerDatabase, cfg.SpannerEmulatorHost)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			bootstrap(ctx, cfg, log, func(ctx context.Context) error {
				return cloudspanner.EnsureSchema(ctx, client, cfg.SpannerDatabase, cfg.SpannerEmulatorHost)
			})
		}
		return cloudspanner.New(client), nil
	}
	return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
}

// bootstrap runs fn with a timeout without blocking startup.
func bootstrap(ctx context.Context, cfg *config.Config, log zerolog.Logger, fn func(context.Context) error) {
	go func() {
		bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		defer cancel()

		if err := fn(bootstrapCtx); err != nil {
			log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store bootstrap failed")
		} else {
			log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap completed")
		}
	}()
}
