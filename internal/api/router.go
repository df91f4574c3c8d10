package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/api/recovery"
	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/config"
	"github.com/musui/musui-server/internal/identity"
	"github.com/musui/musui-server/internal/localstore"
	"github.com/musui/musui-server/internal/metrics"
	"github.com/musui/musui-server/internal/ratelimit"
	"github.com/musui/musui-server/internal/services"
)

// Deps carries everything the router wires into handlers. Identity, Limiter
// and the health funcs may be nil.
type Deps struct {
	Config   *config.Config
	Log      zerolog.Logger
	Archives *services.ArchiveService
	Profiles *services.ProfileService
	Accounts *services.AccountService
	Identity identity.Provider
	Local    *localstore.Registry
	Catalog  *catalog.Catalog
	Limiter  ratelimit.Limiter

	IsHealthy  func() bool
	Components func() map[string]bool
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	cfg := d.Config
	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}
	if d.Local == nil {
		d.Local = localstore.NewRegistry(cfg.LocalStoreTTL(), d.Log)
	}

	router := mux.NewRouter()

	// Global middlewares; requestID first so recovery logs carry the id
	router.Use(requestID(d.Log), recovery.Middleware)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	healthHandler := NewHealthHandler(d.IsHealthy, d.Components)
	archiveHandler := NewArchiveHandler(d.Archives, cfg.MaxPhotoBytes)
	localHandler := NewLocalHandler(d.Local, cfg.MaxPhotoBytes)
	profileHandler := NewProfileHandler(d.Profiles)
	authHandler := NewAuthHandler(d.Identity, d.Accounts, cfg.SessionCookie, cfg.IsProduction())
	feedHandler := NewFeedHandler(d.Archives, d.Local, d.Catalog)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(instrument, cors(cfg.CORSOrigins), rateLimit(d.Limiter), device, principal(d.Identity, cfg.SessionCookie))

	// Health
	api.HandleFunc("/health", healthHandler.CheckHealth).Methods("GET")

	// Remote archives; fixed paths before {id}
	api.HandleFunc("/archives", archiveHandler.ListMine).Methods("GET")
	api.HandleFunc("/archives", archiveHandler.CreateManual).Methods("POST")
	api.HandleFunc("/archives/sessions", archiveHandler.CreateSession).Methods("POST")
	api.HandleFunc("/archives/public", archiveHandler.ListPublic).Methods("GET")
	api.HandleFunc("/archives/{id}", archiveHandler.Get).Methods("GET")
	api.HandleFunc("/archives/{id}", archiveHandler.SetVisibility).Methods("PATCH")
	api.HandleFunc("/archives/{id}", archiveHandler.Delete).Methods("DELETE")

	// Device-local archives
	api.HandleFunc("/local/archives", localHandler.List).Methods("GET")
	api.HandleFunc("/local/archives", localHandler.Create).Methods("POST")
	api.HandleFunc("/local/archives/{id}", localHandler.Get).Methods("GET")
	api.HandleFunc("/local/archives/{id}", localHandler.SetVisibility).Methods("PATCH")

	// Profile and auth helpers
	api.HandleFunc("/profile", profileHandler.Get).Methods("GET")
	api.HandleFunc("/profile", profileHandler.Update).Methods("PATCH")
	api.HandleFunc("/auth/user", authHandler.User).Methods("GET")
	api.HandleFunc("/auth/check-email", authHandler.CheckEmail).Methods("GET")
	api.HandleFunc("/auth/check-nickname", authHandler.CheckNickname).Methods("GET")
	api.HandleFunc("/auth/signout", authHandler.SignOut).Methods("POST")

	// Community feed and catalog
	api.HandleFunc("/feed", feedHandler.Feed).Methods("GET")
	api.HandleFunc("/courses", feedHandler.Courses).Methods("GET")

	// Preflight for every /api path; the cors middleware writes the reply
	api.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return router
}
