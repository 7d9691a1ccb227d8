package server

import (
	"fmt"
	"net/http"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/config"
	"github.com/crawdale/hotel/internal/guard"
	hotelmiddleware "github.com/crawdale/hotel/internal/middleware"
	"github.com/crawdale/hotel/internal/services/identity"
	"github.com/crawdale/hotel/internal/services/rooms"
	"github.com/crawdale/hotel/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// RouterOptions controls the construction of the hotel HTTP router.
// Guard, Identity and Rooms are required; other fields have defaults.
type RouterOptions struct {
	Guard          *guard.Guard
	Identity       identity.Provider
	Rooms          *rooms.Service
	Cfg            *config.Config
	Logger         *zap.Logger
	ServerMetrics  *telemetry.ServerMetrics
	AuthMetrics    *telemetry.AuthMetrics
	MetricsHandler http.Handler
	CORSOptions    *cors.Options
	Middleware     []func(http.Handler) http.Handler
	HealthHandler  http.HandlerFunc
}

// DefaultCORSOptions allows the configured server origin to post forms with
// credentials. Pages are served same-origin, so this only matters behind proxies.
func DefaultCORSOptions(origins ...string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

type handlers struct {
	guard        *guard.Guard
	identity     identity.Provider
	rooms        *rooms.Service
	views        *Renderer
	serverURL    string
	cookieSecure bool
	authMetrics  *telemetry.AuthMetrics
	logger       *zap.Logger
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy and
// every page and form handler mounted.
func NewRouter(opts RouterOptions) (chi.Router, error) {
	if opts.Guard == nil || opts.Identity == nil || opts.Rooms == nil {
		return nil, fmt.Errorf("router requires guard, identity provider and rooms service")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Cfg
	if cfg == nil {
		cfg = &config.Config{ServerURL: "http://localhost:8080"}
	}

	views, err := NewRenderer(logger)
	if err != nil {
		return nil, err
	}

	h := &handlers{
		guard:        opts.Guard,
		identity:     opts.Identity,
		rooms:        opts.Rooms,
		views:        views,
		serverURL:    cfg.ServerURL,
		cookieSecure: cfg.Auth.CookieSecure,
		authMetrics:  opts.AuthMetrics,
		logger:       logger,
	}

	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hotelmiddleware.RequestLogger(logger))
	r.Use(hotelmiddleware.Metrics(opts.ServerMetrics))
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions(cfg.ServerURL)
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	// Public pages
	r.Get("/", h.handleLanding)
	r.Get(guard.ForbiddenPath, h.handleForbidden)
	r.Get(guard.LoginPath, h.handleLoginPage)
	r.Post(guard.LoginPath, h.handleLoginSubmit)
	r.Get(callbackPath, h.handleCallback)
	r.Post("/auth/logout", h.handleLogout)

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(opts.Guard.Middleware(auth.AnyRole))
		r.Get("/dashboard", h.handleDashboard)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(opts.Guard.Middleware(auth.RoomManagers))
			r.Get("/", h.handleAdmin)
			r.Get("/rooms", h.handleRoomsPage)
		})

		// Form commands run the guard themselves so a denial returns to the rooms page.
		r.Post("/rooms/create", h.roomCommandHandler("create", h.createRoom))
		r.Post("/rooms/update", h.roomCommandHandler("update", h.rooms.Update))
		r.Post("/rooms/delete", h.roomCommandHandler("delete", h.rooms.Delete))
		r.Post("/rooms/toggle", h.roomCommandHandler("toggle", h.rooms.Toggle))
	})

	return r, nil
}

// NewH2CHandler wraps the router with an h2c server to provide HTTP/2 over cleartext.
func NewH2CHandler(opts RouterOptions) (http.Handler, error) {
	router, err := NewRouter(opts)
	if err != nil {
		return nil, err
	}
	return h2c.NewHandler(router, &http2.Server{}), nil
}
