// Package web provides the HTTP server and REST handlers for the inventory
// tracker.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/web/middleware"
)

// Server is the HTTP server for the inventory API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	// Per-IP limiters; nil when rate limiting is disabled.
	requests *rateLimiter
	imports  *rateLimiter
}

// NewServer creates a new Server instance. Close (or Shutdown) must be called
// to stop the rate limiter cleanup goroutines.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.requests = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
		s.imports = newRateLimiter(cfg.Rate.ImportLimit, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         300,
	}))

	if s.requests != nil {
		s.router.Use(s.requests.middleware)
	}
	s.router.Use(clientContext)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleStatusPage)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		r.Route("/computers", func(r chi.Router) {
			s.mountEquipmentWorkflow(r)
			s.mountResource(r, core.ResourceEquipment, s.equipmentRecords())
			r.Get("/{identifier}/history", s.handleEquipmentHistory)
		})
		r.Route("/software", func(r chi.Router) {
			s.mountResource(r, core.ResourceSoftware, s.softwareRecords())
		})
		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/owners", s.handleSubscriptionOwners)
			s.mountResource(r, core.ResourceSubscriptions, s.subscriptionRecords())
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Get("/{id}", s.handleGetCategory)
			r.Put("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
			r.Get("/{id}/usage", s.handleCategoryUsage)
			r.Get("/{id}/subcategories", s.handleListSubcategories)
			r.Post("/{id}/subcategories", s.handleCreateSubcategory)
		})
		r.Route("/subcategories", func(r chi.Router) {
			r.Put("/{id}", s.handleUpdateSubcategory)
			r.Delete("/{id}", s.handleDeleteSubcategory)
			r.Get("/{id}/usage", s.handleSubcategoryUsage)
		})

		r.Get("/audit", s.handleListAudit)
		r.Get("/audit/export", s.handleExportAudit)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/deleted", s.handleDeletedEquipment)
			r.Get("/deleted-software", s.handleDeletedSoftware)
			r.Get("/deleted-subscriptions", s.handleDeletedSubscriptions)
			r.Get("/stats", s.handleStats)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown waits for running imports to drain, then stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.Close()

	if err := s.service.Imports().WaitForDrain(ctx); err != nil {
		slog.Warn("imports still running at shutdown", "active", s.service.Imports().ActiveCount(), "error", err)
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Close stops background goroutines owned by the server.
func (s *Server) Close() {
	if s.requests != nil {
		s.requests.stop()
	}
	if s.imports != nil {
		s.imports.stop()
	}
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// limitImports applies the per-IP import limit to upload routes.
func (s *Server) limitImports(next http.Handler) http.Handler {
	if s.imports == nil {
		return next
	}
	return s.imports.middleware(next)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientContext records the caller's address and user agent for audit
// entries. RemoteAddr has already been rewritten by TrustedRealIP.
func clientContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.WithClient(r.Context(), core.Client{
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window
// and starts its cleanup goroutine.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries once per window until stopped.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if rl.now().Sub(v.lastReset) > rl.window*2 {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return rl.rate > 0
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errRateLimited = errors.New("rate limit exceeded")

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
