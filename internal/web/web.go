package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"inkcal/internal/battery"
	"inkcal/internal/config"
	appLog "inkcal/internal/log"
	"inkcal/internal/render"
)

const (
	viewsCacheTTL   = 30 * time.Second
	batteryCacheTTL = 30 * time.Second
)

// Views builds the two pages from fresh calendar data.
type Views interface {
	Month(ctx context.Context) (render.MonthPage, error)
	Dashboard(ctx context.Context) (render.DashboardPage, error)
}

// Options wires a Server.
type Options struct {
	Config   *config.Config
	Views    Views
	Battery  battery.Reader
	Renderer *render.Renderer
	// PreviewPath is the PNG served at /preview.png.
	PreviewPath string
	Logger      *appLog.Logger
	// Now defaults to time.Now and drives cache expiry.
	Now func() time.Time
}

// Server serves the calendar pages captured for the panel, their JSON
// counterparts and the last captured preview.
type Server struct {
	cfg      *config.Config
	views    Views
	battery  battery.Reader
	renderer *render.Renderer
	preview  string
	log      *appLog.Logger
	now      func() time.Time
	mux      *http.ServeMux

	// Short-lived caches so browsing the UI does not refetch every calendar
	// or hit I2C on each request.
	monthMu      sync.Mutex
	monthCache   *cached[render.MonthPage]
	dashMu       sync.Mutex
	dashCache    *cached[render.DashboardPage]
	batteryMu    sync.Mutex
	batteryCache *cached[battery.Status]
}

type cached[T any] struct {
	value     T
	updatedAt time.Time
}

// NewServer registers every route on a fresh mux. Call Handler or
// ListenAndServe to use it.
func NewServer(opts Options) *Server {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		cfg:      opts.Config,
		views:    opts.Views,
		battery:  opts.Battery,
		renderer: opts.Renderer,
		preview:  opts.PreviewPath,
		log:      opts.Logger,
		now:      now,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routes, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		s.log.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener, which it closes.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", "listen", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth rather than locking everyone out.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects every route except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="inkcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/month", s.handleAPIMonth)
	s.mux.HandleFunc("GET /api/days", s.handleAPIDays)
	s.mux.HandleFunc("GET /api/battery", s.handleBattery)
	s.mux.HandleFunc("GET /calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /dashboard", s.handleDashboard)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/calendar", http.StatusFound)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) monthPage(ctx context.Context) (render.MonthPage, error) {
	s.monthMu.Lock()
	defer s.monthMu.Unlock()

	now := s.now()
	if c := s.monthCache; c != nil && now.Sub(c.updatedAt) < viewsCacheTTL {
		return c.value, nil
	}
	page, err := s.views.Month(ctx)
	if err != nil {
		return render.MonthPage{}, err
	}
	s.monthCache = &cached[render.MonthPage]{value: page, updatedAt: now}
	return page, nil
}

func (s *Server) dashboardPage(ctx context.Context) (render.DashboardPage, error) {
	s.dashMu.Lock()
	defer s.dashMu.Unlock()

	now := s.now()
	if c := s.dashCache; c != nil && now.Sub(c.updatedAt) < viewsCacheTTL {
		return c.value, nil
	}
	page, err := s.views.Dashboard(ctx)
	if err != nil {
		return render.DashboardPage{}, err
	}
	s.dashCache = &cached[render.DashboardPage]{value: page, updatedAt: now}
	return page, nil
}

func (s *Server) handleAPIMonth(w http.ResponseWriter, r *http.Request) {
	page, err := s.monthPage(r.Context())
	if err != nil {
		s.log.Error("api month: build failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build month view")
		return
	}
	writeJSON(w, http.StatusOK, monthResponseFrom(page), s.log)
}

func (s *Server) handleAPIDays(w http.ResponseWriter, r *http.Request) {
	page, err := s.dashboardPage(r.Context())
	if err != nil {
		s.log.Error("api days: build failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build day list")
		return
	}
	writeJSON(w, http.StatusOK, daysResponseFrom(page), s.log)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	page, err := s.monthPage(r.Context())
	if err != nil {
		s.log.Error("calendar page: build failed", err)
		http.Error(w, "failed to build month view", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.renderer.Month(&buf, page); err != nil {
		s.log.Error("calendar page: render failed", err)
		http.Error(w, "failed to render month view", http.StatusInternalServerError)
		return
	}
	writeHTML(w, buf.Bytes())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page, err := s.dashboardPage(r.Context())
	if err != nil {
		s.log.Error("dashboard page: build failed", err)
		http.Error(w, "failed to build dashboard", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.renderer.Dashboard(&buf, page); err != nil {
		s.log.Error("dashboard page: render failed", err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	writeHTML(w, buf.Bytes())
}

// handleBattery reports the battery status, cached for batteryCacheTTL.
func (s *Server) handleBattery(w http.ResponseWriter, r *http.Request) {
	if s.battery == nil {
		writeError(w, http.StatusServiceUnavailable, "battery reader unavailable")
		return
	}

	s.batteryMu.Lock()
	defer s.batteryMu.Unlock()

	now := s.now()
	if c := s.batteryCache; c != nil && now.Sub(c.updatedAt) < batteryCacheTTL {
		writeJSON(w, http.StatusOK, c.value, s.log)
		return
	}

	status, err := s.battery.Read(r.Context())
	if err != nil {
		s.log.Error("battery read failed", err)
		writeError(w, http.StatusInternalServerError, "failed to read battery")
		return
	}
	s.batteryCache = &cached[battery.Status]{value: status, updatedAt: now}
	writeJSON(w, http.StatusOK, status, s.log)
}

// handlePreview serves the last captured PNG. http.ServeFile answers 404
// before the first capture.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.preview == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, s.preview)
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *appLog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg}, nil)
}
