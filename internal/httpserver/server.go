package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radiusdt/kpi-dashboard/internal/config"
	"github.com/radiusdt/kpi-dashboard/internal/dashboard"
	"github.com/radiusdt/kpi-dashboard/internal/database"
	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/metrics"
	"github.com/radiusdt/kpi-dashboard/internal/middleware"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

const healthCheckTimeout = 2 * time.Second

// Dependencies holds all external dependencies for the server. The database
// handles are optional and only used for health checks.
type Dependencies struct {
	State      *dashboard.State
	DB         *database.PostgresDB
	Redis      *database.RedisDB
	ClickHouse *database.ClickHouseDB
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	// RateLimiter is created from Config when nil.
	RateLimiter *middleware.RateLimitMiddleware
}

// Server exposes the dashboard state as JSON.
type Server struct {
	state   *dashboard.State
	checks  map[string]func(context.Context) error
	logger  *zap.Logger
	config  *config.Config
	metrics *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	s := &Server{
		state:   deps.State,
		checks:  map[string]func(context.Context) error{},
		logger:  deps.Logger,
		config:  deps.Config,
		metrics: deps.Metrics,
	}
	if deps.DB != nil {
		s.checks["postgres"] = deps.DB.Health
	}
	if deps.Redis != nil {
		s.checks["redis"] = deps.Redis.Health
	}
	if deps.ClickHouse != nil {
		s.checks["clickhouse"] = deps.ClickHouse.Health
	}

	rl := deps.RateLimiter
	if rl == nil {
		rl = middleware.NewRateLimitMiddleware(deps.Config.RateLimit, deps.Logger, deps.Metrics)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestIDHandler)
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger).Handler)
	r.Use(middleware.NewLoggingMiddleware(deps.Logger).Handler)
	r.Use(rl.Handler)
	r.Use(middleware.NewAuthMiddleware(deps.Config.Auth, deps.Logger).Handler)

	r.Get("/health", s.handleHealth)

	if deps.Config.Metrics.Enabled {
		gatherer := deps.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Handle(deps.Config.Metrics.Path, metrics.Handler(gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Get("/campaigns", s.handleCampaigns)
		r.Post("/campaigns/{id}/select", s.handleSelectCampaign)
		r.Put("/time-range", s.handleSetTimeRange)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/{range}", s.handleDashboardRange)
	})

	return r
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			status[name] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// ---- Catalog ----

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, kpi.Catalog())
}

// ---- Campaigns ----

type campaignsResponse struct {
	Campaigns  []models.Campaign `json:"campaigns"`
	SelectedID string            `json:"selected_id,omitempty"`
}

func (s *Server) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	if err := s.ensureCampaigns(r.Context()); err != nil {
		s.errorResponse(w, "failed to load campaigns", http.StatusBadGateway)
		return
	}

	snap := s.state.Snapshot()
	resp := campaignsResponse{Campaigns: snap.Campaigns}
	if resp.Campaigns == nil {
		resp.Campaigns = []models.Campaign{}
	}
	if snap.Selected != nil {
		resp.SelectedID = snap.Selected.ID
	}
	s.jsonResponse(w, resp)
}

func (s *Server) handleSelectCampaign(w http.ResponseWriter, r *http.Request) {
	if err := s.ensureCampaigns(r.Context()); err != nil {
		s.errorResponse(w, "failed to load campaigns", http.StatusBadGateway)
		return
	}

	id := chi.URLParam(r, "id")
	err := s.state.SelectCampaign(r.Context(), id)
	switch {
	case errors.Is(err, dashboard.ErrCampaignNotFound):
		s.errorResponse(w, "campaign not found", http.StatusNotFound)
		return
	case err != nil:
		s.errorResponse(w, s.refreshError(), http.StatusBadGateway)
		return
	}
	s.jsonResponse(w, s.dashboardView(s.state.Snapshot(), ""))
}

// ensureCampaigns loads the campaign list on first use.
func (s *Server) ensureCampaigns(ctx context.Context) error {
	if s.state.Snapshot().Campaigns != nil {
		return nil
	}
	return s.state.LoadCampaigns(ctx)
}

// ---- Time Range ----

type timeRangeRequest struct {
	TimeRange string `json:"timeRange"`
}

func (s *Server) handleSetTimeRange(w http.ResponseWriter, r *http.Request) {
	var req timeRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	tr, err := models.ParseTimeRange(req.TimeRange)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.state.SetTimeRange(tr); err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.jsonResponse(w, s.dashboardView(s.state.Snapshot(), ""))
}

// ---- Refresh ----

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	err := s.state.Refresh(r.Context())
	switch {
	case errors.Is(err, dashboard.ErrNoCampaignSelected):
		s.errorResponse(w, "no campaign selected", http.StatusConflict)
		return
	case err != nil:
		s.errorResponse(w, s.refreshError(), http.StatusBadGateway)
		return
	}
	s.jsonResponse(w, s.dashboardView(s.state.Snapshot(), ""))
}

func (s *Server) refreshError() string {
	if msg := s.state.Snapshot().Error; msg != "" {
		return msg
	}
	return "failed to load KPI data"
}

// ---- Dashboard ----

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.dashboardView(s.state.Snapshot(), ""))
}

func (s *Server) handleDashboardRange(w http.ResponseWriter, r *http.Request) {
	tr, err := models.ParseTimeRange(chi.URLParam(r, "range"))
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.jsonResponse(w, s.dashboardView(s.state.Snapshot(), tr))
}

// ---- Helpers ----

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
