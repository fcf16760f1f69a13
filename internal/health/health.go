// Package health exposes the liveness endpoint and the Prometheus
// metrics endpoint on a small standalone HTTP server.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StatusSource reports recent activity for the health payload. The SQLite
// store implements it.
type StatusSource interface {
	LastMessageAge(ctx context.Context) (time.Duration, bool, error)
	Path() string
}

// Server serves /health and /metrics.
type Server struct {
	httpServer *http.Server
	source     StatusSource
	logger     *zap.Logger
	started    time.Time
}

// NewServer builds the health server listening on addr.
func NewServer(addr string, source StatusSource, logger *zap.Logger) *Server {
	s := &Server{
		source:  source,
		logger:  logger,
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("health server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("health server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type healthPayload struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	LastMessage string `json:"last_message"`
	DBSize      string `json:"db_size"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := healthPayload{
		Status:      "ok",
		Uptime:      humanizeDuration(time.Since(s.started)),
		LastMessage: "never",
		DBSize:      "unknown",
	}

	age, ok, err := s.source.LastMessageAge(r.Context())
	switch {
	case err != nil:
		payload.Status = "degraded"
		payload.LastMessage = "error"
		s.logger.Warn("health: last message lookup failed", zap.Error(err))
	case ok:
		payload.LastMessage = humanizeDuration(age) + " ago"
	}

	if info, err := os.Stat(s.source.Path()); err == nil {
		payload.DBSize = humanizeBytes(info.Size())
	}

	w.Header().Set("Content-Type", "application/json")
	if payload.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("health: encode response failed", zap.Error(err))
	}
}

// humanizeDuration renders a duration as the largest two applicable units
// (e.g. "2h 5m", "3d 4h", "45s").
func humanizeDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		days := int(d.Hours()) / 24
		return fmt.Sprintf("%dd %dh", days, int(d.Hours())%24)
	}
}

// humanizeBytes renders a byte count with a binary-ish suffix.
func humanizeBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
