package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	feedService "github.com/reshetovitsme/squad-bot/internal/modules/feed/service"
	timerDomain "github.com/reshetovitsme/squad-bot/internal/modules/timer/domain"
	voiceDomain "github.com/reshetovitsme/squad-bot/internal/modules/voice/domain"
	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	"github.com/samber/oops"
	sloghttp "github.com/samber/slog-http"
)

// ChannelSource lists the tracked voice channels
type ChannelSource interface {
	Tracked() []voiceDomain.TrackedChannel
}

// TimerSource lists the known countdown timers
type TimerSource interface {
	Timers() []timerDomain.CountdownTimer
	Get(timerID string) (timerDomain.CountdownTimer, bool)
}

// Server exposes health, metrics and read-only bot state over HTTP
type Server struct {
	cfg         *config.Config
	channels    ChannelSource
	timers      TimerSource
	feedService *feedService.Service
	gatherer    prometheus.Gatherer
	logger      *slog.Logger
	server      *http.Server
}

// New creates a new HTTP server
func New(cfg *config.Config, channels ChannelSource, timers TimerSource, feedService *feedService.Service, gatherer prometheus.Gatherer) *Server {
	return &Server{
		cfg:         cfg,
		channels:    channels,
		timers:      timers,
		feedService: feedService,
		gatherer:    gatherer,
		logger:      slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler builds the routed handler with access logging and recovery
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /channels", s.handleChannels)
	mux.HandleFunc("GET /timers", s.handleTimers)
	mux.HandleFunc("GET /timers/feed", s.handleTimerFeed)
	mux.HandleFunc("GET /timers/{timerID}", s.handleTimer)

	handler := sloghttp.Recovery(mux)
	return sloghttp.New(s.logger)(handler)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("Status server starting", "addr", addr)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return oops.With("addr", addr).Wrapf(err, "serving http")
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"tracked_channels": len(s.channels.Tracked()),
		"timers":           len(s.timers.Timers()),
	})
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.channels.Tracked())
}

func (s *Server) handleTimers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.timers.Timers())
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	timerID := r.PathValue("timerID")
	timer, ok := s.timers.Get(timerID)
	if !ok {
		http.Error(w, "Timer not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, timer)
}

func (s *Server) handleTimerFeed(w http.ResponseWriter, r *http.Request) {
	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

	rss, err := s.feedService.GenerateFeed(baseURL).ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=30")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding response", "error", err)
	}
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
