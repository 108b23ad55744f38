// Package httpserver is the skill's HTTP ingress: it decodes the platform
// envelope, hands it to the event handler, and encodes the reply, plus
// health and metrics endpoints.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"voice-search/internal/alexa"
	"voice-search/internal/telemetry"
)

// platformDeadline is the wall-clock budget the voice platform allows for
// the whole invocation. Handling is cut off before the platform gives up.
const platformDeadline = 8 * time.Second

const maxEventBytes = 64 * 1024

// EventHandler turns one inbound envelope into one response envelope.
type EventHandler interface {
	Handle(ctx context.Context, env *alexa.RequestEnvelope) *alexa.ResponseEnvelope
}

type Server struct {
	addr      string
	authToken string
	handler   EventHandler
	logger    *slog.Logger
	mux       *http.ServeMux
	limiter   *RateLimiter

	mu      sync.Mutex
	server  *http.Server
	running bool
}

func NewServer(addr, authToken string, handler EventHandler, metrics *telemetry.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		addr:      addr,
		authToken: authToken,
		handler:   handler,
		logger:    logger,
		mux:       http.NewServeMux(),
		limiter:   NewRateLimiter(30, time.Minute), // 30 events per minute per IP
	}
	s.mux.HandleFunc("POST /alexa", s.limiter.Middleware(s.handleEvent))
	// No rate limiting on probes and scrapes.
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics.Handler())
	return s
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: platformDeadline + 2*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("skill endpoint starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.running = false
	return nil
}

// Handler exposes the mux so tests can drive the server without a listener.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.logger.Warn("unauthorized skill request", "remote_addr", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	requestID := uuid.NewString()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var env alexa.RequestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("undecodable event", "request_id", requestID, "error", err)
		http.Error(w, "invalid event envelope", http.StatusBadRequest)
		return
	}

	s.logger.Info("event received",
		"request_id", requestID,
		"type", env.Request.Type,
		"intent", env.Request.Intent.Name,
	)

	ctx, cancel := context.WithTimeout(r.Context(), platformDeadline)
	defer cancel()

	resp := s.handler.Handle(ctx, &env)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("writing response", "request_id", requestID, "error", err)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	token := r.Header.Get("X-Auth-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return token == s.authToken
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK
	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"status":%q}`, status)
}
