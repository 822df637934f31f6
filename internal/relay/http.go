package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"subsync/internal/logging"
)

// HTTPServer exposes a relay Server on a TCP address. The socket endpoint is
// /ws and /api/rooms reports the current rooms as JSON.
type HTTPServer struct {
	bind   string
	logger *slog.Logger
	relay  *Server

	listener net.Listener
	server   *http.Server
}

// NewHTTPServer wires the relay behind an HTTP mux.
func NewHTTPServer(bind string, relay *Server, logger *slog.Logger) *HTTPServer {
	srv := &HTTPServer{
		bind:   strings.TrimSpace(bind),
		logger: logging.NewComponentLogger(logger, "relay-http"),
		relay:  relay,
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", relay)
	mux.HandleFunc("/api/rooms", srv.handleRooms)
	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start listens and serves in the background until ctx ends or Stop is called.
func (s *HTTPServer) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("relay listen: empty bind address")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("relay listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("relay server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("relay listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down.
func (s *HTTPServer) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"rooms": s.relay.Rooms()})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response failed", logging.Error(err))
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
