// Package stubapi is a development REST server speaking the same wire
// format as the remote works service, backed by any gateway.Gateway
// (normally an in-memory store).
package stubapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kingrea/sistema-obras/internal/gateway"
)

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// Logger is satisfied by *logbook.Logbook.
type Logger interface {
	Printf(format string, args ...any)
}

// Server wraps the HTTP listener and the resource handlers.
type Server struct {
	settings  Settings
	store     gateway.Gateway
	logger    Logger
	requestID func() string

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	status   ServerStatus
}

// Option customizes server construction.
type Option func(*Server)

// WithStore replaces the default empty in-memory store.
func WithStore(store gateway.Gateway) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRequestIDs overrides how missing X-Request-ID headers are filled.
func WithRequestIDs(next func() string) Option {
	return func(s *Server) {
		if next != nil {
			s.requestID = next
		}
	}
}

// NewServer prepares a server using the provided settings. Unset fields
// take their defaults.
func NewServer(settings Settings, opts ...Option) *Server {
	settings.normalize()
	s := &Server{
		settings:  settings,
		store:     gateway.NewMemory(),
		logger:    nopLogger{},
		requestID: uuid.NewString,
		status:    StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler builds the router. Start serves it; tests may mount it on
// httptest directly.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.withRequestID, s.withLogging)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix(s.settings.Prefix).Subrouter()
	api.HandleFunc("/obras", s.listWorks).Methods(http.MethodGet)
	api.HandleFunc("/obras", s.createWork).Methods(http.MethodPost)
	api.HandleFunc("/obras/{id}", s.getWork).Methods(http.MethodGet)
	api.HandleFunc("/obras/{id}", s.updateWork).Methods(http.MethodPut)
	api.HandleFunc("/obras/{id}", s.deleteWork).Methods(http.MethodDelete)
	api.HandleFunc("/obras/{id}/fiscalizacoes", s.listInspectionsOfWork).Methods(http.MethodGet)
	api.HandleFunc("/obras/{id}/enviar-email", s.sendReport).Methods(http.MethodPost)
	api.HandleFunc("/fiscalizacoes", s.listInspections).Methods(http.MethodGet)
	api.HandleFunc("/fiscalizacoes", s.createInspection).Methods(http.MethodPost)
	api.HandleFunc("/fiscalizacoes/{id}", s.getInspection).Methods(http.MethodGet)
	api.HandleFunc("/fiscalizacoes/{id}", s.updateInspection).Methods(http.MethodPut)
	api.HandleFunc("/fiscalizacoes/{id}", s.deleteInspection).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Rota não encontrada")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Método não permitido")
	})
	return r
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("stubapi: server is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("stubapi: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("stubapi: listen %s: %w", addr, err)
	}
	s.listener = listener
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("stubapi: serve error: %v", err)
		}
	}()
	s.logger.Printf("stubapi: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the API base URL for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr + s.settings.Prefix
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
