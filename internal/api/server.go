package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/domotica-core/internal/audit"
	"github.com/nerrad567/domotica-core/internal/automation"
	"github.com/nerrad567/domotica-core/internal/device"
	"github.com/nerrad567/domotica-core/internal/infrastructure/config"
	"github.com/nerrad567/domotica-core/internal/infrastructure/logging"
	"github.com/nerrad567/domotica-core/internal/location"
	"github.com/nerrad567/domotica-core/internal/notify"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by every component the health endpoint
// reports on (database, MQTT, InfluxDB).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Database is the view of the store the server needs for health and pool
// statistics. *database.DB satisfies it.
type Database interface {
	HealthChecker
	Stats() sql.DBStats
}

// EventStats reports dispatcher counters. *notify.Dispatcher satisfies it.
type EventStats interface {
	Stats() notify.Stats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	DB      Database
	Rooms   *location.Registry
	Devices *device.Registry
	Actions *device.ActionRegistry
	Scenes  *automation.Registry

	// Optional.
	Audit  audit.Repository
	Events EventStats
	Checks map[string]HealthChecker // extra health checks keyed by component name

	// Hub, if set, is used instead of a server-owned hub. The caller then
	// runs it and registers it as an event sink.
	Hub *Hub

	Version string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	db        Database
	rooms     *location.Registry
	devices   *device.Registry
	actions   *device.ActionRegistry
	scenes    *automation.Registry
	auditRepo audit.Repository
	events    EventStats
	checks    map[string]HealthChecker
	version   string
	startTime time.Time

	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies. The server is
// not started until Start() is called.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.DB == nil:
		return nil, fmt.Errorf("database is required")
	case deps.Rooms == nil, deps.Devices == nil, deps.Actions == nil, deps.Scenes == nil:
		return nil, fmt.Errorf("room, device, action and scene registries are required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		db:        deps.DB,
		rooms:     deps.Rooms,
		devices:   deps.Devices,
		actions:   deps.Actions,
		scenes:    deps.Scenes,
		auditRepo: deps.Audit,
		events:    deps.Events,
		checks:    deps.Checks,
		version:   deps.Version,
		startTime: time.Now(),
	}

	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger)
	}
	return s, nil
}

// Hub returns the WebSocket hub, so it can be registered as an event sink.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start builds the router and begins listening in a background goroutine.
// A server-owned hub runs until Close or until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to
// gracefulShutdownTimeout for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
