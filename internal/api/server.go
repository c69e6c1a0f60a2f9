// Package api provides the HTTP REST API for Home Server.
//
// It exposes user account management, device registry and telemetry
// endpoints, and the actuator command relay to clients and devices.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/unrealfeathers/home-server/internal/actuator"
	"github.com/unrealfeathers/home-server/internal/device"
	"github.com/unrealfeathers/home-server/internal/infrastructure/config"
	"github.com/unrealfeathers/home-server/internal/infrastructure/logging"
	"github.com/unrealfeathers/home-server/internal/location"
	"github.com/unrealfeathers/home-server/internal/telemetry"
	"github.com/unrealfeathers/home-server/internal/user"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	Security  config.SecurityConfig
	Logger    *logging.Logger
	Users     user.Repository
	Devices   device.Repository
	Locations location.Repository
	Readings  telemetry.Repository
	Ingestor  *telemetry.Ingestor
	Relay     *actuator.Relay // optional; actuator endpoint fails soft without it
	Version   string

	// StatusMirror, when set, is invoked after each accepted device
	// heartbeat (e.g. to mirror online state into a time-series store).
	StatusMirror func(serialNumber string, online bool)
}

// Server is the HTTP API server for Home Server.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	secCfg       config.SecurityConfig
	logger       *logging.Logger
	users        user.Repository
	devices      device.Repository
	locations    location.Repository
	readings     telemetry.Repository
	ingestor     *telemetry.Ingestor
	relay        *actuator.Relay
	statusMirror func(serialNumber string, online bool)
	version      string
	server       *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device repository is required")
	}
	if deps.Locations == nil {
		return nil, fmt.Errorf("location repository is required")
	}
	if deps.Readings == nil {
		return nil, fmt.Errorf("telemetry repository is required")
	}
	if deps.Ingestor == nil {
		return nil, fmt.Errorf("telemetry ingestor is required")
	}
	// Relay is optional — the actuator endpoint answers with a business
	// failure when no broker connection is available.

	return &Server{
		cfg:          deps.Config,
		secCfg:       deps.Security,
		logger:       deps.Logger,
		users:        deps.Users,
		devices:      deps.Devices,
		locations:    deps.Locations,
		readings:     deps.Readings,
		ingestor:     deps.Ingestor,
		relay:        deps.Relay,
		statusMirror: deps.StatusMirror,
		version:      deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
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
