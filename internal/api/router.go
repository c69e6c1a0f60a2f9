package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// Device-facing endpoints (heartbeat, telemetry upload) and the login
// surface are open; account and administration endpoints sit behind the
// bearer-token middleware with role checks in the handlers.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check (no auth required)
	r.Get("/health", s.handleHealth)

	// Account creation and login
	r.Post("/user/register", s.handleRegister)
	r.Post("/user/login", s.handleLogin)
	r.Post("/utils/token", s.handleToken)

	// Device-facing endpoints: devices authenticate by serial number,
	// not bearer tokens
	r.Put("/device/status", s.handleDeviceHeartbeat)
	r.Post("/device/upload", s.handleDeviceUpload)

	// Read surface and device/location registration
	r.Post("/device/add", s.handleAddDevice)
	r.Get("/device/list", s.handleListDevices)
	r.Get("/device/status", s.handleDeviceStatusList)
	r.Get("/device/type/list", s.handleListDeviceTypes)
	r.Post("/location/add", s.handleAddLocation)
	r.Get("/location/list", s.handleListLocations)
	r.Get("/location/find", s.handleFindLocation)
	r.Get("/data/new", s.handleLatestData)
	r.Get("/data/list", s.handleListData)

	// Actuator command relay
	r.Post("/actuators/sg90", s.handleActuatorCommand)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		// Self-service account endpoints
		r.Get("/user/info", s.handleUserInfo)
		r.Patch("/user/update_info", s.handleUpdateInfo)
		r.Patch("/user/password", s.handleChangePassword)

		// Administration (admin role checked in handlers)
		r.Post("/user/add", s.handleAddUser)
		r.Delete("/user/delete", s.handleDeleteUser)
		r.Get("/user/find", s.handleFindUser)
		r.Patch("/user/update", s.handleUpdateUser)
		r.Get("/user/list", s.handleListUsers)

		r.Delete("/location/delete", s.handleDeleteLocation)
		r.Patch("/location/update", s.handleUpdateLocation)

		r.Delete("/device/delete", s.handleDeleteDevice)
		r.Get("/device/find", s.handleFindDevice)
		r.Patch("/device/update", s.handleUpdateDevice)
		r.Post("/device/type/add", s.handleAddDeviceType)

		r.Delete("/data/delete", s.handleDeleteData)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
