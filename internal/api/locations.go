package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/unrealfeathers/home-server/internal/location"
)

// handleAddLocation registers a new location.
func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var loc location.Location
	if err := decodeJSON(r, &loc); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}

	if err := s.locations.Create(r.Context(), &loc); err != nil {
		if errors.Is(err, location.ErrInvalidName) {
			writeValidationError(w, "Location name is required.")
			return
		}
		s.logger.Error("creating location", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	created, err := s.locations.GetByID(r.Context(), loc.ID)
	if err != nil {
		s.logger.Error("rereading location", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Location created.", created)
}

// handleListLocations returns one page of locations.
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageParams(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	filter := location.Filter{Name: r.URL.Query().Get("name")}
	if v := r.URL.Query().Get("floor"); v != "" {
		floor, err := strconv.Atoi(v)
		if err != nil {
			writeValidationError(w, "floor must be an integer.")
			return
		}
		filter.Floor = &floor
	}

	page, err := s.locations.ListPage(r.Context(), req, filter)
	if err != nil {
		s.logger.Error("listing locations", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "OK", page)
}

// handleFindLocation returns a single location by ID.
func (s *Server) handleFindLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "location_id")
	if !ok {
		writeValidationError(w, "location_id is required.")
		return
	}

	loc, err := s.locations.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, location.ErrNotFound) {
			writeFailure(w, "Location not found.")
			return
		}
		s.logger.Error("finding location", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "OK", loc)
}

// handleUpdateLocation modifies a location (admin only).
func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to update location.") == nil {
		return
	}

	id, ok := parseIDParam(r, "location_id")
	if !ok {
		writeValidationError(w, "location_id is required.")
		return
	}

	var update location.Update
	if err := decodeJSON(r, &update); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}

	if err := s.locations.Update(r.Context(), id, update); err != nil {
		switch {
		case errors.Is(err, location.ErrInvalidName):
			writeValidationError(w, "Location name must not be blank.")
		case errors.Is(err, location.ErrNotFound):
			writeFailure(w, "Location not found.")
		default:
			s.logger.Error("updating location", "error", err)
			writeInternalError(w, "internal server error")
		}
		return
	}

	fresh, err := s.locations.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error("rereading location", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Location updated.", fresh)
}

// handleDeleteLocation removes a location (admin only). Devices and
// readings referencing it keep existing with a nulled location.
func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to delete location.") == nil {
		return
	}

	id, ok := parseIDParam(r, "location_id")
	if !ok {
		writeValidationError(w, "location_id is required.")
		return
	}

	if err := s.locations.Delete(r.Context(), id); err != nil {
		if errors.Is(err, location.ErrNotFound) {
			writeFailure(w, "Location not found.")
			return
		}
		s.logger.Error("deleting location", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Location deleted.", nil)
}
