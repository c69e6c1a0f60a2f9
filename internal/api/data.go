package api

import (
	"errors"
	"net/http"

	"github.com/unrealfeathers/home-server/internal/telemetry"
)

// handleLatestData returns the most recent reading for a device.
func (s *Server) handleLatestData(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "device_id")
	if !ok {
		writeValidationError(w, "device_id is required.")
		return
	}

	data, err := s.readings.Latest(r.Context(), id)
	if err != nil {
		if errors.Is(err, telemetry.ErrNotFound) {
			writeFailure(w, "No data for device.")
			return
		}
		s.logger.Error("fetching latest reading", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "OK", data)
}

// handleListData returns one page of readings, newest first, optionally
// narrowed to a device or location.
func (s *Server) handleListData(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageParams(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	var filter telemetry.Filter
	var ok bool
	if filter.DeviceID, ok = parseOptionalID(r, "device_id"); !ok {
		writeValidationError(w, "device_id must be an integer.")
		return
	}
	if filter.LocationID, ok = parseOptionalID(r, "location_id"); !ok {
		writeValidationError(w, "location_id must be an integer.")
		return
	}

	page, err := s.readings.ListPage(r.Context(), req, filter)
	if err != nil {
		s.logger.Error("listing readings", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "OK", page)
}

// handleDeleteData removes a single reading (admin only).
func (s *Server) handleDeleteData(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to delete data.") == nil {
		return
	}

	id, ok := parseIDParam(r, "data_id")
	if !ok {
		writeValidationError(w, "data_id is required.")
		return
	}

	if err := s.readings.Delete(r.Context(), id); err != nil {
		if errors.Is(err, telemetry.ErrNotFound) {
			writeFailure(w, "Data not found.")
			return
		}
		s.logger.Error("deleting reading", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Data deleted.", nil)
}
