package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/unrealfeathers/home-server/internal/pagination"
)

// Envelope is the uniform response body for all business endpoints.
//
// StatusCode 0 means success, 1 means a business failure (not found,
// duplicate, permission denied). Business failures ride on HTTP 200;
// only malformed input (400), missing credentials (401), and server
// faults (500) surface as transport-level errors.
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Data       any    `json:"data,omitempty"`
}

// newEnvelope builds an envelope stamped with the current time.
func newEnvelope(statusCode int, message string, data any) Envelope {
	return Envelope{
		StatusCode: statusCode,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Data:       data,
	}
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeOK writes a success envelope (HTTP 200, status_code 0).
func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, newEnvelope(0, message, data))
}

// writeFailure writes a business-failure envelope (HTTP 200, status_code 1).
func writeFailure(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, newEnvelope(1, message, nil))
}

// writeValidationError writes a 400 response for malformed input.
func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, newEnvelope(1, message, nil))
}

// writeUnauthorized writes a 401 response with the bearer challenge header.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, newEnvelope(1, message, nil))
}

// writeInternalError writes a 500 response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, newEnvelope(1, message, nil))
}

// decodeJSON decodes a request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close() //nolint:errcheck // server closes the body anyway
	return json.NewDecoder(r.Body).Decode(v)
}

// parsePageParams reads page and size query parameters, applying defaults
// when absent and validating bounds.
func parsePageParams(r *http.Request) (pagination.Request, error) {
	page := pagination.DefaultPage
	size := pagination.DefaultSize

	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pagination.Request{}, pagination.ErrInvalidPage
		}
		page = n
	}
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pagination.Request{}, pagination.ErrInvalidSize
		}
		size = n
	}

	return pagination.NewRequest(page, size)
}

// parseIDParam reads a required int64 query parameter.
func parseIDParam(r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// parseOptionalID reads an optional int64 query parameter, returning nil
// when absent. A malformed value reports ok=false.
func parseOptionalID(r *http.Request, name string) (id *int64, ok bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// parseOptionalBool reads an optional bool query parameter, returning nil
// when absent. A malformed value reports ok=false.
func parseOptionalBool(r *http.Request, name string) (b *bool, ok bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
