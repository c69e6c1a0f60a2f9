package api

import (
	"errors"
	"net/http"

	"github.com/unrealfeathers/home-server/internal/actuator"
)

// actuatorRequest is the actuator command body.
type actuatorRequest struct {
	Command string `json:"command"`
}

// handleActuatorCommand relays an open/close command to the actuator
// topic over MQTT.
func (s *Server) handleActuatorCommand(w http.ResponseWriter, r *http.Request) {
	var req actuatorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}

	if s.relay == nil {
		writeFailure(w, "Actuator unavailable.")
		return
	}

	if err := s.relay.Send(req.Command); err != nil {
		switch {
		case errors.Is(err, actuator.ErrUnknownCommand):
			writeFailure(w, "Unknown command.")
		case errors.Is(err, actuator.ErrPublishFailed):
			s.logger.Error("relaying actuator command", "command", req.Command, "error", err)
			writeFailure(w, "Actuator unavailable.")
		default:
			s.logger.Error("relaying actuator command", "command", req.Command, "error", err)
			writeInternalError(w, "internal server error")
		}
		return
	}

	writeOK(w, "Command relayed: "+req.Command, map[string]string{"command": req.Command})
}
