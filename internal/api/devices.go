package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/unrealfeathers/home-server/internal/device"
	"github.com/unrealfeathers/home-server/internal/telemetry"
)

// heartbeat is the device check-in request body. A missing is_online
// field means the device is reporting in, i.e. online.
type heartbeat struct {
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`
	IsOnline        *bool  `json:"is_online"`
}

// handleDeviceHeartbeat records a device status report.
func (s *Server) handleDeviceHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeat
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}
	if req.SerialNumber == "" {
		writeValidationError(w, "serial_number is required.")
		return
	}

	online := true
	if req.IsOnline != nil {
		online = *req.IsOnline
	}

	if err := s.devices.UpdateStatus(r.Context(), req.SerialNumber, req.FirmwareVersion, online); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeFailure(w, "Device not found.")
			return
		}
		s.logger.Error("updating device status", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	if s.statusMirror != nil {
		s.statusMirror(req.SerialNumber, online)
	}

	writeOK(w, "Status updated.", nil)
}

// uploadRequest is the telemetry upload body devices send.
type uploadRequest struct {
	StatusCode   int           `json:"status_code"`
	Timestamp    *time.Time    `json:"timestamp"`
	SerialNumber string        `json:"serial_number"`
	Message      uploadMessage `json:"message"`
}

// uploadMessage carries the sensor values of an upload.
type uploadMessage struct {
	Lux  *float64 `json:"lux"`
	Temp *float64 `json:"temp"`
	Humi *float64 `json:"humi"`
}

// handleDeviceUpload ingests a sensor reading keyed by serial number.
func (s *Server) handleDeviceUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}

	reading := telemetry.Reading{
		SerialNumber: req.SerialNumber,
		Lux:          req.Message.Lux,
		Temperature:  req.Message.Temp,
		Humidity:     req.Message.Humi,
		Timestamp:    req.Timestamp,
	}

	data, err := s.ingestor.Ingest(r.Context(), reading)
	if err != nil {
		switch {
		case errors.Is(err, telemetry.ErrMissingSerial):
			writeValidationError(w, "serial_number is required.")
		case errors.Is(err, telemetry.ErrEmptyReading):
			writeValidationError(w, "Reading has no sensor values.")
		case errors.Is(err, telemetry.ErrDeviceNotFound):
			writeFailure(w, "Device not found.")
		default:
			s.logger.Error("ingesting reading", "error", err)
			writeInternalError(w, "internal server error")
		}
		return
	}

	writeOK(w, "Reading stored.", data)
}

// handleAddDevice registers a new device.
func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var d device.Device
	if err := decodeJSON(r, &d); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}

	if err := s.devices.Create(r.Context(), &d); err != nil {
		switch {
		case errors.Is(err, device.ErrInvalidSerial):
			writeValidationError(w, "serial_number is required.")
		case errors.Is(err, device.ErrInvalidMAC):
			writeValidationError(w, "mac_address is required.")
		case errors.Is(err, device.ErrInvalidName):
			writeValidationError(w, "Device name is required.")
		case errors.Is(err, device.ErrSerialExists):
			writeFailure(w, "Serial number already registered.")
		default:
			s.logger.Error("creating device", "error", err)
			writeInternalError(w, "internal server error")
		}
		return
	}

	v, err := s.devices.GetByID(r.Context(), d.ID)
	if err != nil {
		s.logger.Error("rereading device", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Device registered.", v)
}

// handleDeleteDevice removes a device and its readings (admin only).
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to delete device.") == nil {
		return
	}

	id, ok := parseIDParam(r, "device_id")
	if !ok {
		writeValidationError(w, "device_id is required.")
		return
	}

	if err := s.devices.Delete(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeFailure(w, "Device not found.")
			return
		}
		s.logger.Error("deleting device", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Device deleted.", nil)
}

// handleFindDevice returns a single device by ID (admin only).
func (s *Server) handleFindDevice(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to view device.") == nil {
		return
	}

	id, ok := parseIDParam(r, "device_id")
	if !ok {
		writeValidationError(w, "device_id is required.")
		return
	}

	v, err := s.devices.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeFailure(w, "Device not found.")
			return
		}
		s.logger.Error("finding device", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "OK", v)
}

// handleUpdateDevice modifies a device's name or placement (admin only).
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to update device.") == nil {
		return
	}

	id, ok := parseIDParam(r, "device_id")
	if !ok {
		writeValidationError(w, "device_id is required.")
		return
	}

	var update device.Update
	if err := decodeJSON(r, &update); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}

	if err := s.devices.Update(r.Context(), id, update); err != nil {
		switch {
		case errors.Is(err, device.ErrInvalidName):
			writeValidationError(w, "Device name must not be blank.")
		case errors.Is(err, device.ErrNotFound):
			writeFailure(w, "Device not found.")
		default:
			s.logger.Error("updating device", "error", err)
			writeInternalError(w, "internal server error")
		}
		return
	}

	v, err := s.devices.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error("rereading device", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Device updated.", v)
}

// handleListDevices returns one page of devices joined with type and
// location names.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageParams(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	var filter device.Filter
	var ok bool
	if filter.TypeID, ok = parseOptionalID(r, "type_id"); !ok {
		writeValidationError(w, "type_id must be an integer.")
		return
	}
	if filter.LocationID, ok = parseOptionalID(r, "location_id"); !ok {
		writeValidationError(w, "location_id must be an integer.")
		return
	}
	if filter.IsOnline, ok = parseOptionalBool(r, "is_online"); !ok {
		writeValidationError(w, "is_online must be a boolean.")
		return
	}

	page, err := s.devices.ListPage(r.Context(), req, filter)
	if err != nil {
		s.logger.Error("listing devices", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "OK", page)
}

// handleDeviceStatusList returns one page of device status summaries,
// optionally narrowed to a location.
func (s *Server) handleDeviceStatusList(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageParams(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	locationID, ok := parseOptionalID(r, "location_id")
	if !ok {
		writeValidationError(w, "location_id must be an integer.")
		return
	}

	page, err := s.devices.ListStatusPage(r.Context(), req, locationID)
	if err != nil {
		s.logger.Error("listing device statuses", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "OK", page)
}

// handleAddDeviceType registers a new device type (admin only).
func (s *Server) handleAddDeviceType(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r, "Not authorized to add device type.") == nil {
		return
	}

	var dt device.Type
	if err := decodeJSON(r, &dt); err != nil {
		writeValidationError(w, "Malformed request body.")
		return
	}

	if err := s.devices.CreateType(r.Context(), &dt); err != nil {
		switch {
		case errors.Is(err, device.ErrInvalidTypeName):
			writeValidationError(w, "Type name is required.")
		case errors.Is(err, device.ErrTypeNameExists):
			writeFailure(w, "Type name already exists.")
		default:
			s.logger.Error("creating device type", "error", err)
			writeInternalError(w, "internal server error")
		}
		return
	}

	fresh, err := s.devices.GetType(r.Context(), dt.ID)
	if err != nil {
		s.logger.Error("rereading device type", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "Device type created.", fresh)
}

// handleListDeviceTypes returns all device types.
func (s *Server) handleListDeviceTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.devices.ListTypes(r.Context())
	if err != nil {
		s.logger.Error("listing device types", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeOK(w, "OK", types)
}
