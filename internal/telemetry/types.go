package telemetry

import (
	"errors"
	"time"
)

// EnvironmentData is one stored sensor reading.
//
// LocationID is snapshotted from the device at ingest time, so readings
// stay attributed to the place they were taken even if the device moves
// later. Deleting the location nulls the reference; deleting the device
// removes its readings.
type EnvironmentData struct {
	ID          int64     `json:"id"`
	DeviceID    int64     `json:"device_id"`
	LocationID  *int64    `json:"location_id,omitempty"`
	Lux         *float64  `json:"lux,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// View is a reading joined with device and location names for list responses.
type View struct {
	EnvironmentData
	DeviceName   string `json:"device_name,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	LocationName string `json:"location_name,omitempty"`
}

// Reading is the ingest payload devices send, keyed by serial number.
// Missing sensor fields are stored as NULL rather than zero. A nil
// Timestamp means "use the server clock".
type Reading struct {
	SerialNumber string     `json:"serial_number"`
	Lux          *float64   `json:"lux,omitempty"`
	Temperature  *float64   `json:"temperature,omitempty"`
	Humidity     *float64   `json:"humidity,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
}

// Filter narrows List queries. Nil fields mean "no filter".
type Filter struct {
	DeviceID   *int64
	LocationID *int64
}

// Sentinel errors for telemetry operations.
var (
	ErrNotFound       = errors.New("environment data not found")
	ErrDeviceNotFound = errors.New("device not found for reading")
	ErrMissingSerial  = errors.New("serial number is required")
	ErrEmptyReading   = errors.New("reading has no sensor values")
)
