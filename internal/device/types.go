package device

import (
	"errors"
	"time"
)

// Device represents a registered hardware unit (sensor node, actuator, ...).
// The serial number is the stable identity devices report with over MQTT
// and HTTP; the numeric ID is internal.
type Device struct {
	ID              int64      `json:"id"`
	SerialNumber    string     `json:"serial_number"`
	MACAddress      string     `json:"mac_address"`
	Name            string     `json:"name"`
	TypeID          *int64     `json:"type_id,omitempty"`
	LocationID      *int64     `json:"location_id,omitempty"`
	FirmwareVersion string     `json:"firmware_version,omitempty"`
	IsOnline        bool       `json:"is_online"`
	LastOnline      *time.Time `json:"last_online,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// View is a device joined with its type and location names for list
// and detail responses.
type View struct {
	Device
	TypeName     string `json:"type_name,omitempty"`
	LocationName string `json:"location_name,omitempty"`
}

// StatusView is the slim projection served by the status endpoint.
type StatusView struct {
	SerialNumber    string     `json:"serial_number"`
	Name            string     `json:"name"`
	FirmwareVersion string     `json:"firmware_version,omitempty"`
	IsOnline        bool       `json:"is_online"`
	LastOnline      *time.Time `json:"last_online,omitempty"`
}

// Type categorises devices (e.g. "esp32-env", "sg90-servo").
// Capabilities is a free-form descriptor of what units of this type
// can do, as reported by the device firmware.
type Type struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Model        string    `json:"model,omitempty"`
	Description  string    `json:"description,omitempty"`
	Capabilities string    `json:"capabilities,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Update holds the mutable fields of a device. Nil fields are left untouched.
type Update struct {
	Name       *string `json:"name,omitempty"`
	TypeID     *int64  `json:"type_id,omitempty"`
	LocationID *int64  `json:"location_id,omitempty"`
}

// Filter narrows List queries. Nil fields mean "no filter".
type Filter struct {
	TypeID     *int64
	LocationID *int64
	IsOnline   *bool
}

// Sentinel errors for device operations.
var (
	ErrNotFound        = errors.New("device not found")
	ErrTypeNotFound    = errors.New("device type not found")
	ErrSerialExists    = errors.New("serial number already registered")
	ErrTypeNameExists  = errors.New("device type name already exists")
	ErrInvalidSerial   = errors.New("serial number is required")
	ErrInvalidMAC      = errors.New("mac address is required")
	ErrInvalidName     = errors.New("device name is required")
	ErrInvalidTypeName = errors.New("device type name is required")
)
