package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/unrealfeathers/home-server/internal/device"
)

// Ingestor validates readings from devices and persists them.
//
// Readings arrive keyed by serial number; the ingestor resolves the
// device, snapshots its current location, stores the reading, and
// optionally mirrors it to the time-series store.
type Ingestor struct {
	devices  device.Repository
	readings Repository
	mirror   mirrorFunc
}

// mirrorFunc is the mirror callback signature, kept as a function so the
// influxdb dependency stays optional.
type mirrorFunc func(serialNumber string, data *EnvironmentData)

// NewIngestor creates an ingestor. The mirror may be nil.
func NewIngestor(devices device.Repository, readings Repository) *Ingestor {
	return &Ingestor{devices: devices, readings: readings}
}

// SetMirror installs a callback invoked for every accepted reading.
func (i *Ingestor) SetMirror(fn func(serialNumber string, data *EnvironmentData)) {
	i.mirror = fn
}

// Ingest validates and stores a reading.
//
// An unknown serial number is rejected with ErrDeviceNotFound and
// nothing is written. A reading with no sensor values at all is
// rejected with ErrEmptyReading.
func (i *Ingestor) Ingest(ctx context.Context, reading Reading) (*EnvironmentData, error) {
	if strings.TrimSpace(reading.SerialNumber) == "" {
		return nil, ErrMissingSerial
	}
	if reading.Lux == nil && reading.Temperature == nil && reading.Humidity == nil {
		return nil, ErrEmptyReading
	}

	dev, err := i.devices.GetBySerialNumber(ctx, reading.SerialNumber)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, reading.SerialNumber)
		}
		return nil, fmt.Errorf("resolving device: %w", err)
	}

	data := &EnvironmentData{
		DeviceID:    dev.ID,
		LocationID:  dev.LocationID,
		Lux:         reading.Lux,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
	}
	if reading.Timestamp != nil {
		data.Timestamp = *reading.Timestamp
	}
	if err := i.readings.Insert(ctx, data); err != nil {
		return nil, err
	}

	if i.mirror != nil {
		i.mirror(reading.SerialNumber, data)
	}

	return data, nil
}
