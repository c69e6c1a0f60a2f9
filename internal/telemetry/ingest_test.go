package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/unrealfeathers/home-server/internal/device"
	"github.com/unrealfeathers/home-server/internal/pagination"
)

func setupIngestor(t *testing.T) (*Ingestor, *SQLiteRepository) {
	t.Helper()

	db := setupTestDB(t)
	readings := NewSQLiteRepository(db)
	devices := device.NewSQLiteRepository(db)
	return NewIngestor(devices, readings), readings
}

func TestIngest(t *testing.T) {
	ing, repo := setupIngestor(t)
	ctx := context.Background()

	data, err := ing.Ingest(ctx, Reading{
		SerialNumber: "SN-0001",
		Lux:          fl(120),
		Temperature:  fl(21.5),
		Humidity:     fl(38),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if data.DeviceID != 1 {
		t.Errorf("DeviceID = %d, want 1", data.DeviceID)
	}
	if data.LocationID == nil || *data.LocationID != 1 {
		t.Errorf("LocationID = %v, want snapshot of device location 1", data.LocationID)
	}

	got, err := repo.GetByID(ctx, data.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Temperature == nil || *got.Temperature != 21.5 {
		t.Errorf("stored temperature = %v, want 21.5", got.Temperature)
	}
}

func TestIngest_DeviceWithoutLocation(t *testing.T) {
	ing, _ := setupIngestor(t)

	data, err := ing.Ingest(context.Background(), Reading{
		SerialNumber: "SN-0002",
		Temperature:  fl(18),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if data.LocationID != nil {
		t.Errorf("LocationID = %v, want nil for unplaced device", data.LocationID)
	}
}

func TestIngest_UnknownSerial(t *testing.T) {
	ing, repo := setupIngestor(t)
	ctx := context.Background()

	_, err := ing.Ingest(ctx, Reading{SerialNumber: "SN-GHOST", Temperature: fl(20)})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Ingest() error = %v, want ErrDeviceNotFound", err)
	}

	// Nothing should have been written
	page, err := repo.ListPage(ctx, pagination.Request{Page: 1, Size: 10}, Filter{})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("Total = %d, want 0 after rejected reading", page.Total)
	}
}

func TestIngest_MissingSerial(t *testing.T) {
	ing, _ := setupIngestor(t)

	_, err := ing.Ingest(context.Background(), Reading{Temperature: fl(20)})
	if !errors.Is(err, ErrMissingSerial) {
		t.Errorf("Ingest() error = %v, want ErrMissingSerial", err)
	}
}

func TestIngest_EmptyReading(t *testing.T) {
	ing, _ := setupIngestor(t)

	_, err := ing.Ingest(context.Background(), Reading{SerialNumber: "SN-0001"})
	if !errors.Is(err, ErrEmptyReading) {
		t.Errorf("Ingest() error = %v, want ErrEmptyReading", err)
	}
}

func TestIngest_MirrorCalled(t *testing.T) {
	ing, _ := setupIngestor(t)

	var mirroredSerial string
	ing.SetMirror(func(serial string, data *EnvironmentData) {
		mirroredSerial = serial
	})

	_, err := ing.Ingest(context.Background(), Reading{SerialNumber: "SN-0001", Lux: fl(99)})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if mirroredSerial != "SN-0001" {
		t.Errorf("mirror received %q, want SN-0001", mirroredSerial)
	}
}
