package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/unrealfeathers/home-server/internal/pagination"
)

// setupTestDB creates an in-memory SQLite database with the telemetry tables
// and two seeded devices.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE locations (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			floor INTEGER,
			description TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE device_types (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL UNIQUE,
			description TEXT,
			created_at  TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE devices (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			serial_number    TEXT NOT NULL UNIQUE,
			mac_address      TEXT NOT NULL,
			name             TEXT NOT NULL,
			type_id          INTEGER REFERENCES device_types (id) ON DELETE SET NULL,
			location_id      INTEGER REFERENCES locations (id) ON DELETE SET NULL,
			firmware_version TEXT,
			is_online        INTEGER NOT NULL DEFAULT 0,
			last_online      TEXT,
			created_at       TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE environment_data (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id   INTEGER NOT NULL REFERENCES devices (id) ON DELETE CASCADE,
			location_id INTEGER REFERENCES locations (id) ON DELETE SET NULL,
			lux         REAL,
			temperature REAL,
			humidity    REAL,
			timestamp   TEXT NOT NULL DEFAULT (datetime('now'))
		);

		INSERT INTO locations (name, floor) VALUES ('Living Room', 1);
		INSERT INTO devices (serial_number, mac_address, name, location_id) VALUES
			('SN-0001', '24:6F:28:00:00:01', 'sensor one', 1),
			('SN-0002', '24:6F:28:00:00:02', 'sensor two', NULL);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func fl(v float64) *float64 { return &v }

func insertReading(t *testing.T, repo *SQLiteRepository, deviceID int64, temp float64, ts time.Time) *EnvironmentData {
	t.Helper()

	locID := int64(1)
	data := &EnvironmentData{
		DeviceID:    deviceID,
		LocationID:  &locID,
		Temperature: fl(temp),
		Timestamp:   ts,
	}
	if err := repo.Insert(context.Background(), data); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return data
}

func TestInsert(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	data := &EnvironmentData{
		DeviceID:    1,
		Lux:         fl(150),
		Temperature: fl(21.5),
		Humidity:    fl(40),
	}
	if err := repo.Insert(context.Background(), data); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if data.ID == 0 {
		t.Error("Insert() should assign a non-zero ID")
	}
	if data.Timestamp.IsZero() {
		t.Error("Insert() should default the timestamp")
	}
}

func TestInsert_PartialReading(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	data := &EnvironmentData{DeviceID: 1, Temperature: fl(19.0)}
	if err := repo.Insert(ctx, data); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := repo.GetByID(ctx, data.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Lux != nil || got.Humidity != nil {
		t.Error("missing sensor fields should stay NULL, not zero")
	}
	if got.Temperature == nil || *got.Temperature != 19.0 {
		t.Errorf("Temperature = %v, want 19.0", got.Temperature)
	}
}

func TestLatest(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	now := time.Now().UTC().Truncate(time.Second)

	insertReading(t, repo, 1, 20.0, now.Add(-2*time.Minute))
	newest := insertReading(t, repo, 1, 22.0, now)
	insertReading(t, repo, 2, 18.0, now.Add(time.Minute))

	got, err := repo.Latest(context.Background(), 1)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != newest.ID {
		t.Errorf("Latest ID = %d, want %d", got.ID, newest.ID)
	}
}

func TestListPage_NewestFirst(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	now := time.Now().UTC().Truncate(time.Second)

	insertReading(t, repo, 1, 20.0, now.Add(-2*time.Minute))
	insertReading(t, repo, 1, 21.0, now.Add(-1*time.Minute))
	insertReading(t, repo, 1, 22.0, now)

	page, err := repo.ListPage(context.Background(), pagination.Request{Page: 1, Size: 10}, Filter{})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}

	if len(page.Items) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(page.Items))
	}
	if *page.Items[0].Temperature != 22.0 {
		t.Errorf("first item temperature = %v, want 22.0 (newest first)", *page.Items[0].Temperature)
	}
	if page.Items[0].DeviceName != "sensor one" {
		t.Errorf("DeviceName = %q, want sensor one", page.Items[0].DeviceName)
	}
	if page.Items[0].LocationName != "Living Room" {
		t.Errorf("LocationName = %q, want Living Room", page.Items[0].LocationName)
	}
}

func TestListPage_TimestampTieBreaksByID(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ts := time.Now().UTC().Truncate(time.Second)

	first := insertReading(t, repo, 1, 20.0, ts)
	second := insertReading(t, repo, 1, 21.0, ts)

	page, err := repo.ListPage(context.Background(), pagination.Request{Page: 1, Size: 10}, Filter{})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if page.Items[0].ID != second.ID || page.Items[1].ID != first.ID {
		t.Errorf("tie order = [%d %d], want [%d %d]",
			page.Items[0].ID, page.Items[1].ID, second.ID, first.ID)
	}
}

func TestListPage_DeviceFilter(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	now := time.Now().UTC()

	insertReading(t, repo, 1, 20.0, now)
	insertReading(t, repo, 2, 18.0, now)

	deviceID := int64(2)
	page, err := repo.ListPage(context.Background(), pagination.Request{Page: 1, Size: 10}, Filter{DeviceID: &deviceID})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if page.Total != 1 || page.Items[0].DeviceID != 2 {
		t.Errorf("filtered page = %+v, want only device 2", page.Items)
	}
}

func TestDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	data := insertReading(t, repo, 1, 20.0, time.Now().UTC())

	if err := repo.Delete(ctx, data.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, data.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, data.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestDeviceDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	data := insertReading(t, repo, 1, 20.0, time.Now().UTC())

	if _, err := db.Exec("DELETE FROM devices WHERE id = 1"); err != nil {
		t.Fatalf("deleting device: %v", err)
	}

	if _, err := repo.GetByID(ctx, data.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("readings should cascade with device deletion, got %v", err)
	}
}
