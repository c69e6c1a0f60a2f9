package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/unrealfeathers/home-server/internal/pagination"
)

// setupTestDB creates an in-memory SQLite database with the device tables.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE locations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			floor       INTEGER,
			description TEXT,
			created_at  TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE device_types (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			name         TEXT NOT NULL UNIQUE,
			manufacturer TEXT,
			model        TEXT,
			description  TEXT,
			capabilities TEXT,
			created_at   TEXT NOT NULL DEFAULT (datetime('now'))
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

		INSERT INTO locations (name, floor) VALUES ('Living Room', 1);
		INSERT INTO device_types (name, description) VALUES ('esp32-env', 'environment sensor node');
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

func createTestDevice(t *testing.T, repo *SQLiteRepository, serial string) *Device {
	t.Helper()

	typeID := int64(1)
	locationID := int64(1)
	d := &Device{
		SerialNumber: serial,
		MACAddress:   "24:6F:28:" + serial,
		Name:         "sensor " + serial,
		TypeID:       &typeID,
		LocationID:   &locationID,
	}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create(%s): %v", serial, err)
	}
	return d
}

func TestCreate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	d := createTestDevice(t, repo, "SN-0001")

	if d.ID == 0 {
		t.Error("Create() should assign a non-zero ID")
	}
	if d.IsOnline {
		t.Error("new devices should start offline")
	}
}

func TestCreate_DuplicateSerial(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	createTestDevice(t, repo, "SN-0001")

	dup := &Device{SerialNumber: "SN-0001", MACAddress: "24:6F:28:00:00:01", Name: "other"}
	err := repo.Create(context.Background(), dup)
	if !errors.Is(err, ErrSerialExists) {
		t.Errorf("Create() duplicate error = %v, want ErrSerialExists", err)
	}
}

func TestCreate_MissingSerial(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.Create(context.Background(), &Device{MACAddress: "24:6F:28:00:00:01", Name: "nameless"})
	if !errors.Is(err, ErrInvalidSerial) {
		t.Errorf("Create() error = %v, want ErrInvalidSerial", err)
	}
}

func TestCreate_MissingMAC(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.Create(context.Background(), &Device{SerialNumber: "SN-0001", Name: "no mac"})
	if !errors.Is(err, ErrInvalidMAC) {
		t.Errorf("Create() error = %v, want ErrInvalidMAC", err)
	}
}

func TestGetByID_JoinedNames(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	d := createTestDevice(t, repo, "SN-0001")

	v, err := repo.GetByID(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if v.TypeName != "esp32-env" {
		t.Errorf("TypeName = %q, want esp32-env", v.TypeName)
	}
	if v.LocationName != "Living Room" {
		t.Errorf("LocationName = %q, want Living Room", v.LocationName)
	}
	if v.MACAddress != d.MACAddress {
		t.Errorf("MACAddress = %q, want %q", v.MACAddress, d.MACAddress)
	}
}

func TestGetBySerialNumber(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	created := createTestDevice(t, repo, "SN-0042")

	got, err := repo.GetBySerialNumber(context.Background(), "SN-0042")
	if err != nil {
		t.Fatalf("GetBySerialNumber: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %d, want %d", got.ID, created.ID)
	}
	if got.MACAddress != created.MACAddress {
		t.Errorf("MACAddress = %q, want %q", got.MACAddress, created.MACAddress)
	}
}

func TestGetBySerialNumber_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetBySerialNumber(context.Background(), "SN-MISSING")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBySerialNumber() error = %v, want ErrNotFound", err)
	}
}

func TestListPage_OnlineFilter(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	createTestDevice(t, repo, "SN-0001")
	createTestDevice(t, repo, "SN-0002")

	if err := repo.UpdateStatus(ctx, "SN-0002", "1.2.0", true); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	online := true
	page, err := repo.ListPage(ctx, pagination.Request{Page: 1, Size: 10}, Filter{IsOnline: &online})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("expected 1 online device, got total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Items[0].SerialNumber != "SN-0002" {
		t.Errorf("online device = %q, want SN-0002", page.Items[0].SerialNumber)
	}
}

func TestListPage_LocationFilterSecondPage(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	// A few devices outside the filtered location, interleaved before the
	// matching set so offsets cannot accidentally line up with row IDs.
	for i := 1; i <= 3; i++ {
		d := &Device{
			SerialNumber: fmt.Sprintf("SN-X%03d", i),
			MACAddress:   fmt.Sprintf("24:6F:28:FF:00:%02d", i),
			Name:         "unplaced",
		}
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	for i := 1; i <= 25; i++ {
		createTestDevice(t, repo, fmt.Sprintf("SN-%04d", i))
	}

	locID := int64(1)
	page, err := repo.ListPage(ctx, pagination.Request{Page: 2, Size: 10}, Filter{LocationID: &locID})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}

	if page.Total != 25 {
		t.Errorf("Total = %d, want 25", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", page.TotalPages)
	}
	if len(page.Items) != 10 {
		t.Fatalf("len(Items) = %d, want 10", len(page.Items))
	}
	if page.Items[0].SerialNumber != "SN-0011" {
		t.Errorf("first item = %q, want SN-0011", page.Items[0].SerialNumber)
	}
	if page.Items[9].SerialNumber != "SN-0020" {
		t.Errorf("last item = %q, want SN-0020", page.Items[9].SerialNumber)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	createTestDevice(t, repo, "SN-0001")

	if err := repo.UpdateStatus(ctx, "SN-0001", "2.0.1", true); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, err := repo.GetBySerialNumber(ctx, "SN-0001")
	if err != nil {
		t.Fatalf("GetBySerialNumber: %v", err)
	}
	if !got.IsOnline {
		t.Error("device should be online after status update")
	}
	if got.LastOnline == nil {
		t.Error("LastOnline should be set after status update")
	}
	if got.FirmwareVersion != "2.0.1" {
		t.Errorf("FirmwareVersion = %q, want 2.0.1", got.FirmwareVersion)
	}
}

func TestUpdateStatus_UnknownSerial(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.UpdateStatus(context.Background(), "SN-GHOST", "1.0.0", true)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStatus() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateStatus_GoingOffline(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	createTestDevice(t, repo, "SN-0001")

	if err := repo.UpdateStatus(ctx, "SN-0001", "", true); err != nil {
		t.Fatalf("UpdateStatus online: %v", err)
	}
	if err := repo.UpdateStatus(ctx, "SN-0001", "", false); err != nil {
		t.Fatalf("UpdateStatus offline: %v", err)
	}

	got, _ := repo.GetBySerialNumber(ctx, "SN-0001")
	if got.IsOnline {
		t.Error("device should be offline after offline heartbeat")
	}
	if got.LastOnline == nil {
		t.Error("LastOnline should survive going offline")
	}
}

func TestListStatusPage(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	createTestDevice(t, repo, "SN-0001")

	d := &Device{SerialNumber: "SN-0002", MACAddress: "24:6F:28:00:00:02", Name: "unplaced"}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	locID := int64(1)
	page, err := repo.ListStatusPage(ctx, pagination.Request{Page: 1, Size: 10}, &locID)
	if err != nil {
		t.Fatalf("ListStatusPage: %v", err)
	}
	if page.Total != 1 || page.Items[0].SerialNumber != "SN-0001" {
		t.Errorf("status page = %+v, want only SN-0001", page.Items)
	}
}

func TestGetStatus(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	createTestDevice(t, repo, "SN-0001")

	status, err := repo.GetStatus(ctx, "SN-0001")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.SerialNumber != "SN-0001" {
		t.Errorf("SerialNumber = %q, want SN-0001", status.SerialNumber)
	}
	if status.IsOnline {
		t.Error("fresh device should report offline")
	}
}

func TestUpdate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	d := createTestDevice(t, repo, "SN-0001")

	name := "renamed sensor"
	if err := repo.Update(ctx, d.ID, Update{Name: &name}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := repo.GetBySerialNumber(ctx, "SN-0001")
	if got.Name != name {
		t.Errorf("Name = %q, want %q", got.Name, name)
	}
}

func TestDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	d := createTestDevice(t, repo, "SN-0001")

	if err := repo.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
}

func TestCreateType_Duplicate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.CreateType(context.Background(), &Type{Name: "esp32-env"})
	if !errors.Is(err, ErrTypeNameExists) {
		t.Errorf("CreateType() duplicate error = %v, want ErrTypeNameExists", err)
	}
}

func TestGetType(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	dt := &Type{Name: "sg90-servo", Manufacturer: "TowerPro", Capabilities: "rotate:180"}
	if err := repo.CreateType(ctx, dt); err != nil {
		t.Fatalf("CreateType: %v", err)
	}

	got, err := repo.GetType(ctx, dt.ID)
	if err != nil {
		t.Fatalf("GetType: %v", err)
	}
	if got.Name != "sg90-servo" || got.Manufacturer != "TowerPro" {
		t.Errorf("GetType = %+v, want stored name/manufacturer", got)
	}

	if _, err := repo.GetType(ctx, 9999); !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("GetType(9999) error = %v, want ErrTypeNotFound", err)
	}
}

func TestListTypes(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.CreateType(ctx, &Type{
		Name:         "sg90-servo",
		Manufacturer: "TowerPro",
		Model:        "SG90",
		Description:  "actuator",
		Capabilities: "rotate:180",
	}); err != nil {
		t.Fatalf("CreateType: %v", err)
	}

	types, err := repo.ListTypes(ctx)
	if err != nil {
		t.Fatalf("ListTypes: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(types))
	}
	if types[1].Name != "sg90-servo" {
		t.Errorf("second type = %q, want sg90-servo", types[1].Name)
	}
	if types[1].Manufacturer != "TowerPro" || types[1].Model != "SG90" {
		t.Errorf("manufacturer/model = %q/%q, want TowerPro/SG90", types[1].Manufacturer, types[1].Model)
	}
	if types[1].Capabilities != "rotate:180" {
		t.Errorf("Capabilities = %q, want rotate:180", types[1].Capabilities)
	}
}
