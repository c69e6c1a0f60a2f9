package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unrealfeathers/home-server/internal/pagination"
)

// Repository defines the interface for device persistence operations.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	GetByID(ctx context.Context, id int64) (*View, error)
	GetBySerialNumber(ctx context.Context, serialNumber string) (*Device, error)
	GetStatus(ctx context.Context, serialNumber string) (*StatusView, error)
	ListPage(ctx context.Context, req pagination.Request, filter Filter) (pagination.Page[View], error)
	ListStatusPage(ctx context.Context, req pagination.Request, locationID *int64) (pagination.Page[StatusView], error)
	Update(ctx context.Context, id int64, update Update) error
	UpdateStatus(ctx context.Context, serialNumber, firmwareVersion string, isOnline bool) error
	Delete(ctx context.Context, id int64) error

	CreateType(ctx context.Context, dt *Type) error
	GetType(ctx context.Context, id int64) (*Type, error)
	ListTypes(ctx context.Context) ([]Type, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = "id, serial_number, mac_address, name, type_id, location_id, firmware_version, is_online, last_online, created_at, updated_at"

// viewQuery joins devices with their type and location names.
const viewQuery = `SELECT d.id, d.serial_number, d.mac_address, d.name, d.type_id, d.location_id,
	d.firmware_version, d.is_online, d.last_online, d.created_at, d.updated_at,
	dt.name, l.name
	FROM devices d
	LEFT JOIN device_types dt ON dt.id = d.type_id
	LEFT JOIN locations l ON l.id = d.location_id`

// Create registers a new device and fills in the generated ID.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	if strings.TrimSpace(d.SerialNumber) == "" {
		return ErrInvalidSerial
	}
	if strings.TrimSpace(d.MACAddress) == "" {
		return ErrInvalidMAC
	}
	if strings.TrimSpace(d.Name) == "" {
		return ErrInvalidName
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (serial_number, mac_address, name, type_id, location_id, firmware_version, is_online, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		d.SerialNumber, d.MACAddress, d.Name, nullInt64(d.TypeID), nullInt64(d.LocationID),
		nullString(d.FirmwareVersion), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSerialExists
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("creating device: unknown type or location: %w", err)
		}
		return fmt.Errorf("creating device: %w", err)
	}

	d.ID, _ = result.LastInsertId()                //nolint:errcheck // always succeeds on SQLite
	d.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	d.UpdatedAt = d.CreatedAt

	return nil
}

// GetByID returns a device with joined type and location names.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*View, error) {
	row := r.db.QueryRowContext(ctx, viewQuery+" WHERE d.id = ?", id)
	return scanView(row)
}

// GetBySerialNumber returns a device by its serial number.
func (r *SQLiteRepository) GetBySerialNumber(ctx context.Context, serialNumber string) (*Device, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE serial_number = ?", serialNumber)
	return scanDevice(row)
}

// GetStatus returns the slim status projection for a device.
func (r *SQLiteRepository) GetStatus(ctx context.Context, serialNumber string) (*StatusView, error) {
	d, err := r.GetBySerialNumber(ctx, serialNumber)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		SerialNumber:    d.SerialNumber,
		Name:            d.Name,
		FirmwareVersion: d.FirmwareVersion,
		IsOnline:        d.IsOnline,
		LastOnline:      d.LastOnline,
	}, nil
}

// ListPage returns one page of devices with joined names, ordered by ID.
func (r *SQLiteRepository) ListPage(ctx context.Context, req pagination.Request, filter Filter) (pagination.Page[View], error) {
	var empty pagination.Page[View]

	var filters pagination.FilterSet
	if filter.TypeID != nil {
		filters.Equal("d.type_id", *filter.TypeID)
	}
	if filter.LocationID != nil {
		filters.Equal("d.location_id", *filter.LocationID)
	}
	if filter.IsOnline != nil {
		filters.Equal("d.is_online", boolToInt(*filter.IsOnline))
	}
	where, args := filters.Where()

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices d"+where, args...).Scan(&total); err != nil {
		return empty, fmt.Errorf("counting devices: %w", err)
	}

	query := viewQuery + where + " ORDER BY d.id ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, req.Limit(), req.Offset())...)
	if err != nil {
		return empty, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return empty, err
		}
		views = append(views, *v)
	}
	if err := rows.Err(); err != nil {
		return empty, fmt.Errorf("iterating devices: %w", err)
	}

	return pagination.NewPage(views, req, total), nil
}

// ListStatusPage returns one page of slim status views ordered by ID,
// optionally restricted to a location.
func (r *SQLiteRepository) ListStatusPage(ctx context.Context, req pagination.Request, locationID *int64) (pagination.Page[StatusView], error) {
	var empty pagination.Page[StatusView]

	var filters pagination.FilterSet
	if locationID != nil {
		filters.Equal("location_id", *locationID)
	}
	where, args := filters.Where()

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices"+where, args...).Scan(&total); err != nil {
		return empty, fmt.Errorf("counting devices: %w", err)
	}

	query := "SELECT serial_number, name, firmware_version, is_online, last_online FROM devices" +
		where + " ORDER BY id ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, req.Limit(), req.Offset())...)
	if err != nil {
		return empty, fmt.Errorf("listing device statuses: %w", err)
	}
	defer rows.Close()

	var statuses []StatusView
	for rows.Next() {
		var sv StatusView
		var firmware, lastOnline sql.NullString
		var isOnline int
		if err := rows.Scan(&sv.SerialNumber, &sv.Name, &firmware, &isOnline, &lastOnline); err != nil {
			return empty, fmt.Errorf("scanning device status: %w", err)
		}
		if firmware.Valid {
			sv.FirmwareVersion = firmware.String
		}
		sv.IsOnline = isOnline != 0
		if lastOnline.Valid {
			if t, err := time.Parse(time.RFC3339, lastOnline.String); err == nil {
				sv.LastOnline = &t
			}
		}
		statuses = append(statuses, sv)
	}
	if err := rows.Err(); err != nil {
		return empty, fmt.Errorf("iterating device statuses: %w", err)
	}

	return pagination.NewPage(statuses, req, total), nil
}

// Update modifies a device's mutable fields. Only non-nil fields are applied.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, update Update) error {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return ErrInvalidName
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.TypeID != nil {
		sets = append(sets, "type_id = ?")
		args = append(args, *update.TypeID)
	}
	if update.LocationID != nil {
		sets = append(sets, "location_id = ?")
		args = append(args, *update.LocationID)
	}

	args = append(args, id)
	result, err := r.db.ExecContext(ctx,
		"UPDATE devices SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("updating device: unknown type or location: %w", err)
		}
		return fmt.Errorf("updating device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus records a device heartbeat: sets the online flag, stores
// the reported firmware version if present, and bumps last_online when
// the device reports in as online.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, serialNumber, firmwareVersion string, isOnline bool) error {
	now := time.Now().UTC().Format(time.RFC3339)

	sets := []string{"is_online = ?", "updated_at = ?"}
	args := []any{boolToInt(isOnline), now}
	if isOnline {
		sets = append(sets, "last_online = ?")
		args = append(args, now)
	}
	if firmwareVersion != "" {
		sets = append(sets, "firmware_version = ?")
		args = append(args, firmwareVersion)
	}

	args = append(args, serialNumber)
	result, err := r.db.ExecContext(ctx,
		"UPDATE devices SET "+strings.Join(sets, ", ")+" WHERE serial_number = ?", args...)
	if err != nil {
		return fmt.Errorf("updating device status: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a device by ID. Its environment readings are removed
// with it (schema ON DELETE CASCADE).
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateType inserts a new device type and fills in the generated ID.
func (r *SQLiteRepository) CreateType(ctx context.Context, dt *Type) error {
	if strings.TrimSpace(dt.Name) == "" {
		return ErrInvalidTypeName
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO device_types (name, manufacturer, model, description, capabilities, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		dt.Name, nullString(dt.Manufacturer), nullString(dt.Model),
		nullString(dt.Description), nullString(dt.Capabilities), now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTypeNameExists
		}
		return fmt.Errorf("creating device type: %w", err)
	}

	dt.ID, _ = result.LastInsertId()                //nolint:errcheck // always succeeds on SQLite
	dt.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	return nil
}

// GetType returns a single device type by ID.
func (r *SQLiteRepository) GetType(ctx context.Context, id int64) (*Type, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, manufacturer, model, description, capabilities, created_at FROM device_types WHERE id = ?", id)

	var dt Type
	var manufacturer, model, description, capabilities sql.NullString
	var createdAt string
	if err := row.Scan(&dt.ID, &dt.Name, &manufacturer, &model, &description, &capabilities, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTypeNotFound
		}
		return nil, fmt.Errorf("getting device type: %w", err)
	}
	if manufacturer.Valid {
		dt.Manufacturer = manufacturer.String
	}
	if model.Valid {
		dt.Model = model.String
	}
	if description.Valid {
		dt.Description = description.String
	}
	if capabilities.Valid {
		dt.Capabilities = capabilities.String
	}
	dt.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &dt, nil
}

// ListTypes returns all device types ordered by ID.
func (r *SQLiteRepository) ListTypes(ctx context.Context) ([]Type, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, manufacturer, model, description, capabilities, created_at FROM device_types ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing device types: %w", err)
	}
	defer rows.Close()

	types := []Type{}
	for rows.Next() {
		var dt Type
		var manufacturer, model, description, capabilities sql.NullString
		var createdAt string
		if err := rows.Scan(&dt.ID, &dt.Name, &manufacturer, &model, &description, &capabilities, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning device type: %w", err)
		}
		if manufacturer.Valid {
			dt.Manufacturer = manufacturer.String
		}
		if model.Valid {
			dt.Model = model.String
		}
		if description.Valid {
			dt.Description = description.String
		}
		if capabilities.Valid {
			dt.Capabilities = capabilities.String
		}
		dt.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
		types = append(types, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device types: %w", err)
	}

	return types, nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanDevice scans the base device columns from any scanner.
func scanDevice(s scanner) (*Device, error) {
	var d Device
	var typeID, locationID sql.NullInt64
	var firmware, lastOnline sql.NullString
	var isOnline int
	var createdAt, updatedAt string

	err := s.Scan(&d.ID, &d.SerialNumber, &d.MACAddress, &d.Name, &typeID, &locationID,
		&firmware, &isOnline, &lastOnline, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}

	applyDeviceFields(&d, typeID, locationID, firmware, lastOnline, isOnline, createdAt, updatedAt)
	return &d, nil
}

// scanView scans the joined device view from any scanner.
func scanView(s scanner) (*View, error) {
	var v View
	var typeID, locationID sql.NullInt64
	var firmware, lastOnline, typeName, locationName sql.NullString
	var isOnline int
	var createdAt, updatedAt string

	err := s.Scan(&v.ID, &v.SerialNumber, &v.MACAddress, &v.Name, &typeID, &locationID,
		&firmware, &isOnline, &lastOnline, &createdAt, &updatedAt,
		&typeName, &locationName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning device view: %w", err)
	}

	applyDeviceFields(&v.Device, typeID, locationID, firmware, lastOnline, isOnline, createdAt, updatedAt)
	if typeName.Valid {
		v.TypeName = typeName.String
	}
	if locationName.Valid {
		v.LocationName = locationName.String
	}

	return &v, nil
}

// applyDeviceFields converts scanned nullable columns onto a Device.
func applyDeviceFields(d *Device, typeID, locationID sql.NullInt64, firmware, lastOnline sql.NullString, isOnline int, createdAt, updatedAt string) {
	if typeID.Valid {
		d.TypeID = &typeID.Int64
	}
	if locationID.Valid {
		d.LocationID = &locationID.Int64
	}
	if firmware.Valid {
		d.FirmwareVersion = firmware.String
	}
	d.IsOnline = isOnline != 0
	if lastOnline.Valid {
		if t, err := time.Parse(time.RFC3339, lastOnline.String); err == nil {
			d.LastOnline = &t
		}
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation checks if a SQLite error is a FOREIGN KEY constraint violation.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
