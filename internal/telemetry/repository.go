package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/unrealfeathers/home-server/internal/pagination"
)

// Repository defines the interface for environment data persistence.
type Repository interface {
	Insert(ctx context.Context, data *EnvironmentData) error
	GetByID(ctx context.Context, id int64) (*EnvironmentData, error)
	Latest(ctx context.Context, deviceID int64) (*EnvironmentData, error)
	ListPage(ctx context.Context, req pagination.Request, filter Filter) (pagination.Page[View], error)
	Delete(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed telemetry repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const dataColumns = "id, device_id, location_id, lux, temperature, humidity, timestamp"

// viewQuery joins readings with device and location names.
const viewQuery = `SELECT e.id, e.device_id, e.location_id, e.lux, e.temperature, e.humidity, e.timestamp,
	d.name, d.serial_number, l.name
	FROM environment_data e
	JOIN devices d ON d.id = e.device_id
	LEFT JOIN locations l ON l.id = e.location_id`

// Insert stores a reading and fills in the generated ID and timestamp.
func (r *SQLiteRepository) Insert(ctx context.Context, data *EnvironmentData) error {
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO environment_data (device_id, location_id, lux, temperature, humidity, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		data.DeviceID, nullInt64(data.LocationID),
		nullFloat(data.Lux), nullFloat(data.Temperature), nullFloat(data.Humidity),
		data.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting environment data: %w", err)
	}

	data.ID, _ = result.LastInsertId() //nolint:errcheck // always succeeds on SQLite
	return nil
}

// GetByID returns a single reading by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*EnvironmentData, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+dataColumns+" FROM environment_data WHERE id = ?", id)
	return scanData(row)
}

// Latest returns the most recent reading for a device.
func (r *SQLiteRepository) Latest(ctx context.Context, deviceID int64) (*EnvironmentData, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+dataColumns+" FROM environment_data WHERE device_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1",
		deviceID)
	return scanData(row)
}

// ListPage returns one page of readings with joined names, newest first.
// Ties on timestamp break by ID so the order is stable across pages.
func (r *SQLiteRepository) ListPage(ctx context.Context, req pagination.Request, filter Filter) (pagination.Page[View], error) {
	var empty pagination.Page[View]

	var filters pagination.FilterSet
	if filter.DeviceID != nil {
		filters.Equal("e.device_id", *filter.DeviceID)
	}
	if filter.LocationID != nil {
		filters.Equal("e.location_id", *filter.LocationID)
	}
	where, args := filters.Where()

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM environment_data e"+where, args...).Scan(&total); err != nil {
		return empty, fmt.Errorf("counting environment data: %w", err)
	}

	query := viewQuery + where + " ORDER BY e.timestamp DESC, e.id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, req.Limit(), req.Offset())...)
	if err != nil {
		return empty, fmt.Errorf("listing environment data: %w", err)
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
		return empty, fmt.Errorf("iterating environment data: %w", err)
	}

	return pagination.NewPage(views, req, total), nil
}

// Delete removes a reading by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM environment_data WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting environment data: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanData scans the base reading columns from any scanner.
func scanData(s scanner) (*EnvironmentData, error) {
	var e EnvironmentData
	var locationID sql.NullInt64
	var lux, temperature, humidity sql.NullFloat64
	var timestamp string

	err := s.Scan(&e.ID, &e.DeviceID, &locationID, &lux, &temperature, &humidity, &timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning environment data: %w", err)
	}

	applyDataFields(&e, locationID, lux, temperature, humidity, timestamp)
	return &e, nil
}

// scanView scans the joined reading view from any scanner.
func scanView(s scanner) (*View, error) {
	var v View
	var locationID sql.NullInt64
	var lux, temperature, humidity sql.NullFloat64
	var timestamp string
	var locationName sql.NullString

	err := s.Scan(&v.ID, &v.DeviceID, &locationID, &lux, &temperature, &humidity, &timestamp,
		&v.DeviceName, &v.SerialNumber, &locationName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning environment data view: %w", err)
	}

	applyDataFields(&v.EnvironmentData, locationID, lux, temperature, humidity, timestamp)
	if locationName.Valid {
		v.LocationName = locationName.String
	}

	return &v, nil
}

// applyDataFields converts scanned nullable columns onto an EnvironmentData.
func applyDataFields(e *EnvironmentData, locationID sql.NullInt64, lux, temperature, humidity sql.NullFloat64, timestamp string) {
	if locationID.Valid {
		e.LocationID = &locationID.Int64
	}
	if lux.Valid {
		e.Lux = &lux.Float64
	}
	if temperature.Valid {
		e.Temperature = &temperature.Float64
	}
	if humidity.Valid {
		e.Humidity = &humidity.Float64
	}
	e.Timestamp, _ = time.Parse(time.RFC3339, timestamp) //nolint:errcheck // format is controlled
}

// Helper functions.

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
