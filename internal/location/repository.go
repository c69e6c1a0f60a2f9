package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unrealfeathers/home-server/internal/pagination"
)

// Repository defines the interface for location persistence operations.
type Repository interface {
	Create(ctx context.Context, loc *Location) error
	GetByID(ctx context.Context, id int64) (*Location, error)
	ListPage(ctx context.Context, req pagination.Request, filter Filter) (pagination.Page[Location], error)
	Update(ctx context.Context, id int64, update Update) error
	Delete(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed location repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const locationColumns = "id, name, floor, description, created_at, updated_at"

// Create inserts a new location and fills in the generated ID.
func (r *SQLiteRepository) Create(ctx context.Context, loc *Location) error {
	if strings.TrimSpace(loc.Name) == "" {
		return ErrInvalidName
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO locations (name, floor, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		loc.Name, nullInt(loc.Floor), nullString(loc.Description), now, now,
	)
	if err != nil {
		return fmt.Errorf("creating location: %w", err)
	}

	loc.ID, _ = result.LastInsertId()                //nolint:errcheck // always succeeds on SQLite
	loc.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	loc.UpdatedAt = loc.CreatedAt

	return nil
}

// GetByID returns a single location by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Location, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+locationColumns+" FROM locations WHERE id = ?", id)
	return scanLocation(row)
}

// ListPage returns one page of locations ordered by ID, optionally
// filtered by name and floor.
func (r *SQLiteRepository) ListPage(ctx context.Context, req pagination.Request, filter Filter) (pagination.Page[Location], error) {
	var empty pagination.Page[Location]

	var filters pagination.FilterSet
	if filter.Name != "" {
		filters.Equal("name", filter.Name)
	}
	if filter.Floor != nil {
		filters.Equal("floor", *filter.Floor)
	}
	where, args := filters.Where()

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM locations"+where, args...).Scan(&total); err != nil {
		return empty, fmt.Errorf("counting locations: %w", err)
	}

	query := "SELECT " + locationColumns + " FROM locations" + where + " ORDER BY id ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, req.Limit(), req.Offset())...)
	if err != nil {
		return empty, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return empty, err
		}
		locations = append(locations, *loc)
	}
	if err := rows.Err(); err != nil {
		return empty, fmt.Errorf("iterating locations: %w", err)
	}

	return pagination.NewPage(locations, req, total), nil
}

// Update modifies a location's mutable fields. Only non-nil fields are applied.
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
	if update.Floor != nil {
		sets = append(sets, "floor = ?")
		args = append(args, *update.Floor)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullString(*update.Description))
	}

	args = append(args, id)
	result, err := r.db.ExecContext(ctx,
		"UPDATE locations SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating location: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a location by ID. Devices and readings referencing it
// keep their rows with location_id set to NULL (schema ON DELETE SET NULL).
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM locations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting location: %w", err)
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

// scanLocation scans a location from any scanner (Row or Rows).
func scanLocation(s scanner) (*Location, error) {
	var loc Location
	var floor sql.NullInt64
	var description sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&loc.ID, &loc.Name, &floor, &description, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning location: %w", err)
	}

	if floor.Valid {
		f := int(floor.Int64)
		loc.Floor = &f
	}
	if description.Valid {
		loc.Description = description.String
	}

	loc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	loc.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &loc, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
