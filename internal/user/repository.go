package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unrealfeathers/home-server/internal/auth"
	"github.com/unrealfeathers/home-server/internal/pagination"
)

// Repository defines the interface for user account persistence.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ListPage(ctx context.Context, req pagination.Request, filter Filter) (pagination.Page[User], error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) error
	UpdateAdmin(ctx context.Context, id int64, update AdminUpdate) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed user repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const userColumns = "id, username, password_hash, email, phone, role, last_login, created_at, updated_at"

// Create inserts a new user account and fills in the generated ID.
func (r *SQLiteRepository) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, email, phone, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, nullString(u.Email), nullString(u.Phone),
		string(u.Role), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	u.ID, _ = result.LastInsertId()                //nolint:errcheck // always succeeds on SQLite
	u.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	u.UpdatedAt = u.CreatedAt

	return nil
}

// GetByID retrieves a user by their numeric ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByUsername retrieves a user by their username.
func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
}

// ListPage returns one page of users ordered by ID, optionally filtered
// by username and role.
func (r *SQLiteRepository) ListPage(ctx context.Context, req pagination.Request, filter Filter) (pagination.Page[User], error) {
	var empty pagination.Page[User]

	var filters pagination.FilterSet
	if filter.Username != "" {
		filters.Equal("username", filter.Username)
	}
	if filter.Role != "" {
		filters.Equal("role", string(filter.Role))
	}
	where, args := filters.Where()

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return empty, fmt.Errorf("counting users: %w", err)
	}

	query := "SELECT " + userColumns + " FROM users" + where + " ORDER BY id ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, req.Limit(), req.Offset())...)
	if err != nil {
		return empty, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return empty, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return empty, fmt.Errorf("iterating users: %w", err)
	}

	return pagination.NewPage(users, req, total), nil
}

// UpdateProfile modifies the self-service fields of an account.
// Only non-nil fields in the update are applied.
func (r *SQLiteRepository) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if update.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *update.Username)
	}
	if update.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, nullString(*update.Email))
	}
	if update.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, nullString(*update.Phone))
	}

	args = append(args, id)
	return r.execExpectingRow(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
}

// UpdateAdmin modifies administrator-editable fields of any account.
func (r *SQLiteRepository) UpdateAdmin(ctx context.Context, id int64, update AdminUpdate) error {
	if update.Role != nil && !auth.IsValidRole(*update.Role) {
		return ErrInvalidRole
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if update.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *update.Username)
	}
	if update.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, nullString(*update.Email))
	}
	if update.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, nullString(*update.Phone))
	}
	if update.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*update.Role))
	}

	args = append(args, id)
	return r.execExpectingRow(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
}

// UpdatePassword changes a user's password hash.
func (r *SQLiteRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execExpectingRow(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		passwordHash, time.Now().UTC().Format(time.RFC3339), id)
}

// UpdateLastLogin records a successful login timestamp.
func (r *SQLiteRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.execExpectingRow(ctx,
		"UPDATE users SET last_login = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), id)
}

// Delete removes a user account by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	return r.execExpectingRow(ctx, "DELETE FROM users WHERE id = ?", id)
}

// Count returns the total number of user accounts.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// execExpectingRow runs a statement that must affect exactly one row,
// mapping zero affected rows to ErrNotFound and username collisions to
// ErrUsernameExists.
func (r *SQLiteRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("executing update: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// getUser executes a query and scans a single user result.
func (r *SQLiteRepository) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	return scanUser(row)
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser scans a user from any scanner (Row or Rows).
func scanUser(s scanner) (*User, error) {
	var u User
	var email, phone, lastLogin sql.NullString
	var role string
	var createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &phone,
		&role, &lastLogin, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = auth.Role(role)
	if email.Valid {
		u.Email = email.String
	}
	if phone.Valid {
		u.Phone = phone.String
	}
	if lastLogin.Valid {
		if t, err := time.Parse(time.RFC3339, lastLogin.String); err == nil {
			u.LastLogin = &t
		}
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &u, nil
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
