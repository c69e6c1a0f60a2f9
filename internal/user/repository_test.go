package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/unrealfeathers/home-server/internal/auth"
	"github.com/unrealfeathers/home-server/internal/pagination"
)

// setupTestDB creates an in-memory SQLite database with the users table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email         TEXT,
			phone         TEXT,
			role          TEXT NOT NULL DEFAULT 'user',
			last_login    TEXT,
			created_at    TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
		);
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

func createTestUser(t *testing.T, repo *SQLiteRepository, username string, role auth.Role) *User {
	t.Helper()

	u := &User{
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		Role:         role,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create(%s): %v", username, err)
	}
	return u
}

func TestCreate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	u := createTestUser(t, repo, "alice", auth.RoleUser)

	if u.ID == 0 {
		t.Error("Create() should assign a non-zero ID")
	}
	if u.CreatedAt.IsZero() {
		t.Error("Create() should set CreatedAt")
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	createTestUser(t, repo, "alice", auth.RoleUser)

	dup := &User{Username: "alice", PasswordHash: "x", Role: auth.RoleUser}
	err := repo.Create(context.Background(), dup)
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("Create() duplicate error = %v, want ErrUsernameExists", err)
	}
}

func TestGetByUsername(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	created := createTestUser(t, repo, "alice", auth.RoleAdmin)

	got, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %d, want %d", got.ID, created.ID)
	}
	if got.Role != auth.RoleAdmin {
		t.Errorf("Role = %q, want admin", got.Role)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestListPage(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	createTestUser(t, repo, "alice", auth.RoleAdmin)
	createTestUser(t, repo, "bob", auth.RoleUser)
	createTestUser(t, repo, "carol", auth.RoleUser)

	page, err := repo.ListPage(ctx, pagination.Request{Page: 1, Size: 2}, Filter{})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}

	if page.Total != 3 {
		t.Errorf("Total = %d, want 3", page.Total)
	}
	if page.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", page.TotalPages)
	}
	if len(page.Items) != 2 {
		t.Fatalf("Items length = %d, want 2", len(page.Items))
	}
	if page.Items[0].Username != "alice" {
		t.Errorf("first item = %q, want alice (id order)", page.Items[0].Username)
	}

	// Second page holds the remainder
	page2, err := repo.ListPage(ctx, pagination.Request{Page: 2, Size: 2}, Filter{})
	if err != nil {
		t.Fatalf("ListPage page 2: %v", err)
	}
	if len(page2.Items) != 1 || page2.Items[0].Username != "carol" {
		t.Errorf("page 2 items = %v, want [carol]", page2.Items)
	}
}

func TestListPage_RoleFilter(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	createTestUser(t, repo, "alice", auth.RoleAdmin)
	createTestUser(t, repo, "bob", auth.RoleUser)

	page, err := repo.ListPage(ctx, pagination.Request{Page: 1, Size: 10}, Filter{Role: auth.RoleAdmin})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Username != "alice" {
		t.Errorf("filtered page = %+v, want only alice", page)
	}
}

func TestListPage_Empty(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	page, err := repo.ListPage(context.Background(), pagination.Request{Page: 1, Size: 10}, Filter{})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if page.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
	if page.TotalPages != 0 {
		t.Errorf("TotalPages = %d, want 0", page.TotalPages)
	}
}

func TestUpdateProfile(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	u := createTestUser(t, repo, "alice", auth.RoleUser)

	email := "alice@example.com"
	if err := repo.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: &email}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != email {
		t.Errorf("Email = %q, want %q", got.Email, email)
	}
	if got.Phone != "" {
		t.Errorf("Phone = %q, want untouched empty", got.Phone)
	}
}

func TestUpdateAdmin_RoleChange(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	u := createTestUser(t, repo, "bob", auth.RoleUser)

	role := auth.RoleAdmin
	if err := repo.UpdateAdmin(ctx, u.ID, AdminUpdate{Role: &role}); err != nil {
		t.Fatalf("UpdateAdmin: %v", err)
	}

	got, _ := repo.GetByID(ctx, u.ID)
	if got.Role != auth.RoleAdmin {
		t.Errorf("Role = %q, want admin", got.Role)
	}
}

func TestUpdateAdmin_InvalidRole(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	u := createTestUser(t, repo, "bob", auth.RoleUser)

	bad := auth.Role("owner")
	err := repo.UpdateAdmin(context.Background(), u.ID, AdminUpdate{Role: &bad})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("UpdateAdmin() error = %v, want ErrInvalidRole", err)
	}
}

func TestUpdatePassword_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.UpdatePassword(context.Background(), 999, "newhash")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePassword() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	u := createTestUser(t, repo, "alice", auth.RoleUser)

	if err := repo.UpdateLastLogin(ctx, u.ID); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}

	got, _ := repo.GetByID(ctx, u.ID)
	if got.LastLogin == nil {
		t.Error("LastLogin should be set after UpdateLastLogin")
	}
}

func TestDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	u := createTestUser(t, repo, "alice", auth.RoleUser)

	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := repo.GetByID(ctx, u.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestCount(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	createTestUser(t, repo, "alice", auth.RoleUser)
	createTestUser(t, repo, "bob", auth.RoleUser)

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}
