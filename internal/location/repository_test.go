package location

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/unrealfeathers/home-server/internal/pagination"
)

// setupTestDB creates an in-memory SQLite database with the locations table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
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

func createTestLocation(t *testing.T, repo *SQLiteRepository, name string, floor int) *Location {
	t.Helper()

	loc := &Location{Name: name, Floor: &floor}
	if err := repo.Create(context.Background(), loc); err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	return loc
}

func TestCreate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	loc := createTestLocation(t, repo, "Living Room", 1)

	if loc.ID == 0 {
		t.Error("Create() should assign a non-zero ID")
	}
}

func TestCreate_EmptyName(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.Create(context.Background(), &Location{Name: "   "})
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("Create() error = %v, want ErrInvalidName", err)
	}
}

func TestGetByID(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	created := createTestLocation(t, repo, "Kitchen", 1)

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Kitchen" {
		t.Errorf("Name = %q, want Kitchen", got.Name)
	}
	if got.Floor == nil || *got.Floor != 1 {
		t.Errorf("Floor = %v, want 1", got.Floor)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestListPage_FloorFilter(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	createTestLocation(t, repo, "Living Room", 1)
	createTestLocation(t, repo, "Kitchen", 1)
	createTestLocation(t, repo, "Bedroom", 2)

	floor := 1
	page, err := repo.ListPage(ctx, pagination.Request{Page: 1, Size: 10}, Filter{Floor: &floor})
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}

	if page.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Total)
	}
	for _, loc := range page.Items {
		if loc.Floor == nil || *loc.Floor != 1 {
			t.Errorf("item %q floor = %v, want 1", loc.Name, loc.Floor)
		}
	}
}

func TestUpdate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	loc := createTestLocation(t, repo, "Bedroom", 2)

	name := "Master Bedroom"
	desc := "north-facing"
	if err := repo.Update(ctx, loc.ID, Update{Name: &name, Description: &desc}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := repo.GetByID(ctx, loc.ID)
	if got.Name != name {
		t.Errorf("Name = %q, want %q", got.Name, name)
	}
	if got.Description != desc {
		t.Errorf("Description = %q, want %q", got.Description, desc)
	}
	if got.Floor == nil || *got.Floor != 2 {
		t.Errorf("Floor = %v, want untouched 2", got.Floor)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	name := "Ghost Room"
	err := repo.Update(context.Background(), 99, Update{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	loc := createTestLocation(t, repo, "Garage", 0)

	if err := repo.Delete(ctx, loc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, loc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, loc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}
