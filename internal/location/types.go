package location

import (
	"errors"
	"time"
)

// Location represents a physical place where devices are installed,
// such as a room or an outdoor area.
type Location struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Floor       *int      `json:"floor,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Update holds the mutable fields of a location. Nil fields are left untouched.
type Update struct {
	Name        *string `json:"name,omitempty"`
	Floor       *int    `json:"floor,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Filter narrows List queries. Zero values mean "no filter".
type Filter struct {
	Name  string
	Floor *int
}

// Sentinel errors for location operations.
var (
	ErrNotFound    = errors.New("location not found")
	ErrInvalidName = errors.New("location name is required")
)
