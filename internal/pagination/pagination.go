// Package pagination provides shared page/size handling for list queries.
//
// All list endpoints accept 1-based page and size parameters and return a
// Page carrying the items plus total counts. Repositories use FilterSet to
// build identical WHERE clauses for the data and COUNT queries, keeping the
// two in sync.
package pagination

import (
	"errors"
	"fmt"
	"strings"
)

// Default and limit values for page parameters.
const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Validation errors for page parameters.
var (
	ErrInvalidPage = errors.New("pagination: page must be at least 1")
	ErrInvalidSize = errors.New("pagination: size must be between 1 and 100")
)

// Request holds validated pagination parameters for a list query.
type Request struct {
	Page int
	Size int
}

// NewRequest builds a Request, applying defaults for zero values
// and validating the result.
func NewRequest(page, size int) (Request, error) {
	r := Request{Page: page, Size: size}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Validate checks the page parameters are within bounds.
func (r Request) Validate() error {
	if r.Page < 1 {
		return ErrInvalidPage
	}
	if r.Size < 1 || r.Size > MaxSize {
		return ErrInvalidSize
	}
	return nil
}

// Offset returns the row offset for the current page.
func (r Request) Offset() int {
	return (r.Page - 1) * r.Size
}

// Limit returns the row limit for the current page.
func (r Request) Limit() int {
	return r.Size
}

// Page is one page of results with pagination metadata.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// NewPage assembles a result page. TotalPages is the ceiling of
// total divided by size; an empty result set has zero pages.
func NewPage[T any](items []T, req Request, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	size := int64(req.Size)
	return Page[T]{
		Items:      items,
		Page:       req.Page,
		Size:       req.Size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}
}

// FilterSet accumulates equality filters for a WHERE clause.
//
// Filters are applied in the order they are added, so the generated SQL
// is deterministic and the same arguments slice serves both the SELECT
// and COUNT queries.
type FilterSet struct {
	clauses []string
	args    []any
}

// Equal adds a column = value filter.
func (f *FilterSet) Equal(column string, value any) *FilterSet {
	f.clauses = append(f.clauses, fmt.Sprintf("%s = ?", column))
	f.args = append(f.args, value)
	return f
}

// Where returns the WHERE clause (including the WHERE keyword) and its
// arguments. With no filters it returns an empty string and nil args.
func (f *FilterSet) Where() (string, []any) {
	if len(f.clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(f.clauses, " AND "), f.args
}

// Empty reports whether no filters have been added.
func (f *FilterSet) Empty() bool {
	return len(f.clauses) == 0
}
