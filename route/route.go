// Package route maps request paths to controller factories.
//
// The table is built once at startup from an explicit list of entries, so every
// path is known to resolve to a constructor before the first request arrives.
// Lookups match the whole path exactly; there are no wildcards or prefixes.
package route

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MrEthical07/cursos/web"
)

var (
	// ErrDuplicateRoute is returned when two entries share a path.
	ErrDuplicateRoute = errors.New("duplicate route")
	// ErrInvalidRoute is returned for entries without a path or factory.
	ErrInvalidRoute = errors.New("invalid route")
)

// Factory builds a fresh controller for one request.
type Factory func(web.Deps) web.Controller

// Entry binds a path to its controller factory. Name is used in logs.
type Entry struct {
	Path    string
	Name    string
	Factory Factory
}

// Table is an immutable path to [Entry] mapping.
type Table struct {
	entries map[string]Entry
}

// New validates entries and builds the table.
func New(entries ...Entry) (*Table, error) {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Path == "" || !strings.HasPrefix(e.Path, "/") {
			return nil, fmt.Errorf("%w: path %q must start with /", ErrInvalidRoute, e.Path)
		}
		if e.Factory == nil {
			return nil, fmt.Errorf("%w: %s has no factory", ErrInvalidRoute, e.Path)
		}
		if _, ok := t.entries[e.Path]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRoute, e.Path)
		}
		if e.Name == "" {
			e.Name = e.Path
		}
		t.entries[e.Path] = e
	}
	return t, nil
}

// Lookup returns the entry registered for path.
func (t *Table) Lookup(path string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[path]
	return e, ok
}

// Paths returns the registered paths in sorted order.
func (t *Table) Paths() []string {
	if t == nil {
		return nil
	}
	paths := make([]string, 0, len(t.entries))
	for p := range t.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of routes.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
