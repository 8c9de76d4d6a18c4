// Package routing declares the URL tree as nested tables of named entries.
//
// A table is mounted onto gin for dispatch. The same tree answers reverse
// lookups by qualified name ("api:v1:index") and declaration-order matching
// for introspection.
package routing

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	// ErrNoReverseMatch is returned when no route carries the requested name.
	ErrNoReverseMatch = errors.New("no route with that name")
	// ErrMissingParam is returned when Reverse lacks a value for a path parameter.
	ErrMissingParam = errors.New("missing path parameter")
	// ErrDuplicateName is returned when two routes share a qualified name.
	ErrDuplicateName = errors.New("duplicate route name")
	// ErrShadowedRoute is returned when a route declared after a broader
	// pattern would still win live dispatch, so declaration order would lie.
	ErrShadowedRoute = errors.New("route shadowed by an earlier pattern")
)

// Table is one level of the URL tree. Namespace prefixes the names of every
// route beneath it; Middleware wraps every handler beneath it.
type Table struct {
	Namespace  string
	Middleware []gin.HandlerFunc
	Entries    []Entry
}

// Entry is a leaf route or an included sub-table.
type Entry struct {
	Pattern  string
	Name     string
	Methods  []string
	Handlers []gin.HandlerFunc
	Include  *Table
}

// Path declares a leaf route. Without explicit methods it answers GET.
func Path(pattern string, handler gin.HandlerFunc, name string, methods ...string) Entry {
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}
	return Entry{Pattern: pattern, Name: name, Methods: methods, Handlers: []gin.HandlerFunc{handler}}
}

// Include mounts a sub-table under pattern.
func Include(pattern string, table *Table) Entry {
	return Entry{Pattern: pattern, Include: table}
}

// With prepends handlers to a leaf entry, e.g. an auth check.
func (e Entry) With(handlers ...gin.HandlerFunc) Entry {
	e.Handlers = append(append([]gin.HandlerFunc{}, handlers...), e.Handlers...)
	return e
}

// Route is a flattened leaf with its full path and qualified name.
type Route struct {
	Name     string
	Path     string
	Methods  []string
	Handlers []gin.HandlerFunc
}

// Routes flattens the tree in declaration order.
func (t *Table) Routes() []Route {
	var out []Route
	t.collect("/", nil, nil, &out)
	return out
}

func (t *Table) collect(prefix string, namespaces []string, middleware []gin.HandlerFunc, out *[]Route) {
	if t.Namespace != "" {
		namespaces = append(namespaces[:len(namespaces):len(namespaces)], t.Namespace)
	}
	middleware = append(middleware[:len(middleware):len(middleware)], t.Middleware...)

	for _, e := range t.Entries {
		path := prefix + e.Pattern
		if e.Include != nil {
			e.Include.collect(path, namespaces, middleware, out)
			continue
		}

		name := ""
		if e.Name != "" {
			name = strings.Join(append(namespaces[:len(namespaces):len(namespaces)], e.Name), ":")
		}
		handlers := append(middleware[:len(middleware):len(middleware)], e.Handlers...)
		*out = append(*out, Route{Name: name, Path: path, Methods: e.Methods, Handlers: handlers})
	}
}

// Validate reports duplicate qualified names, and routes that gin would
// prefer over an earlier declared pattern matching the same request.
// Declare the specific route first, e.g. "items/new" before "items/:id".
func (t *Table) Validate() error {
	routes := t.Routes()

	seen := make(map[string]string)
	for _, r := range routes {
		if r.Name == "" {
			continue
		}
		if prev, ok := seen[r.Name]; ok {
			return fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateName, r.Name, prev, r.Path)
		}
		seen[r.Name] = r.Path
	}

	for i, earlier := range routes {
		for _, later := range routes[i+1:] {
			if sharesMethod(earlier.Methods, later.Methods) && dispatchPrefersLater(earlier.Path, later.Path) {
				return fmt.Errorf("%w: %s is declared after %s", ErrShadowedRoute, later.Path, earlier.Path)
			}
		}
	}
	return nil
}

// Walk calls fn for every route in declaration order and stops at the first error.
func (t *Table) Walk(fn func(Route) error) error {
	for _, r := range t.Routes() {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}
