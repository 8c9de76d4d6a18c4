package routing

import (
	"fmt"
	"strings"
)

// Match is the result of Resolve.
type Match struct {
	Route
	Params map[string]string
}

// Resolve returns the first route, in declaration order, whose path and
// method match. Path segments ":name" capture one segment and "*name"
// captures the rest.
func (t *Table) Resolve(method, path string) (Match, bool) {
	for _, r := range t.Routes() {
		if !hasMethod(r.Methods, method) {
			continue
		}
		if params, ok := matchPath(r.Path, path); ok {
			return Match{Route: r, Params: params}, true
		}
	}
	return Match{}, false
}

// Reverse builds the path for a qualified route name.
func (t *Table) Reverse(name string, params map[string]string) (string, error) {
	for _, r := range t.Routes() {
		if r.Name != name {
			continue
		}
		return fill(r.Path, params)
	}
	return "", fmt.Errorf("%w: %q", ErrNoReverseMatch, name)
}

func hasMethod(methods []string, method string) bool {
	for _, m := range methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func matchPath(pattern, path string) (map[string]string, bool) {
	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	params := map[string]string{}

	for i, seg := range ps {
		if strings.HasPrefix(seg, "*") {
			params[seg[1:]] = "/" + strings.Join(xs[min(i, len(xs)):], "/")
			return params, true
		}
		if i >= len(xs) {
			return nil, false
		}
		if strings.HasPrefix(seg, ":") {
			if xs[i] == "" {
				return nil, false
			}
			params[seg[1:]] = xs[i]
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	if len(xs) != len(ps) {
		return nil, false
	}
	return params, true
}

func fill(pattern string, params map[string]string) (string, error) {
	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, ":") && !strings.HasPrefix(seg, "*") {
			continue
		}
		v, ok := params[seg[1:]]
		if !ok {
			return "", fmt.Errorf("%w: %q in %s", ErrMissingParam, seg[1:], pattern)
		}
		if seg[0] == '*' {
			v = strings.TrimPrefix(v, "/")
		}
		segs[i] = v
	}
	return strings.Join(segs, "/"), nil
}
