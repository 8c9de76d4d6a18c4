package routing

import "strings"

type segmentKind int

const (
	staticSegment segmentKind = iota
	paramSegment
	catchAllSegment
)

func kindOf(seg string) segmentKind {
	switch {
	case strings.HasPrefix(seg, "*"):
		return catchAllSegment
	case strings.HasPrefix(seg, ":"):
		return paramSegment
	default:
		return staticSegment
	}
}

// dispatchPrefersLater reports whether some request matches both patterns
// and gin, which ranks static over param over catch-all segment by segment,
// would hand it to later even though earlier is declared first.
func dispatchPrefersLater(earlier, later string) bool {
	es, ls := strings.Split(earlier, "/"), strings.Split(later, "/")
	for i := 0; i < len(es) && i < len(ls); i++ {
		e, l := kindOf(es[i]), kindOf(ls[i])
		switch {
		case e == catchAllSegment:
			return l != catchAllSegment
		case l == catchAllSegment:
			return false
		case e == staticSegment && l == staticSegment:
			if es[i] != ls[i] {
				return false
			}
		case e == paramSegment && l == staticSegment:
			return overlaps(es[i+1:], ls[i+1:])
		case e == staticSegment && l == paramSegment:
			return false
		}
	}
	return false
}

// overlaps reports whether some path matches both segment lists.
func overlaps(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		ka, kb := kindOf(a[i]), kindOf(b[i])
		if ka == catchAllSegment || kb == catchAllSegment {
			return true
		}
		if ka == staticSegment && kb == staticSegment && a[i] != b[i] {
			return false
		}
	}
	return len(a) == len(b)
}

func sharesMethod(a, b []string) bool {
	for _, m := range a {
		if hasMethod(b, m) {
			return true
		}
	}
	return false
}
