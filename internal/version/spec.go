// Package version implements the version constraint algebra used to resolve
// package requests: a spec is Any, a Partial prefix, or an Exact version.
// Specs are pure value types; comparison is structural.
package version

import "errors"

// ErrInvalidSpec is reserved for malformed spec input. The current grammar
// is total ("*", "~prefix", anything else is exact) so it is never returned,
// but callers may match on it once the grammar grows.
var ErrInvalidSpec = errors.New("invalid version spec")

type specKind int

const (
	kindAny specKind = iota
	kindPartial
	kindExact
)

// Spec is a constraint a request places on acceptable versions.
// The zero value is Any.
type Spec struct {
	kind  specKind
	value string
}

// Any matches every version.
func Any() Spec {
	return Spec{kind: kindAny}
}

// Partial matches versions beginning with the given prefix.
func Partial(prefix string) Spec {
	return Spec{kind: kindPartial, value: prefix}
}

// Exact matches only the given version string.
func Exact(version string) Spec {
	return Spec{kind: kindExact, value: version}
}

// ParseSpec parses user spec syntax: "*" is Any, a leading "~" is a Partial
// of the remainder, anything else is Exact.
func ParseSpec(s string) Spec {
	switch {
	case s == "*":
		return Any()
	case len(s) > 0 && s[0] == '~':
		return Partial(s[1:])
	default:
		return Exact(s)
	}
}

// IsAny reports whether the spec matches everything.
func (s Spec) IsAny() bool { return s.kind == kindAny }

// IsExact reports whether the spec pins a single version.
func (s Spec) IsExact() bool { return s.kind == kindExact }

// IsPartial reports whether the spec is a prefix constraint.
func (s Spec) IsPartial() bool { return s.kind == kindPartial }

// Value returns the exact version or partial prefix; empty for Any.
func (s Spec) Value() string { return s.value }

// String renders the spec in request syntax: "*", "~prefix", or the version.
func (s Spec) String() string {
	switch s.kind {
	case kindAny:
		return "*"
	case kindPartial:
		return "~" + s.value
	default:
		return s.value
	}
}

// Matches reports whether the given exact version satisfies the spec.
// A Partial prefix only matches at a component boundary: the byte after the
// prefix must not be an ASCII digit, so ~1 matches 1.0.0 and 1-alpha2 but
// not 10.0.0.
func (s Spec) Matches(version string) bool {
	switch s.kind {
	case kindAny:
		return true
	case kindExact:
		return version == s.value
	default:
		p := s.value
		if len(version) < len(p) || version[:len(p)] != p {
			return false
		}
		if len(version) == len(p) {
			return true
		}
		next := version[len(p)]
		return next < '0' || next > '9'
	}
}

// IsCompatible reports whether two specs can both be satisfied by some
// version. The relation is reflexive and symmetric.
func (s Spec) IsCompatible(other Spec) bool {
	switch {
	case s.kind == kindAny || other.kind == kindAny:
		return true
	case s.kind == kindExact && other.kind == kindExact:
		return s.value == other.value
	case s.kind == kindExact:
		return other.Matches(s.value)
	case other.kind == kindExact:
		return s.Matches(other.value)
	default:
		// Two partials: the shorter prefix must match the longer one.
		return s.Matches(other.value) || other.Matches(s.value)
	}
}

// Merge intersects two specs, resolving to the more specific one.
// Returns false when the specs are incompatible.
func (s Spec) Merge(other Spec) (Spec, bool) {
	if s == other {
		return s, true
	}
	if !s.IsCompatible(other) {
		return Spec{}, false
	}
	switch {
	case s.kind == kindAny:
		return other, true
	case other.kind == kindAny:
		return s, true
	case s.kind == kindExact:
		return s, true
	case other.kind == kindExact:
		return other, true
	default:
		// Two compatible partials: the longer prefix is more specific.
		if len(s.value) >= len(other.value) {
			return s, true
		}
		return other, true
	}
}

// MergeSpecs left-folds Merge over the given specs starting from Any,
// combining simultaneous requests for one package name into a single
// effective constraint. Returns false as soon as any intersection fails.
func MergeSpecs(specs []Spec) (Spec, bool) {
	merged := Any()
	for _, s := range specs {
		var ok bool
		merged, ok = merged.Merge(s)
		if !ok {
			return Spec{}, false
		}
	}
	return merged, true
}
