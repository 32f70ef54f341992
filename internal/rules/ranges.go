package rules

import "strconv"

// Number is the set of value types a Range can gate on.
type Number interface {
	~int | ~int64 | ~float64
}

// Range is an inclusive [Min, Max] gate. A nil bound is unbounded on that
// side.
type Range[T Number] struct {
	Min *T `json:"min,omitempty" yaml:"min"`
	Max *T `json:"max,omitempty" yaml:"max"`
}

// Bounds builds a Range from optional bounds.
func Bounds[T Number](lo, hi *T) Range[T] {
	return Range[T]{Min: lo, Max: hi}
}

// Unbounded reports whether neither side is set.
func (r Range[T]) Unbounded() bool {
	return r.Min == nil && r.Max == nil
}

// Contains reports whether v satisfies the gate. An unbounded range accepts
// anything, including a missing value. A bounded range never accepts a
// missing value.
func (r Range[T]) Contains(v *T) bool {
	if r.Unbounded() {
		return true
	}
	if v == nil {
		return false
	}
	if r.Min != nil && *v < *r.Min {
		return false
	}
	if r.Max != nil && *v > *r.Max {
		return false
	}
	return true
}

// Ordered reports whether Min <= Max when both are set.
func (r Range[T]) Ordered() bool {
	if r.Min == nil || r.Max == nil {
		return true
	}
	return *r.Min <= *r.Max
}

func (r Range[T]) String() string {
	return "[" + boundString(r.Min, "-inf") + ", " + boundString(r.Max, "+inf") + "]"
}

func boundString[T Number](v *T, open string) string {
	if v == nil {
		return open
	}
	return strconv.FormatFloat(float64(*v), 'g', -1, 64)
}

// Ptr returns a pointer to v. Handy for optional request and rule fields.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
