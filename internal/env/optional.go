package env

import "fmt"

// State distinguishes a parameter that was never given from one explicitly cleared.
type State int

// Optional states.
const (
	// Unset means the parameter was not provided; defaults apply.
	Unset State = iota
	// Null means the parameter was explicitly set to nothing; defaults are suppressed.
	Null
	// Set means the parameter carries a value.
	Set
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unset:
		return "unset"
	case Null:
		return "null"
	case Set:
		return "set"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Optional is a tri-state parameter value.
type Optional[T any] struct {
	state State
	value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{state: Set, value: v}
}

// None returns an explicitly cleared Optional.
func None[T any]() Optional[T] {
	return Optional[T]{state: Null}
}

// State returns the tri-state of o.
func (o Optional[T]) State() State {
	return o.state
}

// IsSet reports whether o carries a value.
func (o Optional[T]) IsSet() bool {
	return o.state == Set
}

// IsNull reports whether o was explicitly cleared.
func (o Optional[T]) IsNull() bool {
	return o.state == Null
}

// IsUnset reports whether o was never provided.
func (o Optional[T]) IsUnset() bool {
	return o.state == Unset
}

// Get returns the value and whether it is set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.state == Set
}

// Or returns the value, or fallback when o is not set.
func (o Optional[T]) Or(fallback T) T {
	if o.state == Set {
		return o.value
	}

	return fallback
}
