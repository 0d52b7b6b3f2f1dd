// Package lifecycle holds what every screen does with remote state: fetch
// on focus, submit a draft, confirm and run a deletion, send a report.
// Nothing here knows about rendering.
package lifecycle

import "fmt"

// LoadState is the state of a fetched resource. Data is either fresh or
// absent; there is no stale state.
type LoadState int

const (
	StateLoading LoadState = iota
	StateError
	StateReady
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Ticket identifies one fetch of a Resource. Only the latest ticket settles.
type Ticket uint64

// Resource tracks one screen's remote data across revalidations. The zero
// value is Loading with no ticket issued.
type Resource[T any] struct {
	state  LoadState
	value  T
	err    error
	ticket Ticket
}

// Begin starts a fetch: the resource enters Loading and drops its value.
// Retrying after an error is another Begin.
func (r *Resource[T]) Begin() Ticket {
	var zero T
	r.ticket++
	r.state = StateLoading
	r.value = zero
	r.err = nil
	return r.ticket
}

// Settle records the outcome of the fetch identified by t. It reports false
// and changes nothing when t is not the latest ticket.
func (r *Resource[T]) Settle(t Ticket, value T, err error) bool {
	if t != r.ticket || r.state != StateLoading {
		return false
	}
	if err != nil {
		r.state = StateError
		r.err = err
		return true
	}
	r.state = StateReady
	r.value = value
	return true
}

func (r *Resource[T]) State() LoadState { return r.state }
func (r *Resource[T]) Err() error       { return r.err }
func (r *Resource[T]) Ticket() Ticket   { return r.ticket }

// Value returns the loaded value; ok is false unless the resource is Ready.
func (r *Resource[T]) Value() (T, bool) {
	return r.value, r.state == StateReady
}
