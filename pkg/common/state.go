package common

import (
	"context"
	"net/http"
	"sync"
)

type stateKey struct{}

// State is a per-request side channel that middleware use to pass values to each other
// and to the handler that serves the request after dispatch. It is safe for concurrent use.
type State struct {
	mu     sync.RWMutex
	values map[any]any
}

// NewState creates an empty State.
func NewState() *State {
	return &State{values: make(map[any]any)}
}

// Get returns the value stored under key.
func (s *State) Get(key any) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *State) Set(key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key from the state.
func (s *State) Delete(key any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Len returns the number of stored values.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// WithState returns a copy of ctx carrying a fresh State.
func WithState(ctx context.Context) context.Context {
	return context.WithValue(ctx, stateKey{}, NewState())
}

// StateFrom returns the State stored in ctx, or nil if there is none.
func StateFrom(ctx context.Context) *State {
	s, _ := ctx.Value(stateKey{}).(*State)
	return s
}

// RequestState returns the State attached to r, or nil.
func RequestState(r *http.Request) *State {
	return StateFrom(r.Context())
}

// EnsureState returns r unchanged if it already carries a State, otherwise a shallow copy
// of r with a new State attached.
func EnsureState(r *http.Request) *http.Request {
	if StateFrom(r.Context()) != nil {
		return r
	}
	return r.WithContext(WithState(r.Context()))
}

// StateValue is a typed accessor over RequestState. It returns the zero value of T when
// the request has no state or the stored value has a different type.
func StateValue[T any](r *http.Request, key any) (T, bool) {
	var zero T
	s := RequestState(r)
	if s == nil {
		return zero, false
	}
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
