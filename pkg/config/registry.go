package config

import (
	"maps"
	"slices"
	"sync"

	"github.com/Suhaibinator/SDispatch/pkg/common"
	"github.com/pkg/errors"
)

// ErrDuplicateMiddleware is returned when a name is registered twice.
var ErrDuplicateMiddleware = errors.New("middleware already registered")

// Registry maps middleware names to implementations. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	middlewares map[string]common.Middleware
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{middlewares: make(map[string]common.Middleware)}
}

// Register adds mw under name.
func (r *Registry) Register(name string, mw common.Middleware) error {
	if name == "" || mw == nil {
		return errors.New("middleware name and implementation are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.middlewares[name]; exists {
		return errors.Wrapf(ErrDuplicateMiddleware, "%q", name)
	}
	r.middlewares[name] = mw
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, mw common.Middleware) {
	if err := r.Register(name, mw); err != nil {
		panic(err)
	}
}

// Lookup returns the middleware registered under name.
func (r *Registry) Lookup(name string) (common.Middleware, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mw, ok := r.middlewares[name]
	return mw, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.middlewares))
}
