package compose

import (
	"maps"
	"sync"
)

// Props is the set of named values handed to a page.
type Props map[string]any

// RenderContext is the mutable context shared by the middleware of one composition.
// Access is synchronized, but when several concurrent middleware write the same key the
// value that survives is whichever write happened last.
type RenderContext struct {
	mu     sync.RWMutex
	values Props
}

// NewRenderContext creates a RenderContext seeded with a copy of initial.
func NewRenderContext(initial Props) *RenderContext {
	values := make(Props, len(initial))
	maps.Copy(values, initial)
	return &RenderContext{values: values}
}

// Get returns the value stored under key.
func (c *RenderContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key.
func (c *RenderContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Delete removes key.
func (c *RenderContext) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Snapshot returns a copy of the current values.
func (c *RenderContext) Snapshot() Props {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}

// Merge returns a copy of the current values overlaid with props.
// Keys in props take precedence.
func (c *RenderContext) Merge(props Props) Props {
	out := c.Snapshot()
	if out == nil {
		out = make(Props, len(props))
	}
	maps.Copy(out, props)
	return out
}
