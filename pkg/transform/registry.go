package transform

import "sync"

// NativeFn computes one feature value from its declared source values. The
// function must be pure; the engine calls it with a view restricted to the
// declared sources.
type NativeFn func(sources map[string]interface{}) (interface{}, error)

// Registry holds the native compute functions transformations of kind
// "native" may reference by handle. One registry instance is constructed at
// bootstrap and passed to the engine; there is no process-wide table.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]NativeFn
}

func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]NativeFn)}
}

// Register binds a handle to a compute function, replacing any previous one.
func (r *Registry) Register(handle string, fn NativeFn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[handle] = fn
}

// Lookup returns the function bound to handle.
func (r *Registry) Lookup(handle string) (NativeFn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[handle]
	return fn, ok
}
