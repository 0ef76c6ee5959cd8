// Package reload provides the dispose bookkeeping that keeps the registry
// consistent across hot-reload cycles. A host that re-evaluates source
// modules (or re-reads manifest files) owns one DisposeSet per module; before
// replaying a module's registration calls it invokes Dispose, which runs
// every callback the previous evaluation registered. Registrations performed
// without a reload-capable module context simply accumulate.
package reload

import (
	"sync"

	"github.com/google/uuid"
)

// DisposeSet is an ordered set of dispose callbacks for one module. Callbacks
// run synchronously, in registration order, exactly once per Dispose cycle;
// the set is then empty and ready for the replacement registrations.
type DisposeSet struct {
	mu    sync.Mutex
	seq   int
	order []int
	fns   map[int]func()
}

// NewDisposeSet creates an empty dispose set.
func NewDisposeSet() *DisposeSet {
	return &DisposeSet{fns: make(map[int]func())}
}

// Add registers a callback and returns a handle that can deregister it before
// the next Dispose.
func (s *DisposeSet) Add(fn func()) *Handle {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := s.seq
	s.order = append(s.order, id)
	s.fns[id] = fn
	return &Handle{set: s, id: id}
}

// Len returns the number of pending callbacks.
func (s *DisposeSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

// Dispose runs all pending callbacks in registration order and clears the
// set. It returns only after every callback has completed, so kind-level and
// story-level disposal from one cycle can never interleave with the
// re-registration that follows.
func (s *DisposeSet) Dispose() {
	s.mu.Lock()
	order := s.order
	fns := s.fns
	s.order = nil
	s.fns = make(map[int]func())
	s.mu.Unlock()

	for _, id := range order {
		if fn, ok := fns[id]; ok {
			fn()
		}
	}
}

// Handle deregisters a single dispose callback.
type Handle struct {
	set *DisposeSet
	id  int
}

// Cancel removes the callback from its set. Safe on a nil handle and after
// the set has already been disposed.
func (h *Handle) Cancel() {
	if h == nil || h.set == nil {
		return
	}
	h.set.mu.Lock()
	defer h.set.mu.Unlock()
	delete(h.set.fns, h.id)
}

// ModuleContext identifies the source module performing registrations. The
// id is used for diagnostics; the dispose set, when present, marks the host
// as reload-capable.
type ModuleContext struct {
	id  string
	set *DisposeSet
}

// NewModuleContext creates a module context. An empty id gets a generated
// one so diagnostics always have something to point at. A nil set means the
// host does not support reload notifications.
func NewModuleContext(id string, set *DisposeSet) *ModuleContext {
	if id == "" {
		id = uuid.NewString()
	}
	return &ModuleContext{id: id, set: set}
}

// ID returns the module's identifying string. Safe on a nil context.
func (m *ModuleContext) ID() string {
	if m == nil {
		return ""
	}
	return m.id
}

// HotReloadable reports whether dispose callbacks can be registered.
func (m *ModuleContext) HotReloadable() bool {
	return m != nil && m.set != nil
}

// OnDispose registers a callback to run before the module is re-evaluated.
// Returns nil when the context is not reload-capable.
func (m *ModuleContext) OnDispose(fn func()) *Handle {
	if !m.HotReloadable() {
		return nil
	}
	return m.set.Add(fn)
}
