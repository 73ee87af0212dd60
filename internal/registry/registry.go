// Package registry tracks live field bindings by id so the sync server can
// enumerate them. Unlike the store, ids are not overwritable: registering a
// duplicate id is a programmer error and fails fast.
package registry

import (
	"sync"
	"time"

	"github.com/conneroisu/bindcfg/internal/errors"
)

// BindingRegistry manages all registered field bindings
type BindingRegistry struct {
	bindings map[string]*BindingInfo
	mutex    sync.RWMutex
	watchers []chan BindingEvent
}

// BindingInfo holds metadata about a bound field
type BindingInfo struct {
	ID           string
	Key          string
	RegisteredAt time.Time
}

// BindingEvent represents a change in the binding registry
type BindingEvent struct {
	Type      EventType
	Binding   *BindingInfo
	Timestamp time.Time
}

// EventType represents the type of binding event
type EventType int

const (
	EventTypeRegistered EventType = iota
	EventTypeRemoved
)

// NewBindingRegistry creates a new binding registry
func NewBindingRegistry() *BindingRegistry {
	return &BindingRegistry{
		bindings: make(map[string]*BindingInfo),
		watchers: make([]chan BindingEvent, 0),
	}
}

// Register adds a binding to the registry. A duplicate id is rejected with
// ErrDuplicateField rather than silently overwriting.
func (r *BindingRegistry) Register(binding *BindingInfo) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.bindings[binding.ID]; exists {
		// A fresh error keeps the shared sentinel immutable.
		return errors.NewValidationError("DUPLICATE_FIELD", "field id already registered").WithKey(binding.ID)
	}

	if binding.RegisteredAt.IsZero() {
		binding.RegisteredAt = time.Now()
	}
	r.bindings[binding.ID] = binding

	r.notify(BindingEvent{
		Type:      EventTypeRegistered,
		Binding:   binding,
		Timestamp: time.Now(),
	})

	return nil
}

// Get retrieves a binding by id
func (r *BindingRegistry) Get(id string) (*BindingInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	binding, exists := r.bindings[id]
	return binding, exists
}

// GetAll returns all registered bindings
func (r *BindingRegistry) GetAll() map[string]*BindingInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]*BindingInfo)
	for id, binding := range r.bindings {
		result[id] = binding
	}
	return result
}

// ByKey returns the bindings attached to a config key
func (r *BindingRegistry) ByKey(key string) []*BindingInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*BindingInfo
	for _, binding := range r.bindings {
		if binding.Key == key {
			result = append(result, binding)
		}
	}
	return result
}

// Remove removes a binding from the registry
func (r *BindingRegistry) Remove(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	binding, exists := r.bindings[id]
	if !exists {
		return
	}

	delete(r.bindings, id)

	r.notify(BindingEvent{
		Type:      EventTypeRemoved,
		Binding:   binding,
		Timestamp: time.Now(),
	})
}

// notify fans an event out to watcher channels. Callers hold the mutex.
func (r *BindingRegistry) notify(event BindingEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Watch returns a channel that receives binding events
func (r *BindingRegistry) Watch() <-chan BindingEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan BindingEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *BindingRegistry) UnWatch(ch <-chan BindingEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered bindings
func (r *BindingRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.bindings)
}
