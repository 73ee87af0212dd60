// Package field implements the bidirectional binding between a text
// control and one key in the config store. The binding is a two-state
// machine: user edits publish in Idle, inbound notifications apply in
// Syncing, and a field never re-publishes a value it is currently applying.
package field

import (
	"context"
	"sync"

	"github.com/conneroisu/bindcfg/internal/broker"
	"github.com/conneroisu/bindcfg/internal/store"
)

// Control is the text widget a field drives. Implementations are provided
// by the host UI; TextModel is an in-memory implementation for headless
// use and tests.
type Control interface {
	Text() string
	SetText(text string)
}

// Dispatch routes fn onto the execution context that owns the control.
// Hosts with a single UI thread must supply a dispatcher that runs fn on
// that thread; the broker delivers on the publishing goroutine and does
// no marshaling itself.
type Dispatch func(fn func())

// State of the binding.
type State int

const (
	// StateIdle: user edits are significant, Publish emits.
	StateIdle State = iota
	// StateSyncing: an inbound value is being applied, Publish is
	// suppressed.
	StateSyncing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	default:
		return "unknown"
	}
}

// Field binds one config key to a Control through a broker.
type Field struct {
	key      string
	control  Control
	broker   *broker.Broker
	dispatch Dispatch

	mu    sync.Mutex
	state State
	sub   *broker.Subscription
}

// Bind subscribes a new field for key. If the store already holds a value
// for the key, the control is seeded with it immediately. A nil dispatch
// applies inbound updates on the delivering goroutine.
func Bind(key string, control Control, b *broker.Broker, dispatch Dispatch) *Field {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}

	f := &Field{
		key:      key,
		control:  control,
		broker:   b,
		dispatch: dispatch,
		state:    StateIdle,
	}

	f.sub = b.Subscribe(broker.SubscriberFunc(f.onEntry))

	if entry, ok := b.Store().Get(key); ok {
		f.dispatch(func() { f.apply(entry.Value.Text()) })
	}

	return f
}

// Key returns the config key this field is bound to.
func (f *Field) Key() string {
	return f.key
}

// State returns the current binding state.
func (f *Field) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

// Publish emits the control's current text as a string entry for the
// field's key. While an inbound update is being applied the call is a
// no-op, which is what breaks the echo loop.
func (f *Field) Publish(ctx context.Context) error {
	f.mu.Lock()
	if f.state == StateSyncing {
		f.mu.Unlock()
		return nil
	}
	text := f.control.Text()
	f.mu.Unlock()

	return f.broker.Publish(ctx, store.TextEntry(f.key, text))
}

// Unbind detaches the field from the broker.
func (f *Field) Unbind() {
	f.sub.Cancel()
}

// onEntry handles a broker notification. Entries for other keys are
// ignored; a matching entry whose text already equals the displayed text
// is ignored too, so a field never reacts to its own publish.
func (f *Field) onEntry(entry store.Entry) error {
	if entry.Key != f.key {
		return nil
	}

	incoming := entry.Value.Text()
	f.dispatch(func() {
		if incoming == f.control.Text() {
			return
		}
		f.apply(incoming)
	})

	return nil
}

// apply sets the control text under the Syncing state. The state change is
// visible while SetText runs so that a control whose change listener calls
// Publish re-entrantly is suppressed rather than echoed.
func (f *Field) apply(text string) {
	f.mu.Lock()
	f.state = StateSyncing
	f.mu.Unlock()

	f.control.SetText(text)

	f.mu.Lock()
	f.state = StateIdle
	f.mu.Unlock()
}

// TextModel is a plain in-memory Control.
type TextModel struct {
	mu   sync.Mutex
	text string
}

// NewTextModel creates a TextModel holding text.
func NewTextModel(text string) *TextModel {
	return &TextModel{text: text}
}

// Text returns the current text.
func (m *TextModel) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.text
}

// SetText replaces the current text.
func (m *TextModel) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.text = text
}
