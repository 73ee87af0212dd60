// Package broker implements the change notification hub. A Publish stores
// the entry and fans it out to subscribers; it is an in-process observer,
// not a message bus: no delivery persistence, no retry, and ordering is
// only guaranteed within a single Publish call.
package broker

import (
	"context"
	"sync"
	"time"

	"github.com/conneroisu/bindcfg/internal/errors"
	"github.com/conneroisu/bindcfg/internal/logging"
	"github.com/conneroisu/bindcfg/internal/store"
)

// Subscriber receives every published entry, synchronously on the
// publishing goroutine, in subscription order. A subscriber that mutates
// UI-affine state must marshal onto its own execution context; the broker
// does not.
type Subscriber interface {
	OnEntry(entry store.Entry) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(entry store.Entry) error

// OnEntry calls f.
func (f SubscriberFunc) OnEntry(entry store.Entry) error {
	return f(entry)
}

// Event is the form delivered on Watch channels.
type Event struct {
	Entry     store.Entry
	Timestamp time.Time
}

// Subscription is the handle returned by Subscribe. Cancel detaches the
// subscriber; it is safe to call more than once.
type Subscription struct {
	broker *Broker
	sub    Subscriber
	once   sync.Once
}

// Cancel removes the subscription from the broker.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.broker.remove(s)
	})
}

// Broker stores published entries and notifies subscribers. Subscribers
// are notified in subscription order; a failing subscriber is logged and
// skipped, never retried, and never blocks delivery to the rest.
type Broker struct {
	store  *store.Store
	logger logging.Logger

	mu       sync.Mutex
	subs     []*Subscription
	watchers []chan Event
	closed   bool
}

// New creates a broker backed by st. A nil logger disables logging.
func New(st *store.Store, logger logging.Logger) *Broker {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Broker{
		store:  st,
		logger: logger.WithComponent("broker"),
		subs:   make([]*Subscription, 0),
	}
}

// Store returns the backing store.
func (b *Broker) Store() *store.Store {
	return b.store
}

// Publish stores entry, then delivers it to every current subscriber in
// subscription order on the calling goroutine, and to watch channels with
// a non-blocking send. Returns ErrBrokerClosed after Close.
func (b *Broker) Publish(ctx context.Context, entry store.Entry) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.ErrBrokerClosed
	}

	if err := b.store.Put(entry); err != nil {
		b.mu.Unlock()
		return err
	}

	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	watchers := make([]chan Event, len(b.watchers))
	copy(watchers, b.watchers)
	b.mu.Unlock()

	for _, s := range subs {
		if err := s.sub.OnEntry(entry); err != nil {
			// Delivery errors are isolated per subscriber.
			b.logger.Error(ctx, err, "subscriber delivery failed", "key", entry.Key)
		}
	}

	event := Event{Entry: entry, Timestamp: time.Now()}
	for _, watcher := range watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}

	return nil
}

// Subscribe registers sub for all future publishes. There is no
// flow-control: every publish is delivered.
func (b *Broker) Subscribe(sub Subscriber) *Subscription {
	s := &Subscription{broker: b, sub: sub}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return s
	}

	b.subs = append(b.subs, s)
	return s
}

func (b *Broker) remove(target *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == target {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
}

// Watch returns a buffered channel receiving every publish as an Event.
// Slow consumers miss events rather than blocking the publisher.
func (b *Broker) Watch() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	if b.closed {
		close(ch)
		return ch
	}

	b.watchers = append(b.watchers, ch)
	return ch
}

// Unwatch removes a watcher channel and closes it.
func (b *Broker) Unwatch(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, watcher := range b.watchers {
		if watcher == ch {
			close(watcher)
			b.watchers = append(b.watchers[:i], b.watchers[i+1:]...)
			break
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}

// Close shuts the broker down. It is terminal: watch channels are closed,
// subscribers detached, and any later Publish returns ErrBrokerClosed.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, watcher := range b.watchers {
		close(watcher)
	}
	b.watchers = nil
	b.subs = nil
}

// Closed reports whether Close has been called.
func (b *Broker) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed
}
