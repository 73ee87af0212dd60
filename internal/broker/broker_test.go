package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binderrors "github.com/conneroisu/bindcfg/internal/errors"
	"github.com/conneroisu/bindcfg/internal/store"
)

func newTestBroker() *Broker {
	return New(store.New(), nil)
}

func TestNew(t *testing.T) {
	b := newTestBroker()

	assert.NotNil(t, b)
	assert.NotNil(t, b.Store())
	assert.Equal(t, 0, b.SubscriberCount())
	assert.False(t, b.Closed())
}

func TestBroker_Publish_Stores(t *testing.T) {
	b := newTestBroker()

	require.NoError(t, b.Publish(context.Background(), store.TextEntry("username", "alice")))
	require.NoError(t, b.Publish(context.Background(), store.TextEntry("username", "bob")))

	entry, exists := b.Store().Get("username")
	assert.True(t, exists)
	assert.Equal(t, "bob", entry.Value.Text())
	assert.Equal(t, 1, b.Store().Len())
}

func TestBroker_Publish_EmptyKey(t *testing.T) {
	b := newTestBroker()

	var delivered int
	b.Subscribe(SubscriberFunc(func(store.Entry) error {
		delivered++
		return nil
	}))

	err := b.Publish(context.Background(), store.TextEntry("", "x"))
	assert.ErrorIs(t, err, binderrors.ErrEmptyKey)
	assert.Equal(t, 0, delivered, "rejected entries must not be delivered")
}

func TestBroker_Publish_DeliveryOrder(t *testing.T) {
	b := newTestBroker()

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		b.Subscribe(SubscriberFunc(func(store.Entry) error {
			order = append(order, name)
			return nil
		}))
	}

	require.NoError(t, b.Publish(context.Background(), store.TextEntry("k", "v")))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBroker_Publish_ErrorIsolation(t *testing.T) {
	b := newTestBroker()

	var after int
	b.Subscribe(SubscriberFunc(func(store.Entry) error {
		return errors.New("handler failure")
	}))
	b.Subscribe(SubscriberFunc(func(store.Entry) error {
		after++
		return nil
	}))

	require.NoError(t, b.Publish(context.Background(), store.TextEntry("k", "v")))
	assert.Equal(t, 1, after, "failing subscriber must not halt delivery")
}

func TestBroker_Subscription_Cancel(t *testing.T) {
	b := newTestBroker()

	var delivered int
	sub := b.Subscribe(SubscriberFunc(func(store.Entry) error {
		delivered++
		return nil
	}))

	require.NoError(t, b.Publish(context.Background(), store.TextEntry("k", "1")))
	sub.Cancel()
	require.NoError(t, b.Publish(context.Background(), store.TextEntry("k", "2")))

	assert.Equal(t, 1, delivered)
	assert.Equal(t, 0, b.SubscriberCount())

	// Cancel is idempotent.
	sub.Cancel()
}

func TestBroker_Watch(t *testing.T) {
	b := newTestBroker()

	ch := b.Watch()
	require.NoError(t, b.Publish(context.Background(), store.TextEntry("username", "carol")))

	select {
	case event := <-ch:
		assert.Equal(t, "username", event.Entry.Key)
		assert.Equal(t, "carol", event.Entry.Value.Text())
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected watch event")
	}
}

func TestBroker_Unwatch(t *testing.T) {
	b := newTestBroker()

	ch := b.Watch()
	b.Unwatch(ch)

	// Channel is closed after Unwatch.
	_, open := <-ch
	assert.False(t, open)

	// Publishing afterwards must not panic.
	require.NoError(t, b.Publish(context.Background(), store.TextEntry("k", "v")))
}

func TestBroker_Close_Terminal(t *testing.T) {
	b := newTestBroker()

	ch := b.Watch()
	b.Close()

	assert.True(t, b.Closed())

	_, open := <-ch
	assert.False(t, open, "watch channels close on Close")

	err := b.Publish(context.Background(), store.TextEntry("k", "v"))
	assert.ErrorIs(t, err, binderrors.ErrBrokerClosed)

	// Close is idempotent.
	b.Close()
}

func TestBroker_ConcurrentPublish(t *testing.T) {
	b := newTestBroker()

	var mu sync.Mutex
	seen := make(map[string]string)
	b.Subscribe(SubscriberFunc(func(entry store.Entry) error {
		mu.Lock()
		seen[entry.Key] = entry.Value.Text()
		mu.Unlock()
		return nil
	}))

	var wg sync.WaitGroup
	keys := []string{"a", "b", "c", "d"}
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = b.Publish(context.Background(), store.TextEntry(key, "v"))
			}
		}(key)
	}
	wg.Wait()

	assert.Equal(t, len(keys), b.Store().Len())
	mu.Lock()
	defer mu.Unlock()
	for _, key := range keys {
		assert.Equal(t, "v", seen[key])
	}
}
