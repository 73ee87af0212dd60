package field

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bindcfg/internal/broker"
	"github.com/conneroisu/bindcfg/internal/store"
)

func newTestBroker() *broker.Broker {
	return broker.New(store.New(), nil)
}

// publishingControl mimics a UI text widget whose change listener publishes
// on every SetText, the way an edit callback would.
type publishingControl struct {
	TextModel
	field *Field
}

func (c *publishingControl) SetText(text string) {
	c.TextModel.SetText(text)
	if c.field != nil {
		_ = c.field.Publish(context.Background())
	}
}

func TestBind_SeedsFromStore(t *testing.T) {
	b := newTestBroker()
	require.NoError(t, b.Store().Put(store.TextEntry("username", "alice")))

	control := NewTextModel("")
	f := Bind("username", control, b, nil)

	assert.Equal(t, "alice", control.Text())
	assert.Equal(t, StateIdle, f.State())
}

func TestBind_NoSeedWhenAbsent(t *testing.T) {
	b := newTestBroker()

	control := NewTextModel("initial")
	Bind("username", control, b, nil)

	assert.Equal(t, "initial", control.Text())
}

func TestField_Publish(t *testing.T) {
	b := newTestBroker()

	control := NewTextModel("alice")
	f := Bind("username", control, b, nil)

	require.NoError(t, f.Publish(context.Background()))

	entry, exists := b.Store().Get("username")
	assert.True(t, exists)
	assert.Equal(t, "alice", entry.Value.Text())
}

func TestField_ReceivesPublishedValue(t *testing.T) {
	b := newTestBroker()

	control := NewTextModel("")
	f := Bind("username", control, b, nil)

	require.NoError(t, b.Publish(context.Background(), store.TextEntry("username", "carol")))

	assert.Equal(t, "carol", control.Text())
	assert.Equal(t, StateIdle, f.State())
}

func TestField_IgnoresOtherKeys(t *testing.T) {
	b := newTestBroker()

	control := NewTextModel("alice")
	Bind("username", control, b, nil)

	require.NoError(t, b.Publish(context.Background(), store.TextEntry("password", "hunter2")))

	assert.Equal(t, "alice", control.Text())
}

func TestField_NoEcho(t *testing.T) {
	b := newTestBroker()

	// The control re-publishes on every SetText, the worst case for the
	// echo loop. Count how many publishes reach the broker.
	var publishes int
	b.Subscribe(broker.SubscriberFunc(func(store.Entry) error {
		publishes++
		return nil
	}))

	control := &publishingControl{}
	f := Bind("username", control, b, nil)
	control.field = f

	require.NoError(t, b.Publish(context.Background(), store.TextEntry("username", "carol")))

	assert.Equal(t, "carol", control.Text())
	// Exactly one delivery: the external publish. The SetText-triggered
	// Publish must be suppressed by the Syncing state.
	assert.Equal(t, 1, publishes)
}

func TestField_TwoFieldsStaySynchronized(t *testing.T) {
	b := newTestBroker()

	controlA := NewTextModel("")
	controlB := NewTextModel("")
	fieldA := Bind("username", controlA, b, nil)
	Bind("username", controlB, b, nil)

	controlA.SetText("dave")
	require.NoError(t, fieldA.Publish(context.Background()))

	assert.Equal(t, "dave", controlB.Text())
	assert.Equal(t, "dave", controlA.Text())
}

func TestField_TypedValueDisplaysTextForm(t *testing.T) {
	b := newTestBroker()

	control := NewTextModel("")
	Bind("port", control, b, nil)

	require.NoError(t, b.Publish(context.Background(), store.NewEntry("port", store.IntValue(8080))))

	assert.Equal(t, "8080", control.Text())
}

func TestField_Unbind(t *testing.T) {
	b := newTestBroker()

	control := NewTextModel("")
	f := Bind("username", control, b, nil)
	f.Unbind()

	require.NoError(t, b.Publish(context.Background(), store.TextEntry("username", "carol")))

	assert.Equal(t, "", control.Text())
}

func TestField_DispatchMarshalsInboundUpdates(t *testing.T) {
	b := newTestBroker()

	// Queueing dispatcher: updates apply only when the "UI thread" drains
	// the queue.
	var queue []func()
	dispatch := func(fn func()) { queue = append(queue, fn) }

	control := NewTextModel("")
	Bind("username", control, b, dispatch)

	require.NoError(t, b.Publish(context.Background(), store.TextEntry("username", "carol")))
	assert.Equal(t, "", control.Text(), "update must not apply before dispatch runs")

	for _, fn := range queue {
		fn()
	}
	assert.Equal(t, "carol", control.Text())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "syncing", StateSyncing.String())
	assert.Equal(t, "unknown", State(42).String())
}
