package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binderrors "github.com/conneroisu/bindcfg/internal/errors"
)

func TestNew(t *testing.T) {
	s := New()

	assert.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.All())
}

func TestStore_Put(t *testing.T) {
	s := New()

	require.NoError(t, s.Put(TextEntry("username", "alice")))

	entry, exists := s.Get("username")
	assert.True(t, exists)
	assert.Equal(t, "alice", entry.Value.Text())
	assert.Equal(t, 1, s.Len())
}

func TestStore_Put_LastWriteWins(t *testing.T) {
	s := New()

	require.NoError(t, s.Put(TextEntry("username", "alice")))
	require.NoError(t, s.Put(TextEntry("username", "bob")))

	entry, exists := s.Get("username")
	assert.True(t, exists)
	assert.Equal(t, "bob", entry.Value.Text())
	assert.Equal(t, 1, s.Len())
}

func TestStore_Put_EmptyKey(t *testing.T) {
	s := New()

	err := s.Put(TextEntry("", "value"))
	assert.ErrorIs(t, err, binderrors.ErrEmptyKey)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Get_Missing(t *testing.T) {
	s := New()

	_, exists := s.Get("missing")
	assert.False(t, exists)
}

func TestStore_Remove(t *testing.T) {
	s := New()

	require.NoError(t, s.Put(TextEntry("username", "alice")))
	s.Remove("username")

	_, exists := s.Get("username")
	assert.False(t, exists)

	// Removing an absent key is a no-op.
	s.Remove("username")
	assert.Equal(t, 0, s.Len())
}

func TestStore_All_SortedSnapshot(t *testing.T) {
	s := New()

	require.NoError(t, s.Put(TextEntry("b", "2")))
	require.NoError(t, s.Put(TextEntry("a", "1")))
	require.NoError(t, s.Put(TextEntry("c", "3")))

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Key)
	assert.Equal(t, "b", all[1].Key)
	assert.Equal(t, "c", all[2].Key)

	// Mutating the snapshot must not affect the store.
	all[0] = TextEntry("a", "changed")
	entry, _ := s.Get("a")
	assert.Equal(t, "1", entry.Value.Text())
}

func TestStore_Clear(t *testing.T) {
	s := New()

	require.NoError(t, s.Put(TextEntry("a", "1")))
	require.NoError(t, s.Put(TextEntry("b", "2")))

	s.Clear()

	assert.Equal(t, 0, s.Len())
	_, exists := s.Get("a")
	assert.False(t, exists)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Put(TextEntry(fmt.Sprintf("key%d", n), fmt.Sprintf("v%d", j)))
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Get(fmt.Sprintf("key%d", n))
				s.All()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, s.Len())
}
