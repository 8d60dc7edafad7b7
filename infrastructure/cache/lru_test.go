package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespaceLRU_SetGet(t *testing.T) {
	c := NewNamespaceLRU(2)

	c.Set("A", "k", 1)
	c.Set("B", "k", 2)

	v, ok := c.Get("A", "k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = c.Get("B", "k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestNamespaceLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewNamespaceLRU(2)
	c.Set("S", "one", 1)
	c.Set("S", "two", 2)

	// touch "one" so "two" becomes the eviction candidate
	_, _ = c.Get("S", "one")
	c.Set("S", "three", 3)

	_, ok := c.Get("S", "two")
	assert.False(t, ok)
	_, ok = c.Get("S", "one")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestNamespaceLRU_Invalidate(t *testing.T) {
	c := NewNamespaceLRU(4)
	c.Set("S", "k", "v")

	c.Invalidate("S", "k")
	c.Invalidate("S", "missing")

	_, ok := c.Get("S", "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestNamespaceLRU_GetOrLoad(t *testing.T) {
	c := NewNamespaceLRU(4)
	var loads int32

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad("S", "k", func() (interface{}, error) {
				atomic.AddInt32(&loads, 1)
				return "loaded", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "loaded", v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestNamespaceLRU_GetOrLoadError(t *testing.T) {
	c := NewNamespaceLRU(4)
	loadErr := errors.New("not found")

	v, err := c.GetOrLoad("S", "k", func() (interface{}, error) { return nil, loadErr })

	assert.ErrorIs(t, err, loadErr)
	assert.Nil(t, v)
	assert.Equal(t, 0, c.Size())
}

type pinnedValue struct {
	pinned bool
}

func (p *pinnedValue) Pinned() bool { return p.pinned }

func TestNamespaceLRU_SkipsPinnedEntries(t *testing.T) {
	c := NewNamespaceLRU(2)
	busy := &pinnedValue{pinned: true}
	c.Set("S", "busy", busy)
	c.Set("S", "idle", &pinnedValue{})

	c.Set("S", "new", &pinnedValue{})

	v, ok := c.Get("S", "busy")
	assert.True(t, ok)
	assert.Same(t, busy, v)
	_, ok = c.Get("S", "idle")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestNamespaceLRU_OverCapacityWhileAllPinned(t *testing.T) {
	c := NewNamespaceLRU(1)
	first := &pinnedValue{pinned: true}
	c.Set("S", "first", first)

	c.Set("S", "second", &pinnedValue{})

	// neither the pinned entry nor the newest one may go
	assert.Equal(t, 2, c.Size())
	_, ok := c.Get("S", "second")
	assert.True(t, ok)

	// once unpinned, the next insert brings the cache back to capacity
	first.pinned = false
	_, _ = c.Get("S", "second")
	c.Set("S", "third", &pinnedValue{})

	assert.Equal(t, 1, c.Size())
	_, ok = c.Get("S", "third")
	assert.True(t, ok)
}
