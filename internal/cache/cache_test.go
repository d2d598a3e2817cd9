package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory(100, time.Hour)

	_, ok := m.Get("missing")
	assert.False(t, ok)

	m.Set("k", []byte("v"), time.Hour)
	got, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	m.Delete("k")
	_, ok = m.Get("k")
	assert.False(t, ok)
}

func TestMemoryEntryTTL(t *testing.T) {
	m := NewMemory(100, time.Hour)

	m.Set("short", []byte("v"), 10*time.Millisecond)
	_, ok := m.Get("short")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = m.Get("short")
	assert.False(t, ok)
}

func TestMemoryUpdateAbortsOnError(t *testing.T) {
	m := NewMemory(100, time.Hour)
	m.Set("k", []byte("old"), time.Hour)

	err := m.Update("k", time.Hour, func(old []byte, exists bool) ([]byte, error) {
		return nil, errors.New("abort")
	})
	assert.Error(t, err)

	got, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("old"), got)
}

func TestMemoryUpdateAtomicUnderConcurrency(t *testing.T) {
	m := NewMemory(100, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Update("counter", time.Hour, func(old []byte, exists bool) ([]byte, error) {
				if !exists {
					return []byte{1}, nil
				}
				return []byte{old[0] + 1}, nil
			})
		}()
	}
	wg.Wait()

	got, ok := m.Get("counter")
	require.True(t, ok)
	assert.Equal(t, byte(50), got[0])
}
