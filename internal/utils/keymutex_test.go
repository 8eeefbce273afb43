package utils

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutex(t *testing.T) {
	t.Run("LockUnlock", func(t *testing.T) {
		km := NewKeyMutex()
		km.Lock("a")
		km.Unlock("a")
		km.Lock("a")
		km.Unlock("a")
	})

	t.Run("IndependentKeys", func(t *testing.T) {
		km := NewKeyMutex()
		km.Lock("a")
		// A different key must not block.
		done := make(chan struct{})
		go func() {
			km.Lock("b")
			km.Unlock("b")
			close(done)
		}()
		<-done
		km.Unlock("a")
	})

	t.Run("SerializesSameKey", func(t *testing.T) {
		km := NewKeyMutex()
		var wg sync.WaitGroup
		counter := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				km.Lock("counter")
				counter++
				km.Unlock("counter")
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
	})

	t.Run("UnlockUnheldPanics", func(t *testing.T) {
		km := NewKeyMutex()
		assert.Panics(t, func() { km.Unlock("never") })
	})

	t.Run("ReleasedKeysAreDropped", func(t *testing.T) {
		km := NewKeyMutex()
		for i := 0; i < 100; i++ {
			key := fmt.Sprintf("conversation:%d", i)
			km.Lock(key)
			km.Unlock(key)
		}

		km.mu.Lock()
		remaining := len(km.entries)
		km.mu.Unlock()
		assert.Zero(t, remaining)
	})

	t.Run("ContendedKeySurvivesRelease", func(t *testing.T) {
		km := NewKeyMutex()
		km.Lock("a")

		acquired := make(chan struct{})
		go func() {
			km.Lock("a")
			close(acquired)
		}()

		// The waiter keeps the entry alive across this release.
		km.Unlock("a")
		<-acquired
		km.Unlock("a")

		km.mu.Lock()
		remaining := len(km.entries)
		km.mu.Unlock()
		assert.Zero(t, remaining)
	})
}
