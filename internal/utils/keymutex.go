package utils

import "sync"

// KeyMutex provides one mutex per key. Used to serialize work scoped
// to an entity, like streaming turns of a single conversation. Entries
// are reference counted and dropped once the last holder or waiter
// releases them, so the set never grows with the number of keys seen.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyMutex creates a keyed mutex set.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{
		entries: make(map[string]*keyEntry),
	}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyMutex) Lock(key string) {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &keyEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the mutex for key, removing its entry when nobody
// else holds or waits on it. Panics if the key was never locked, same
// as unlocking an unlocked sync.Mutex.
func (k *KeyMutex) Unlock(key string) {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("keymutex: unlock of unheld key " + key)
	}
	entry.refs--
	if entry.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
