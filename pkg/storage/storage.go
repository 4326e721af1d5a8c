package storage

import "sync"

// KV is the flat key/value medium everything persists into. Each key holds
// one opaque blob (a JSON array for a table, a signed token for the auth
// state). Implementations must notify subscribers after every successful
// Set/Remove so the session manager and websocket feed can react to changes
// they did not make themselves.
type KV interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Remove(key string) error
	Subscribe(fn func(key string)) (cancel func())
	Close() error
}

type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(string)
}

func newSubscribers() *subscribers {
	return &subscribers{fns: make(map[int]func(string))}
}

func (s *subscribers) add(fn func(string)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.fns[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

// notify snapshots the callback list so a callback can subscribe or
// unsubscribe without deadlocking.
func (s *subscribers) notify(key string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}
