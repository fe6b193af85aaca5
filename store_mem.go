package kvtab

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// MemStore is a transient in-memory Store intended for tests and
// embedding. Individual operations are goroutine safe, mirroring the
// single-key atomicity of a real store.
type MemStore struct {
	mu     sync.Mutex
	items  map[string]string
	closed bool
}

func NewMemStore() *MemStore {
	return &MemStore{items: make(map[string]string)}
}

func (s *MemStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, errStoreClosed
	}
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStoreClosed
	}
	s.items[key] = value
	return nil
}

func (s *MemStore) Incr(key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errStoreClosed
	}
	var cur int64
	if raw, ok := s.items[key]; ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incr %q: value is not an integer", key)
		}
		cur = n
	}
	cur += delta
	s.items[key] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (s *MemStore) Del(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStoreClosed
	}
	delete(s.items, key)
	return nil
}

func (s *MemStore) Keys(pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errStoreClosed
	}
	var out []string
	for k := range s.items {
		if globMatch(pattern, k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
	return nil
}

var errStoreClosed = fmt.Errorf("store closed")
