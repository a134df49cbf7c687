package store

import (
	"container/list"
	"sync"
	"time"
)

// Seen remembers alert ids for a TTL so the feed can badge alerts that show up
// for the first time. Capacity is bounded; the least recently observed id is
// evicted first.
type Seen struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	now   func() time.Time
	ll    *list.List // most-recent at front
	items map[int64]*list.Element
}

type entry struct {
	id  int64
	exp time.Time
}

func NewSeen(maxKeys int, ttl time.Duration) *Seen {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Seen{cap: maxKeys, ttl: ttl, now: time.Now, ll: list.New(), items: make(map[int64]*list.Element)}
}

// Observe records id and reports whether it was not already known. Observing
// a known id extends its TTL.
func (s *Seen) Observe(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if el, ok := s.items[id]; ok {
		en := el.Value.(entry)
		if now.Before(en.exp) {
			en.exp = now.Add(s.ttl)
			el.Value = en
			s.ll.MoveToFront(el)
			return false
		}
		s.ll.Remove(el)
		delete(s.items, id)
	}

	s.items[id] = s.ll.PushFront(entry{id: id, exp: now.Add(s.ttl)})
	for s.ll.Len() > s.cap {
		s.evict(s.ll.Back())
	}
	for t := s.ll.Back(); t != nil && !now.Before(t.Value.(entry).exp); t = s.ll.Back() {
		s.evict(t)
	}
	return true
}

func (s *Seen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

func (s *Seen) evict(el *list.Element) {
	s.ll.Remove(el)
	delete(s.items, el.Value.(entry).id)
}
