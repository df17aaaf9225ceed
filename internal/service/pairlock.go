package service

import (
	"fmt"
	"sync"

	"rendez/internal/models"
)

// pairLocks serializes check-then-write sequences per normalized user pair.
// Entries are reclaimed once uncontended, so the map stays proportional to
// in-flight operations rather than to pairs ever seen.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[string]*pairLock)}
}

// Lock acquires the mutex for the unordered pair {a, b} and returns the
// unlock function. The lock must be held from the first read to the last
// write of the sequence.
func (p *pairLocks) Lock(a, b string) func() {
	x, y := models.NormalizePair(a, b)
	key := fmt.Sprintf("%s:%s", x, y)

	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}
