package tablelock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Local is an in-process Locker. Entries are dropped once no goroutine
// holds or waits on them, so the map does not grow with table count.
type Local struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewLocal creates an empty Local locker.
func NewLocal() *Local {
	return &Local{entries: make(map[int64]*entry)}
}

func (l *Local) acquireRef(tableID int64) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[tableID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[tableID] = e
	}
	e.refs++
	return e
}

func (l *Local) releaseRef(tableID int64, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, tableID)
	}
}

// Lock implements Locker.
func (l *Local) Lock(ctx context.Context, tableID int64) (func(), error) {
	e := l.acquireRef(tableID)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.releaseRef(tableID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.releaseRef(tableID, e)
		})
	}, nil
}

// held reports how many tables currently have holders or waiters.
func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
