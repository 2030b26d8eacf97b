// Package tablelock provides the per-table mutual exclusion that every
// mutation of a table's running order, bill or seating goes through.
// Different tables never contend with each other.
package tablelock

import (
	"context"
	"sort"
)

// Locker serializes work on one table id.
type Locker interface {
	// Lock blocks until the table is held or ctx is done. The returned
	// unlock is safe to call more than once.
	Lock(ctx context.Context, tableID int64) (unlock func(), err error)
}

// LockAll acquires several tables in ascending id order so that two
// requests locking the same pair cannot deadlock. Duplicate ids are locked once.
func LockAll(ctx context.Context, l Locker, tableIDs ...int64) (func(), error) {
	ids := append([]int64(nil), tableIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var unlocks []func()
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		unlock, err := l.Lock(ctx, id)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}
