package ledger

import (
	"context"
	"sort"
	"sync"
)

// zoneLocks hands out one exclusive slot per zone. A channel of capacity one
// is used instead of a sync.Mutex so waiters can give up when ctx ends.
type zoneLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newZoneLocks() *zoneLocks {
	return &zoneLocks{slots: make(map[string]chan struct{})}
}

func (l *zoneLocks) slot(id string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[id]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[id] = s
	}
	return s
}

// sortedUnique returns ids deduplicated in ascending order, the only order
// in which multi-zone locks are ever taken.
func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// acquire locks every zone of ids and returns the release function.
func (l *zoneLocks) acquire(ctx context.Context, ids []string) (func(), error) {
	ordered := sortedUnique(ids)
	held := make([]chan struct{}, 0, len(ordered))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	for _, id := range ordered {
		s := l.slot(id)
		select {
		case s <- struct{}{}:
			held = append(held, s)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}
