package sessions

import "sync"

// broadcaster fans session snapshots out to subscribers. Each subscriber
// has a one slot buffer holding the newest snapshot it has not read yet, so
// a slow reader skips intermediate states but never sees them out of order.
type broadcaster struct {
	mu     sync.Mutex
	latest Snapshot
	subs   map[int]chan Snapshot
	nextID int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: map[int]chan Snapshot{}}
}

func (b *broadcaster) publish(s *Session) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest = Snapshot{Version: b.latest.Version + 1, Session: s}
	for _, ch := range b.subs {
		offer(ch, b.latest)
	}
	return b.latest
}

func (b *broadcaster) current() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// subscribe replays the latest snapshot straight away.
func (b *broadcaster) subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	ch <- b.latest
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}

// offer replaces any unread snapshot with snap. Only publish sends, under
// b.mu, so the final send cannot block.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- snap
}
