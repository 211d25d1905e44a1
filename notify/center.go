package notify

import (
	"context"
	"sync"
)

// Center keeps an in-memory log of dispatched notifications for the
// notification-center widget.
type Center struct {
	capacity int

	mu    sync.RWMutex
	items []Notification // oldest first
}

func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = 100
	}
	return &Center{capacity: capacity}
}

// Follow subscribes to the throttle before returning and records its
// notifications until the returned stop function is called.
func (c *Center) Follow(throttle *Throttle) (stop func()) {
	events, unsubscribe := throttle.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for n := range events {
			c.Add(n)
		}
	}()
	return func() {
		unsubscribe()
		<-done
	}
}

// Run records notifications from the throttle until ctx is done.
func (c *Center) Run(ctx context.Context, throttle *Throttle) {
	stop := c.Follow(throttle)
	defer stop()
	<-ctx.Done()
}

func (c *Center) Add(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append(c.items, n)
	if over := len(c.items) - c.capacity; over > 0 {
		c.items = append([]Notification(nil), c.items[over:]...)
	}
}

// List returns the log, newest first.
func (c *Center) List() []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Notification, len(c.items))
	for i, n := range c.items {
		out[len(c.items)-1-i] = n
	}
	return out
}

func (c *Center) Unread() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, n := range c.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (c *Center) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		c.items[i].Read = true
	}
}

func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
}
