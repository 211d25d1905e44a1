package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultWindow     = 1500 * time.Millisecond
	subscriberBacklog = 64
)

// Throttle coalesces identical notifications shown within a short window.
// Suppressed notifications are dropped, not deferred.
type Throttle struct {
	window  time.Duration
	display Display
	log     zerolog.Logger
	nowFunc func() time.Time

	mu          sync.Mutex
	lastShownAt map[string]time.Time
	subscribers map[int]chan Notification
	nextSubID   int
}

type ThrottleOption func(*Throttle)

func WithWindow(window time.Duration) ThrottleOption {
	return func(t *Throttle) {
		t.window = window
	}
}

func WithNowFunc(now func() time.Time) ThrottleOption {
	return func(t *Throttle) {
		t.nowFunc = now
	}
}

func WithLogger(log zerolog.Logger) ThrottleOption {
	return func(t *Throttle) {
		t.log = log
	}
}

// NewThrottle creates a throttle dispatching to display. A nil display
// only feeds subscribers.
func NewThrottle(display Display, options ...ThrottleOption) *Throttle {
	t := &Throttle{
		window:      defaultWindow,
		display:     display,
		log:         zerolog.Nop(),
		nowFunc:     time.Now,
		lastShownAt: make(map[string]time.Time),
		subscribers: make(map[int]chan Notification),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *Throttle) Success(message, title string) bool {
	return t.Show(TypeSuccess, message, title)
}

func (t *Throttle) Error(message, title string) bool {
	return t.Show(TypeError, message, title)
}

func (t *Throttle) Info(message, title string) bool {
	return t.Show(TypeInfo, message, title)
}

func (t *Throttle) Warning(message, title string) bool {
	return t.Show(TypeWarning, message, title)
}

// Show dispatches the notification unless an identical one (same type,
// title and message) was dispatched within the window. It reports whether
// the notification was dispatched.
func (t *Throttle) Show(typ Type, message, title string) bool {
	if title == "" {
		title = typ.DefaultTitle()
	}
	key := string(typ) + "::" + title + "::" + message

	t.mu.Lock()
	now := t.nowFunc()
	if last, ok := t.lastShownAt[key]; ok && now.Sub(last) < t.window {
		t.mu.Unlock()
		t.log.Debug().Str("type", string(typ)).Str("title", title).Msg("duplicate notification suppressed")
		return false
	}
	t.lastShownAt[key] = now
	t.prune(now)

	n := Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     title,
		Message:   message,
		Timestamp: now,
	}
	for id, ch := range t.subscribers {
		select {
		case ch <- n:
		default:
			t.log.Warn().Int("subscriber", id).Msg("notification subscriber is full, dropping event")
		}
	}
	t.mu.Unlock()

	if t.display != nil {
		t.display.Display(n)
	}
	return true
}

// Subscribe returns a stream of dispatched notifications and a function
// that ends the subscription and closes the stream.
func (t *Throttle) Subscribe() (<-chan Notification, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSubID
	t.nextSubID++
	ch := make(chan Notification, subscriberBacklog)
	t.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subscribers, id)
			close(ch)
		})
	}
}

// prune drops keys whose window has passed. Called with mu held.
func (t *Throttle) prune(now time.Time) {
	for k, last := range t.lastShownAt {
		if now.Sub(last) >= t.window {
			delete(t.lastShownAt, k)
		}
	}
}
