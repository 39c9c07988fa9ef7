// package notify is the in-process notification bus. Components publish
// toasts; the UI subscribes through Events and renders the active set.
package notify

import (
	"sync"
	"time"

	"vidx/internal/shared"
)

// Level classifies a notification for rendering.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

const (
	// DefaultDuration is how long a notification stays active when the
	// publisher leaves Duration zero.
	DefaultDuration = 5 * time.Second

	// Sticky keeps a notification active until it is dismissed.
	Sticky time.Duration = -1

	// MaxHistory caps the retained history, oldest entries dropped first.
	MaxHistory = 50
)

// Action is an optional follow-up the UI can offer on a notification,
// e.g. "Retry" on a failed upload.
type Action struct {
	Label  string
	Invoke func()
}

// Notification is a single toast.
type Notification struct {
	ID        string
	Message   string
	Level     Level
	Duration  time.Duration
	Action    *Action
	Timestamp time.Time
}

// Event signals bus activity to subscribers.
type Event struct {
	Kind         EventKind
	Notification Notification
}

type EventKind int

const (
	EventPublished EventKind = iota
	EventDismissed
)

// Bus holds the active notifications and a bounded history.
// All methods are safe for concurrent use.
type Bus struct {
	mu      sync.Mutex
	active  []Notification
	history []Notification
	timers  map[string]*time.Timer
	events  chan Event
	closed  bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		timers: make(map[string]*time.Timer),
		events: make(chan Event, 64),
	}
}

// Events is the subscription channel. Sends never block: if the subscriber
// falls behind, events are dropped and state is recovered from Active.
func (b *Bus) Events() <-chan Event {
	return b.events
}

// Publish adds a notification and schedules its expiry. The assigned ID is
// returned so callers can dismiss it early.
func (b *Bus) Publish(n Notification) string {
	if n.ID == "" {
		n.ID = shared.GenerateID()
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}
	if n.Duration == 0 {
		n.Duration = DefaultDuration
	}
	n.Timestamp = time.Now()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return n.ID
	}
	b.active = append(b.active, n)
	b.history = append(b.history, n)
	if len(b.history) > MaxHistory {
		b.history = b.history[len(b.history)-MaxHistory:]
	}
	if n.Duration > 0 {
		id := n.ID
		b.timers[id] = time.AfterFunc(n.Duration, func() {
			b.Dismiss(id)
		})
	}
	b.mu.Unlock()

	b.emit(Event{Kind: EventPublished, Notification: n})
	return n.ID
}

// Dismiss removes a notification from the active set and stops its expiry
// timer. Dismissing an unknown or already-dismissed ID is a no-op, so the
// timer callback and a manual dismissal can race safely.
func (b *Bus) Dismiss(id string) {
	b.mu.Lock()
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
	var dismissed *Notification
	for i, n := range b.active {
		if n.ID == id {
			dismissed = &n
			b.active = append(b.active[:i], b.active[i+1:]...)
			break
		}
	}
	closed := b.closed
	b.mu.Unlock()

	if dismissed != nil && !closed {
		b.emit(Event{Kind: EventDismissed, Notification: *dismissed})
	}
}

// Active returns the currently visible notifications, oldest first.
func (b *Bus) Active() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notification, len(b.active))
	copy(out, b.active)
	return out
}

// History returns up to MaxHistory past notifications, newest first.
// Dismissal does not remove an entry from history.
func (b *Bus) History() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notification, len(b.history))
	for i, n := range b.history {
		out[len(out)-1-i] = n
	}
	return out
}

// ClearHistory empties the history. Active notifications are unaffected.
func (b *Bus) ClearHistory() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
}

// Close stops all timers and closes the event channel. The bus accepts no
// further publishes afterwards.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
	close(b.events)
}

func (b *Bus) emit(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.events <- ev:
	default:
	}
}

// Success publishes a success toast and returns its ID.
func (b *Bus) Success(msg string) string {
	return b.Publish(Notification{Message: msg, Level: LevelSuccess})
}

// Error publishes an error toast and returns its ID.
func (b *Bus) Error(msg string) string {
	return b.Publish(Notification{Message: msg, Level: LevelError})
}

// Warning publishes a warning toast and returns its ID.
func (b *Bus) Warning(msg string) string {
	return b.Publish(Notification{Message: msg, Level: LevelWarning})
}

// Info publishes an informational toast and returns its ID.
func (b *Bus) Info(msg string) string {
	return b.Publish(Notification{Message: msg, Level: LevelInfo})
}

// ErrorWithAction publishes an error toast carrying a follow-up action.
func (b *Bus) ErrorWithAction(msg, label string, invoke func()) string {
	return b.Publish(Notification{
		Message:  msg,
		Level:    LevelError,
		Duration: Sticky,
		Action:   &Action{Label: label, Invoke: invoke},
	})
}
