// Package toast keeps the short-lived notifications shown after user
// actions and streams them to connected dashboards.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

const (
	DefaultDuration = 4 * time.Second
	ErrorDuration   = 6 * time.Second
)

// Toast is a single notification.
type Toast struct {
	ID        string        `json:"id"`
	Severity  Severity      `json:"severity"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"-"`
	// ExpiresAt is nil for sticky toasts.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// Event is delivered to subscribers when a toast appears or goes away.
type Event struct {
	Type  EventType `json:"type"`
	Toast Toast     `json:"toast"`
}

// Center holds active toasts and expires them. Safe for concurrent use.
type Center struct {
	mu     sync.Mutex
	order  []string
	toasts map[string]Toast
	timers map[string]*time.Timer
	subs   map[int]chan Event
	nextID int
	now    func() time.Time
	// onEmpty runs, outside the lock, when the last toast goes away.
	onEmpty func()
}

// NewCenter constructs an empty Center.
func NewCenter() *Center {
	return &Center{
		toasts: make(map[string]Toast),
		timers: make(map[string]*time.Timer),
		subs:   make(map[int]chan Event),
		now:    time.Now,
	}
}

// Push adds a toast with the default duration for its severity.
func (c *Center) Push(sev Severity, message string) Toast {
	d := DefaultDuration
	if sev == SeverityError {
		d = ErrorDuration
	}
	return c.PushFor(sev, message, d)
}

// PushFor adds a toast that disappears after d. A non-positive d keeps it
// until dismissed.
func (c *Center) PushFor(sev Severity, message string, d time.Duration) Toast {
	t := Toast{
		ID:        uuid.NewString(),
		Severity:  sev,
		Message:   message,
		CreatedAt: c.now(),
		Duration:  d,
	}
	if d > 0 {
		exp := t.CreatedAt.Add(d)
		t.ExpiresAt = &exp
	}

	c.mu.Lock()
	c.toasts[t.ID] = t
	c.order = append(c.order, t.ID)
	if d > 0 {
		id := t.ID
		c.timers[id] = time.AfterFunc(d, func() { c.Dismiss(id) })
	}
	c.publishLocked(Event{Type: EventAdded, Toast: t})
	c.mu.Unlock()
	return t
}

func (c *Center) Success(message string) { c.Push(SeveritySuccess, message) }
func (c *Center) Error(message string)   { c.Push(SeverityError, message) }
func (c *Center) Warning(message string) { c.Push(SeverityWarning, message) }
func (c *Center) Info(message string)    { c.Push(SeverityInfo, message) }

// Dismiss removes a toast. Unknown ids are ignored.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	t, ok := c.toasts[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.toasts, id)
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.publishLocked(Event{Type: EventRemoved, Toast: t})
	hook := c.onEmpty
	empty := len(c.toasts) == 0
	c.mu.Unlock()
	if empty && hook != nil {
		hook()
	}
	return true
}

// Len returns the number of active toasts.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.toasts)
}

// Active returns current toasts, oldest first.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Toast, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.toasts[id])
	}
	return out
}

// Subscribe returns a channel of events and a cancel func. Slow subscribers
// miss events rather than block producers.
func (c *Center) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *Center) publishLocked(ev Event) {
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
