package widget

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNoPeer is returned when posting from a window that has no parent
	// window to deliver to.
	ErrNoPeer = errors.New("no peer window")

	ErrChannelClosed = errors.New("channel closed")
)

// Envelope is a message delivered to a window, along with the origin of the
// window that posted it.
type Envelope struct {
	// Data has the raw message payload.
	Data []byte

	// Origin is the origin of the posting window, as reported by the
	// channel. Receivers must check it before acting on Data.
	Origin string

	// Timestamp is the time the message was received.
	Timestamp time.Time
}

// Listener is invoked for every message delivered to a window. Listeners on
// the same window are invoked one at a time in arrival order.
type Listener func(e *Envelope)

// Channel is a best-effort, one-way cross-document messaging channel between
// an embedded frame and the window embedding it.
type Channel interface {
	// PostMessage fires the given payload at the parent window. If
	// targetOrigin is not TargetAny and does not match the parent's origin,
	// the message is dropped without error.
	PostMessage(b []byte, targetOrigin string) error

	// AddListener registers a listener for messages posted to this window.
	// The returned func removes the listener; it is safe to call more than
	// once.
	AddListener(l Listener) (remove func())

	// Origin returns the origin of this window.
	Origin() string

	// Shutdown stops delivering messages to this window and cleans up any
	// background dispatch.
	Shutdown() error
}

// listenerSet is the set of listeners registered on a window.
type listenerSet struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]Listener
	order     []uint64
}

func newListenerSet() *listenerSet {
	return &listenerSet{
		listeners: make(map[uint64]Listener),
	}
}

func (s *listenerSet) Add(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.remove(id)
		})
	}
}

func (s *listenerSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Dispatch invokes each listener in registration order. Listeners are
// invoked outside the lock so they may add or remove listeners.
func (s *listenerSet) Dispatch(e *Envelope) {
	s.mu.Lock()
	ls := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		ls = append(ls, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(e)
	}
}

func (s *listenerSet) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.listeners, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
