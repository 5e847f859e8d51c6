package widget

import (
	"fmt"
	"sync"
	"time"
)

// MockNetwork is used as a factory that produces MockChannel windows which
// are wired up to talk to their parent windows in-process.
type MockNetwork struct {
	mu      sync.Mutex
	windows []*MockChannel
}

func NewMockNetwork() *MockNetwork {
	return &MockNetwork{}
}

// NewWindow returns a top-level window with the given origin, such as a
// third-party host page.
func (n *MockNetwork) NewWindow(origin string) *MockChannel {
	return n.newChannel(nil, origin)
}

// NewFrame returns a window embedded in parent with the given origin. Messages
// posted from the frame are delivered to the parent.
func (n *MockNetwork) NewFrame(parent *MockChannel, origin string) *MockChannel {
	return n.newChannel(parent, origin)
}

// Shutdown shuts down every window created by the network.
func (n *MockNetwork) Shutdown() {
	n.mu.Lock()
	windows := n.windows
	n.windows = nil
	n.mu.Unlock()

	for _, w := range windows {
		w.Shutdown()
	}
}

func (n *MockNetwork) newChannel(parent *MockChannel, origin string) *MockChannel {
	c := &MockChannel{
		parent:    parent,
		origin:    origin,
		listeners: newListenerSet(),
		// Add a small buffer so posting doesn't usually block.
		inbox: make(chan *Envelope, 64),
		done:  make(chan struct{}),
	}

	n.mu.Lock()
	n.windows = append(n.windows, c)
	n.mu.Unlock()

	c.wg.Add(1)
	go c.dispatchLoop()
	return c
}

// MockChannel is an in-process Channel. Each window runs a single dispatch
// loop so its listeners run one at a time, like a browser event loop.
type MockChannel struct {
	parent    *MockChannel
	origin    string
	listeners *listenerSet
	inbox     chan *Envelope

	mu     sync.Mutex
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

func (c *MockChannel) PostMessage(b []byte, targetOrigin string) error {
	if c.isClosed() {
		return ErrChannelClosed
	}
	if c.parent == nil {
		return fmt.Errorf("post from %s: %w", c.origin, ErrNoPeer)
	}
	if targetOrigin != TargetAny && targetOrigin != c.parent.origin {
		return nil
	}

	return c.parent.deliver(&Envelope{
		Data:      append([]byte(nil), b...),
		Origin:    c.origin,
		Timestamp: time.Now(),
	}, c.done)
}

func (c *MockChannel) AddListener(l Listener) func() {
	return c.listeners.Add(l)
}

// Listeners returns the number of registered listeners.
func (c *MockChannel) Listeners() int {
	return c.listeners.Len()
}

func (c *MockChannel) Origin() string {
	return c.origin
}

func (c *MockChannel) Shutdown() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// deliver queues the envelope on the window, blocking while the window is
// behind. It gives up if either the window or the sender (senderDone) is shut
// down.
func (c *MockChannel) deliver(e *Envelope, senderDone <-chan struct{}) error {
	select {
	case c.inbox <- e:
		return nil
	case <-c.done:
		return nil
	case <-senderDone:
		return ErrChannelClosed
	}
}

func (c *MockChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *MockChannel) dispatchLoop() {
	defer c.wg.Done()

	for {
		select {
		case e := <-c.inbox:
			c.listeners.Dispatch(e)
		case <-c.done:
			return
		}
	}
}
