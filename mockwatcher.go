package widget

import (
	"sync"
)

// MockWatcher is a ContentSizeWatcher fed with synthetic mutation batches,
// used to drive an Observer without a rendering engine.
type MockWatcher struct {
	mu     sync.Mutex
	height int
	subs   map[*mockSubscription]struct{}
}

func NewMockWatcher(initialHeight int) *MockWatcher {
	return &MockWatcher{
		height: initialHeight,
		subs:   make(map[*mockSubscription]struct{}),
	}
}

func (w *MockWatcher) ScrollHeight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.height
}

func (w *MockWatcher) Watch() (Subscription, error) {
	s := &mockSubscription{
		watcher: w,
		heights: make(chan int),
		done:    make(chan struct{}),
	}

	w.mu.Lock()
	w.subs[s] = struct{}{}
	w.mu.Unlock()

	return s, nil
}

// Mutate records one mutation batch that leaves the content at the given
// height. It blocks until every active subscription has taken the reading or
// been disconnected.
func (w *MockWatcher) Mutate(height int) {
	w.mu.Lock()
	w.height = height
	subs := make([]*mockSubscription, 0, len(w.subs))
	for s := range w.subs {
		subs = append(subs, s)
	}
	w.mu.Unlock()

	for _, s := range subs {
		select {
		case s.heights <- height:
		case <-s.done:
		}
	}
}

// Subscriptions returns the number of active subscriptions.
func (w *MockWatcher) Subscriptions() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

type mockSubscription struct {
	watcher *MockWatcher
	heights chan int
	done    chan struct{}
	once    sync.Once
}

func (s *mockSubscription) Heights() <-chan int {
	return s.heights
}

func (s *mockSubscription) Disconnect() {
	s.once.Do(func() {
		s.watcher.mu.Lock()
		delete(s.watcher.subs, s)
		s.watcher.mu.Unlock()

		close(s.done)
	})
}
