// Package sandbox runs host pages and embedded widget frames in-process, for
// evaluating and testing the resize protocol without a browser.
package sandbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/platapay/widget"
	"go.uber.org/zap"
)

// DefaultHostPage returns a minimal host page containing the container for
// the given variant.
func DefaultHostPage(v widget.Variant) string {
	return fmt.Sprintf(`<html><body><h1>Find a PlataPay agent</h1><div id="%s"></div></body></html>`, v.ContainerID)
}

type PageConfig struct {
	Variant widget.Variant

	// ScriptOrigin is the origin the loader script is served from.
	ScriptOrigin string

	// EmbedOrigin is the origin the frame is served from. Ignored for same
	// origin variants.
	EmbedOrigin string

	// HostPage is the host page HTML. Defaults to DefaultHostPage.
	HostPage string

	// Watcher observes the frame content. Defaults to a MockWatcher with
	// InitialHeight.
	Watcher widget.ContentSizeWatcher

	InitialHeight int

	// Subscriber is notified of every resize applied to the frame. May be
	// nil.
	Subscriber widget.ResizeSubscriber
}

// Page is a host page with an embedded frame.
type Page struct {
	ID       string
	Document *widget.Document
	Window   *widget.MockChannel
	Frame    *widget.MockChannel

	// Embed is nil if the host page has no container for the variant.
	Embed *widget.Embed

	// Watcher is set if the page was created with the default watcher.
	Watcher *widget.MockWatcher

	Observer *widget.Observer

	resizes *resizeFanout
}

// Height returns the current frame height style, or an empty string if the
// frame was not embedded.
func (p *Page) Height() string {
	if p.Embed == nil {
		return ""
	}
	return p.Embed.Height()
}

// WaitForHeight waits for the frame height style to become the given value.
func (p *Page) WaitForHeight(ctx context.Context, height string) error {
	if p.Embed == nil {
		return fmt.Errorf("page %s: no frame embedded", p.ID)
	}

	for {
		// Taken before reading the height so a resize between the two is
		// not missed.
		changed := p.resizes.Changed()
		if p.Embed.Height() == height {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("page %s: waiting for height %s (at %s): %w", p.ID, height, p.Embed.Height(), ctx.Err())
		case <-changed:
		}
	}
}

func (p *Page) shutdown() {
	if p.Observer != nil {
		p.Observer.Shutdown()
	}
	if p.Embed != nil {
		p.Embed.Shutdown()
	}
}

// resizeFanout forwards resizes applied to a page's frame to the configured
// subscriber and wakes anyone waiting on the frame height.
type resizeFanout struct {
	subscriber widget.ResizeSubscriber

	mu      sync.Mutex
	changed chan struct{}
}

func newResizeFanout(subscriber widget.ResizeSubscriber) *resizeFanout {
	return &resizeFanout{
		subscriber: subscriber,
		changed:    make(chan struct{}),
	}
}

func (f *resizeFanout) NotifyResize(height float64) {
	if f.subscriber != nil {
		f.subscriber.NotifyResize(height)
	}

	f.mu.Lock()
	close(f.changed)
	f.changed = make(chan struct{})
	f.mu.Unlock()
}

// Changed returns a channel closed on the next resize.
func (f *resizeFanout) Changed() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changed
}

// Sandbox manages host pages over a shared in-process network.
type Sandbox struct {
	mu      sync.Mutex
	network *widget.MockNetwork
	pages   map[string]*Page
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Sandbox {
	return &Sandbox{
		network: widget.NewMockNetwork(),
		pages:   make(map[string]*Page),
		logger:  logger,
	}
}

// AddPage creates a host page, runs the variant's loader on it and, if the
// frame was embedded, starts the frame observer.
func (s *Sandbox) AddPage(conf PageConfig) (*Page, error) {
	id := uuid.New().String()[:7]
	logger := s.logger.With(zap.String("page-id", id), zap.String("variant", conf.Variant.Name))

	hostPage := conf.HostPage
	if hostPage == "" {
		hostPage = DefaultHostPage(conf.Variant)
	}
	doc, err := widget.NewDocument(hostPage)
	if err != nil {
		return nil, err
	}

	resizes := newResizeFanout(conf.Subscriber)
	loader, err := widget.NewLoader(
		conf.Variant.LoaderConfig(conf.ScriptOrigin, conf.EmbedOrigin),
		widget.WithResizeSubscriber(resizes),
		widget.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	page := &Page{
		ID:       id,
		Document: doc,
		Window:   s.network.NewWindow(fmt.Sprintf("https://host-%s.example", id)),
		resizes:  resizes,
	}
	page.Embed = loader.Load(doc, page.Window)

	if page.Embed != nil {
		page.Frame = s.network.NewFrame(page.Window, loader.TrustedOrigin())

		watcher := conf.Watcher
		if watcher == nil {
			page.Watcher = widget.NewMockWatcher(conf.InitialHeight)
			watcher = page.Watcher
		}
		page.Observer, err = widget.Observe(watcher, page.Frame, widget.WithLogger(logger))
		if err != nil {
			page.shutdown()
			return nil, err
		}
	}

	s.mu.Lock()
	s.pages[id] = page
	s.mu.Unlock()
	return page, nil
}

// Pages returns every page in the sandbox.
func (s *Sandbox) Pages() []*Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	pages := make([]*Page, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, p)
	}
	return pages
}

// WaitForHeights waits for every page with an embedded frame to reach the
// height of its content.
func (s *Sandbox) WaitForHeights(ctx context.Context) error {
	var errs error
	for _, p := range s.Pages() {
		if p.Embed == nil || p.Watcher == nil {
			continue
		}
		want := (&widget.ResizeMessage{Height: float64(p.Watcher.ScrollHeight())}).Pixels()
		if err := p.WaitForHeight(ctx, want); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

// Shutdown stops every observer and loader listener and closes the network.
func (s *Sandbox) Shutdown() error {
	s.mu.Lock()
	pages := s.pages
	s.pages = make(map[string]*Page)
	s.mu.Unlock()

	var errs error
	for _, p := range pages {
		p.shutdown()
		for _, c := range []*widget.MockChannel{p.Frame, p.Window} {
			if c == nil {
				continue
			}
			if err := c.Shutdown(); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("page %s: %w", p.ID, err))
			}
		}
	}
	s.network.Shutdown()
	return errs
}
