package widget

import (
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Loader embeds a widget frame into host documents and keeps the frame height
// in sync with the resize messages the frame posts.
//
// Nothing the loader does fails the host page: a missing container skips the
// embed and bad messages are ignored, leaving the frame at its fallback
// height.
type Loader struct {
	conf          LoaderConfig
	trustedOrigin string
	codec         *codec
	subscriber    ResizeSubscriber
	logger        *zap.Logger
}

func NewLoader(conf LoaderConfig, options ...Option) (*Loader, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	// Validated above.
	origin, _ := conf.trustedOrigin()

	opts := buildOptions(options)
	return &Loader{
		conf:          conf,
		trustedOrigin: origin,
		codec:         newCodec(),
		subscriber:    opts.ResizeSubscriber,
		logger:        opts.Logger,
	}, nil
}

// TrustedOrigin returns the only origin resize messages are accepted from.
func (l *Loader) TrustedOrigin() string {
	return l.trustedOrigin
}

// Load appends the widget frame to the container in doc and listens for
// resize messages on the host window channel. If the container is missing a
// diagnostic is logged and nil is returned.
func (l *Loader) Load(doc *Document, window Channel) *Embed {
	container, ok := doc.ElementByID(l.conf.ContainerID)
	if !ok {
		l.logger.Warn(
			"widget container not found; skipping embed",
			zap.String("container-id", l.conf.ContainerID),
		)
		return nil
	}

	frame := doc.appendElement(container, atom.Iframe, []html.Attribute{
		{Key: "src", Val: l.conf.EmbedURL},
		{Key: "title", Val: "PlataPay"},
		{Key: "scrolling", Val: "no"},
		{Key: "frameborder", Val: "0"},
		{Key: "style", Val: formatStyle([]declaration{
			{prop: "width", value: "100%"},
			{prop: "border", value: "none"},
			{prop: "overflow", value: "hidden"},
			{prop: "height", value: strconv.Itoa(l.conf.FallbackHeight) + "px"},
		})},
	})

	l.logger.Debug(
		"widget embedded",
		zap.String("container-id", l.conf.ContainerID),
		zap.String("src", l.conf.EmbedURL),
		zap.String("trusted-origin", l.trustedOrigin),
	)

	e := &Embed{
		loader: l,
		frame:  frame,
	}
	e.remove = window.AddListener(e.onMessage)
	return e
}

// Embed is a frame inserted by a Loader.
type Embed struct {
	loader *Loader
	frame  *Element

	mu      sync.Mutex
	remove  func()
	applied uint64
}

// Frame returns the inserted iframe element.
func (e *Embed) Frame() *Element {
	return e.frame
}

// Height returns the current height style of the frame, such as "600px".
func (e *Embed) Height() string {
	return e.frame.Style("height")
}

// Applied returns the number of resize messages applied to the frame.
func (e *Embed) Applied() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applied
}

// Shutdown removes the message listener. The frame keeps its last height.
// In a browser the listener lives until the page unloads, so only non-browser
// hosts need this.
func (e *Embed) Shutdown() {
	e.mu.Lock()
	remove := e.remove
	e.remove = nil
	e.mu.Unlock()

	if remove != nil {
		remove()
	}
}

func (e *Embed) onMessage(env *Envelope) {
	// Messages from other origins are expected background noise, so are
	// dropped without logging.
	if env.Origin != e.loader.trustedOrigin {
		return
	}

	m, err := e.loader.codec.Decode(env.Data)
	if err != nil {
		return
	}

	e.mu.Lock()
	if e.remove == nil {
		e.mu.Unlock()
		return
	}
	e.frame.setStyle("height", m.Pixels())
	e.applied++
	e.mu.Unlock()

	if e.loader.subscriber != nil {
		e.loader.subscriber.NotifyResize(m.Height)
	}
}
