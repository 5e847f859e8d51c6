package widget

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Observer runs inside an embedded frame and reports the height of the frame
// content to the window embedding it, so the embedding page can size the
// frame without scrollbars.
//
// Every mutation batch results in one message; there is no coalescing, the
// receiver applies the last message it processes.
type Observer struct {
	watcher      ContentSizeWatcher
	channel      Channel
	targetOrigin string
	codec        *codec
	sub          Subscription
	sent         uint64

	done         chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
	logger       *zap.Logger
}

// Observe posts the current content height to the parent window, then starts
// observing the content and posts a new height after every change until
// Shutdown is called.
func Observe(watcher ContentSizeWatcher, channel Channel, options ...Option) (*Observer, error) {
	opts := buildOptions(options)

	o := &Observer{
		watcher:      watcher,
		channel:      channel,
		targetOrigin: opts.TargetOrigin,
		codec:        newCodec(),
		done:         make(chan struct{}),
		logger:       opts.Logger,
	}

	// Send the initial height before any mutation, since the content may
	// already be laid out and never change again.
	o.report(watcher.ScrollHeight())

	sub, err := watcher.Watch()
	if err != nil {
		o.logger.Error("failed to watch content", zap.Error(err))
		return nil, fmt.Errorf("failed to watch content: %v", err)
	}
	o.sub = sub

	o.wg.Add(1)
	go o.observeLoop()

	return o, nil
}

// Sent returns the number of resize messages posted.
func (o *Observer) Sent() uint64 {
	return atomic.LoadUint64(&o.sent)
}

// Shutdown disconnects from the content watcher. No messages are posted once
// it returns.
func (o *Observer) Shutdown() {
	o.shutdownOnce.Do(func() {
		o.logger.Debug("observer shutdown")

		close(o.done)
		o.sub.Disconnect()
		o.wg.Wait()
	})
}

func (o *Observer) observeLoop() {
	defer o.wg.Done()

	for {
		select {
		case h, ok := <-o.sub.Heights():
			if !ok {
				return
			}
			// Checked again since select picks randomly between ready
			// cases.
			select {
			case <-o.done:
				return
			default:
			}
			o.report(h)
		case <-o.done:
			return
		}
	}
}

func (o *Observer) report(height int) {
	b, err := o.codec.Encode(&ResizeMessage{
		Height: float64(height),
	})
	if err != nil {
		o.logger.Error("failed to encode resize", zap.Int("height", height), zap.Error(err))
		return
	}

	if err := o.channel.PostMessage(b, o.targetOrigin); err != nil {
		o.logger.Debug("failed to post resize", zap.Int("height", height), zap.Error(err))
		return
	}
	atomic.AddUint64(&o.sent, 1)
}
