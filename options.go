package widget

import (
	"go.uber.org/zap"
)

type Options struct {
	// TargetOrigin is the origin an Observer posts resize messages to. The
	// message carries nothing but a height so defaults to TargetAny.
	TargetOrigin string

	// ResizeSubscriber is notified whenever a loader applies a resize to its
	// frame. May be nil.
	ResizeSubscriber ResizeSubscriber

	Logger *zap.Logger
}

type Option func(*Options)

func WithTargetOrigin(origin string) Option {
	return func(opts *Options) {
		opts.TargetOrigin = origin
	}
}

func WithResizeSubscriber(sub ResizeSubscriber) Option {
	return func(opts *Options) {
		opts.ResizeSubscriber = sub
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func defaultOptions() *Options {
	l, _ := zap.NewDevelopment()
	return &Options{
		TargetOrigin:     TargetAny,
		ResizeSubscriber: nil,
		Logger:           l,
	}
}

func buildOptions(options []Option) *Options {
	opts := defaultOptions()
	for _, opt := range options {
		opt(opts)
	}
	return opts
}
