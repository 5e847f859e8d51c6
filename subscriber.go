package widget

type ResizeSubscriber interface {
	// NotifyResize is invoked after the loader sets the frame height from a
	// valid resize message.
	NotifyResize(height float64)
}

// ResizeSubscriberFunc adapts a func to a ResizeSubscriber.
type ResizeSubscriberFunc func(height float64)

func (f ResizeSubscriberFunc) NotifyResize(height float64) {
	f(height)
}
