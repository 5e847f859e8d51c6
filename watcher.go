package widget

// ContentSizeWatcher observes the rendered content of an embedded frame.
type ContentSizeWatcher interface {
	// ScrollHeight returns the current scroll height of the content root.
	ScrollHeight() int

	// Watch subscribes to changes in the content. Every mutation batch
	// (children added or removed anywhere in the subtree, or attributes
	// changed) yields one height reading. Watch may be called again after
	// the previous subscription is disconnected.
	Watch() (Subscription, error)
}

// Subscription is an active content watch.
type Subscription interface {
	// Heights returns the height readings, one per mutation batch.
	Heights() <-chan int

	// Disconnect stops the subscription. No readings are delivered once it
	// returns. It is safe to call more than once.
	Disconnect()
}
