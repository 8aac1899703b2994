package watcher

import "context"

// Watcher watches for changes and notifies via a channel.
type Watcher interface {
	// Start begins watching for changes. The current contents are sent as
	// the first result.
	Start(ctx context.Context) error

	// Stop stops watching and releases resources.
	// After Stop returns, no more results will be sent.
	Stop(ctx context.Context) error

	// Results returns a channel that receives watch results.
	// The channel is created by Start and closed once watching ends.
	// Returns nil if Start has not been called.
	Results() <-chan Result
}

// changeFilter remembers the last delivered contents.
type changeFilter struct {
	compare  CompareFunc
	last     []byte
	hasFirst bool
}

// changed reports whether data should be delivered and records it.
func (f *changeFilter) changed(data []byte) bool {
	if f.hasFirst && !f.compare(f.last, data) {
		return false
	}
	f.last = data
	f.hasFirst = true
	return true
}
