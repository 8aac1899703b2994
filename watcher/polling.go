package watcher

import (
	"context"
	"sync"
	"time"
)

// pollingWatcher implements Watcher using polling.
type pollingWatcher struct {
	fetch FetchFunc
	cfg   Config

	results chan Result
	stopCh  chan struct{}

	mu      sync.Mutex
	running bool
}

// NewPolling creates a Watcher that calls fetch at the configured interval.
// It is the fallback for file systems without change notifications.
func NewPolling(fetch FetchFunc, opts ...Option) Watcher {
	return &pollingWatcher{
		fetch: fetch,
		cfg:   NewConfig(opts...),
	}
}

// Start begins polling at the configured interval.
// The first poll happens immediately.
func (w *pollingWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.results = make(chan Result)
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	results := w.results
	w.mu.Unlock()

	interval := w.cfg.PollInterval
	filter := &changeFilter{compare: w.cfg.CompareFunc}

	go func() {
		defer close(results)

		for {
			startTime := time.Now()

			data, err := w.fetch(ctx)
			var r *Result
			switch {
			case err != nil:
				r = &Result{Err: err}
			case filter.changed(data):
				r = &Result{Data: data}
			}
			if r != nil {
				select {
				case results <- *r:
				case <-ctx.Done():
					return
				case <-stopCh:
					return
				}
			}

			// Calculate wait time, accounting for processing time
			waitTime := interval - time.Since(startTime)
			if waitTime <= 0 {
				continue
			}

			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			}
		}
	}()

	return nil
}

// Stop stops polling.
func (w *pollingWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)
	return nil
}

// Results returns the channel receiving poll results.
func (w *pollingWatcher) Results() <-chan Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results
}
