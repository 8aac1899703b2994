package watcher

import (
	"context"
	"sync"
)

// subscriptionWatcher implements Watcher using subscriptions.
type subscriptionWatcher struct {
	subscribe SubscribeFunc
	fetch     FetchFunc
	cfg       Config

	results chan Result
	events  chan error
	stopCh  chan struct{}
	done    chan struct{}
	stopFn  StopFunc

	mu      sync.Mutex
	running bool
}

// NewSubscription creates a Watcher driven by subscribe. Each notification
// triggers a fetch; the fetched contents are delivered only when they differ
// from the previous delivery, so repeated events for one save collapse into
// a single result.
//
// Example:
//
//	w := watcher.NewSubscription(
//	    func(ctx context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
//	        return fs.Subscribe(ctx, path, notify)
//	    },
//	    func(ctx context.Context) ([]byte, error) { return fs.Load(ctx, path) },
//	)
func NewSubscription(subscribe SubscribeFunc, fetch FetchFunc, opts ...Option) Watcher {
	return &subscriptionWatcher{
		subscribe: subscribe,
		fetch:     fetch,
		cfg:       NewConfig(opts...),
	}
}

// Start subscribes and begins delivering results.
func (w *subscriptionWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.results = make(chan Result)
	w.events = make(chan error, 1)
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	w.mu.Unlock()

	events, stopCh := w.events, w.stopCh

	// Notifications are coalesced: while one is pending, further events
	// are dropped because the pending fetch will observe them.
	notify := func(err error) {
		if err != nil {
			select {
			case events <- err:
			case <-stopCh:
			case <-ctx.Done():
			}
			return
		}
		select {
		case events <- nil:
		default:
		}
	}

	stop, err := w.subscribe(ctx, notify)
	if err != nil {
		w.mu.Lock()
		w.running = false
		close(w.stopCh)
		close(w.done)
		close(w.results)
		w.mu.Unlock()
		return err
	}

	w.mu.Lock()
	w.stopFn = stop
	w.mu.Unlock()

	go w.loop(ctx)
	return nil
}

func (w *subscriptionWatcher) loop(ctx context.Context) {
	defer close(w.done)
	defer close(w.results)

	filter := &changeFilter{compare: w.cfg.CompareFunc}

	deliver := func(r Result) bool {
		select {
		case w.results <- r:
			return true
		case <-ctx.Done():
			return false
		case <-w.stopCh:
			return false
		}
	}

	fetchAndDeliver := func() bool {
		data, err := w.fetch(ctx)
		if err != nil {
			return deliver(Result{Err: err})
		}
		if !filter.changed(data) {
			return true
		}
		return deliver(Result{Data: data})
	}

	if !fetchAndDeliver() {
		return
	}
	for {
		select {
		case err := <-w.events:
			var ok bool
			if err != nil {
				ok = deliver(Result{Err: err})
			} else {
				ok = fetchAndDeliver()
			}
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		}
	}
}

// Stop stops the subscription.
func (w *subscriptionWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false

	// Signal stop to unblock the loop
	close(w.stopCh)
	stop := w.stopFn
	w.stopFn = nil
	done := w.done
	w.mu.Unlock()

	var err error
	if stop != nil {
		err = stop(ctx)
	}

	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Results returns the channel receiving subscription results.
func (w *subscriptionWatcher) Results() <-chan Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results
}
