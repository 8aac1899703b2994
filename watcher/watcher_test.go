package watcher_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yacchi/propyaml/watcher"
)

func TestDefaultCompareFunc(t *testing.T) {
	tests := []struct {
		name     string
		old      []byte
		new      []byte
		expected bool
	}{
		{"different", []byte("old"), []byte("new"), true},
		{"same", []byte("same"), []byte("same"), false},
		{"empty both", []byte{}, []byte{}, false},
		{"nil old", nil, []byte("new"), true},
		{"nil both", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := watcher.DefaultCompareFunc(tt.old, tt.new); got != tt.expected {
				t.Errorf("DefaultCompareFunc(%q, %q) = %v, want %v", tt.old, tt.new, got, tt.expected)
			}
			if got := watcher.HashCompareFunc(tt.old, tt.new); got != tt.expected {
				t.Errorf("HashCompareFunc(%q, %q) = %v, want %v", tt.old, tt.new, got, tt.expected)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg := watcher.NewConfig()
	if cfg.PollInterval != watcher.DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, watcher.DefaultPollInterval)
	}
	if cfg.CompareFunc == nil {
		t.Error("CompareFunc = nil, want default")
	}

	cfg = watcher.NewConfig(watcher.WithPollInterval(-time.Second), watcher.WithCompareFunc(nil))
	if cfg.PollInterval != watcher.DefaultPollInterval {
		t.Errorf("PollInterval = %v, want default for negative interval", cfg.PollInterval)
	}
	if cfg.CompareFunc == nil {
		t.Error("CompareFunc = nil, want default for nil option")
	}
}

// fakeFile is a FetchFunc source whose contents tests can change.
type fakeFile struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func (f *fakeFile) set(data string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = []byte(data)
	f.err = err
}

func (f *fakeFile) fetch(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte(nil), f.data...), nil
}

// fakeSubscription records the notify function so tests can fire events.
type fakeSubscription struct {
	mu      sync.Mutex
	notify  watcher.NotifyFunc
	stopped bool
	err     error
}

func (s *fakeSubscription) subscribe(_ context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	s.notify = notify
	s.mu.Unlock()
	return func(context.Context) error {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		return nil
	}, nil
}

func (s *fakeSubscription) fire(err error) {
	s.mu.Lock()
	notify := s.notify
	s.mu.Unlock()
	notify(err)
}

func receive(t *testing.T, w watcher.Watcher) watcher.Result {
	t.Helper()
	select {
	case r, ok := <-w.Results():
		if !ok {
			t.Fatal("Results() closed unexpectedly")
		}
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for result")
	}
	return watcher.Result{}
}

func expectNone(t *testing.T, w watcher.Watcher, wait time.Duration) {
	t.Helper()
	select {
	case r := <-w.Results():
		t.Fatalf("unexpected result: data=%q err=%v", r.Data, r.Err)
	case <-time.After(wait):
	}
}

func TestSubscriptionWatcher(t *testing.T) {
	file := &fakeFile{}
	file.set("initial", nil)
	sub := &fakeSubscription{}

	w := watcher.NewSubscription(sub.subscribe, file.fetch)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if r := receive(t, w); r.Err != nil || string(r.Data) != "initial" {
		t.Fatalf("first result = (%q, %v), want initial contents", r.Data, r.Err)
	}

	// An event without a content change is not delivered.
	sub.fire(nil)
	expectNone(t, w, 50*time.Millisecond)

	file.set("updated", nil)
	sub.fire(nil)
	if r := receive(t, w); r.Err != nil || string(r.Data) != "updated" {
		t.Fatalf("result = (%q, %v), want updated contents", r.Data, r.Err)
	}

	watchErr := errors.New("watch failed")
	sub.fire(watchErr)
	if r := receive(t, w); !errors.Is(r.Err, watchErr) {
		t.Fatalf("result error = %v, want %v", r.Err, watchErr)
	}

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, ok := <-w.Results(); ok {
		t.Error("Results() still open after Stop()")
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.stopped {
		t.Error("subscription stop func was not called")
	}
}

func TestSubscriptionWatcher_FetchError(t *testing.T) {
	loadErr := errors.New("no such file")
	file := &fakeFile{}
	file.set("", loadErr)
	sub := &fakeSubscription{}

	w := watcher.NewSubscription(sub.subscribe, file.fetch)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(context.Background())

	if r := receive(t, w); !errors.Is(r.Err, loadErr) {
		t.Fatalf("result error = %v, want %v", r.Err, loadErr)
	}
}

func TestSubscriptionWatcher_SubscribeError(t *testing.T) {
	subErr := errors.New("too many watches")
	sub := &fakeSubscription{err: subErr}
	file := &fakeFile{}

	w := watcher.NewSubscription(sub.subscribe, file.fetch)
	if err := w.Start(context.Background()); !errors.Is(err, subErr) {
		t.Fatalf("Start() error = %v, want %v", err, subErr)
	}
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestPollingWatcher(t *testing.T) {
	file := &fakeFile{}
	file.set("initial", nil)

	w := watcher.NewPolling(file.fetch, watcher.WithPollInterval(10*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop(context.Background())

	if r := receive(t, w); string(r.Data) != "initial" {
		t.Fatalf("first result = %q, want initial", r.Data)
	}

	// Unchanged contents are not re-delivered.
	expectNone(t, w, 50*time.Millisecond)

	file.set("updated", nil)
	if r := receive(t, w); string(r.Data) != "updated" {
		t.Fatalf("result = %q, want updated", r.Data)
	}

	pollErr := errors.New("read failed")
	file.set("", pollErr)
	if r := receive(t, w); !errors.Is(r.Err, pollErr) {
		t.Fatalf("result error = %v, want %v", r.Err, pollErr)
	}
}

func TestPollingWatcher_Stop(t *testing.T) {
	file := &fakeFile{}
	file.set("data", nil)

	w := watcher.NewPolling(file.fetch, watcher.WithPollInterval(10*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	receive(t, w)

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	// Stop is idempotent.
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}

	select {
	case _, ok := <-w.Results():
		if ok {
			// A result may race with Stop; the channel must close afterwards.
			if _, ok := <-w.Results(); ok {
				t.Error("Results() still open after Stop()")
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Results() not closed after Stop()")
	}
}
