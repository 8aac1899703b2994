// Package watcher reports changes to a file's contents.
// It supports both subscription-based (event-driven) and polling-based
// change detection; both deliver the current contents on start and then
// again whenever they differ from the last delivered contents.
package watcher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"time"
)

// DefaultPollInterval is the default polling interval for change detection.
const DefaultPollInterval = time.Second

// CompareFunc compares two byte slices and returns true if they are different.
type CompareFunc func(old, new []byte) bool

// DefaultCompareFunc compares byte slices directly using bytes.Equal.
func DefaultCompareFunc(old, new []byte) bool {
	return !bytes.Equal(old, new)
}

// HashCompareFunc compares byte slices using SHA-256 hashes.
func HashCompareFunc(old, new []byte) bool {
	return sha256.Sum256(old) != sha256.Sum256(new)
}

// Config configures watcher behavior.
type Config struct {
	// PollInterval is the interval between polling attempts.
	// Only used by polling watchers. Default is DefaultPollInterval.
	PollInterval time.Duration

	// CompareFunc is used to detect changes between old and new data.
	// Default is DefaultCompareFunc.
	CompareFunc CompareFunc
}

// Option is a functional option for Config.
type Option func(*Config)

// WithPollInterval sets the polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithCompareFunc sets the comparison function for change detection.
func WithCompareFunc(f CompareFunc) Option {
	return func(c *Config) {
		c.CompareFunc = f
	}
}

// NewConfig creates a Config with the given options.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		PollInterval: DefaultPollInterval,
		CompareFunc:  DefaultCompareFunc,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.CompareFunc == nil {
		cfg.CompareFunc = DefaultCompareFunc
	}
	return cfg
}

// Result represents the result of a watch cycle.
type Result struct {
	// Data is the latest contents. Only set when Err is nil.
	Data []byte

	// Err is set if fetching or watching failed.
	Err error
}

// FetchFunc reads the current contents of the watched file.
type FetchFunc func(ctx context.Context) ([]byte, error)

// NotifyFunc is called by a subscription when the watched file may have
// changed (err == nil) or when watching failed.
type NotifyFunc func(err error)

// StopFunc stops a subscription.
// The context can be used for timeout/cancellation of cleanup operations.
type StopFunc func(ctx context.Context) error

// SubscribeFunc starts event-based notifications for a file.
type SubscribeFunc func(ctx context.Context, notify NotifyFunc) (StopFunc, error)
