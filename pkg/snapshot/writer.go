package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the debounce window used when none is set.
const DefaultInterval = time.Second

// CaptureFunc returns the current state of a channel.
type CaptureFunc func() (State, error)

// SaveObserver is notified after every save attempt.
type SaveObserver func(channel string, err error)

// Writer saves a channel's state after changes, at most once per interval.
type Writer struct {
	store    Store
	channel  string
	capture  CaptureFunc
	interval time.Duration
	logger   *slog.Logger
	observe  SaveObserver

	dirty chan struct{}
	mu    sync.Mutex // serializes saves
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithInterval sets the debounce window.
func WithInterval(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets the logger used for save failures.
func WithLogger(l *slog.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithObserver registers fn to be called after every save.
func WithObserver(fn SaveObserver) WriterOption {
	return func(w *Writer) { w.observe = fn }
}

// NewWriter returns a Writer saving capture() to store under channel.
func NewWriter(store Store, channel string, capture CaptureFunc, opts ...WriterOption) *Writer {
	w := &Writer{
		store:    store,
		channel:  channel,
		capture:  capture,
		interval: DefaultInterval,
		logger:   slog.Default(),
		dirty:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// MarkDirty schedules a save. It never blocks.
func (w *Writer) MarkDirty() {
	select {
	case w.dirty <- struct{}{}:
	default:
	}
}

// Run saves pending changes until ctx is done. Changes arriving within one
// interval of each other are coalesced into a single save.
func (w *Writer) Run(ctx context.Context) {
	timer := time.NewTimer(w.interval)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-w.dirty:
			if !pending {
				pending = true
				timer.Reset(w.interval)
			}
		case <-timer.C:
			pending = false
			if err := w.Flush(ctx); err != nil {
				w.logger.Error("snapshot save failed", "channel", w.channel, "error", err)
			}
		}
	}
}

// Flush captures and saves the state now.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, err := w.capture()
	if err == nil {
		err = w.store.Save(ctx, w.channel, st)
	}
	if w.observe != nil {
		w.observe(w.channel, err)
	}
	return err
}
