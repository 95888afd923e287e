package storage

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Refresher periodically reloads a FileStore so new exports are picked up
// without a restart.
type Refresher struct {
	interval time.Duration
	store    *FileStore
	log      zerolog.Logger

	mu       sync.Mutex
	started  bool
	stopped  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRefresher creates a refresher for store. Intervals below one second are
// raised to one second.
func NewRefresher(interval time.Duration, store *FileStore, log zerolog.Logger) *Refresher {
	if interval < time.Second {
		interval = time.Second
	}

	return &Refresher{
		interval: interval,
		store:    store,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the reload loop in a goroutine. Calls after the first one,
// or after Stop, do nothing.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true
	go r.run()
}

// Stop requests graceful loop termination and waits until it is done. It is
// safe to call without Start and from several goroutines.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		started := r.started
		r.mu.Unlock()

		close(r.stopCh)
		if started {
			<-r.doneCh
		}
	})
}

func (r *Refresher) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.store.Reload(); err != nil {
				r.log.Warn().Err(err).Str("path", r.store.Path()).Msg("history reload failed")
			}
		case <-r.stopCh:
			return
		}
	}
}
