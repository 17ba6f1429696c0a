package session

import (
	"sync"
	"time"
)

// DefaultSweepInterval is how often a Sweeper checks for expired sessions.
const DefaultSweepInterval = time.Hour

// Sweeper periodically removes expired sessions from a Store.
type Sweeper struct {
	store  *Store
	ticker *time.Ticker
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

// NewSweeper starts sweeping store every interval until Stop is called.
func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	sw := &Sweeper{
		store:  store,
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go sw.run()
	return sw
}

func (sw *Sweeper) run() {
	defer close(sw.exited)
	for {
		select {
		case <-sw.ticker.C:
			sw.store.SweepExpired(sw.store.now())
		case <-sw.done:
			return
		}
	}
}

// Stop halts the sweeper and waits for an in-progress sweep to finish.
// It is safe to call more than once.
func (sw *Sweeper) Stop() {
	sw.once.Do(func() {
		sw.ticker.Stop()
		close(sw.done)
	})
	<-sw.exited
}
