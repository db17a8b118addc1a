package entities

import "sync"

// WatchEntry is the per-wallet monitoring state owned by the watch
// registry. The poller reads and writes the last-seen signature through the
// entry itself, never through a copy, so every reader observes the same
// dedup state.
type WatchEntry struct {
	Address string

	mu       sync.Mutex
	lastSeen string

	stop     chan struct{}
	stopOnce sync.Once
}

// NewWatchEntry creates the monitoring state for a wallet address.
func NewWatchEntry(address string) *WatchEntry {
	return &WatchEntry{
		Address: address,
		stop:    make(chan struct{}),
	}
}

// LastSeenSignature returns the most recent signature the poller has
// announced for this wallet, or "" if none yet.
func (e *WatchEntry) LastSeenSignature() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSeen
}

// SetLastSeenSignature records a signature the dedup check determined to be
// new. It is never rolled back.
func (e *WatchEntry) SetLastSeenSignature(signature string) {
	e.mu.Lock()
	e.lastSeen = signature
	e.mu.Unlock()
}

// Stop signals the bound poller to exit at its next suspension point.
func (e *WatchEntry) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// Done returns a channel closed when the entry has been removed from the
// registry.
func (e *WatchEntry) Done() <-chan struct{} {
	return e.stop
}
