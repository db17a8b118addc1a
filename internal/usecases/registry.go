package usecases

import (
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/solpulse/wallet-monitor/internal/entities"
)

// WatchRegistry is the process-wide table of tracked wallets. All mutation
// goes through the registry so there is exactly one active entry per
// address.
type WatchRegistry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entities.WatchEntry
}

// NewWatchRegistry creates an empty registry.
func NewWatchRegistry(logger *slog.Logger) *WatchRegistry {
	return &WatchRegistry{
		logger:  logger,
		entries: make(map[string]*entities.WatchEntry),
	}
}

// Track returns the watch entry for an address, creating it if absent. The
// boolean reports whether a new entry was created, i.e. whether the caller
// must start a poller for it.
func (r *WatchRegistry) Track(address string) (*entities.WatchEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[address]; ok {
		return entry, false
	}

	entry := entities.NewWatchEntry(address)
	r.entries[address] = entry
	r.logger.Info("Wallet added to tracking list", "wallet", address, "tracked", len(r.entries))

	return entry, true
}

// Entry returns the current watch entry for an address, if any.
func (r *WatchRegistry) Entry(address string) (*entities.WatchEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[address]
	return entry, ok
}

// List returns a sorted snapshot of the tracked addresses.
func (r *WatchRegistry) List() []string {
	r.mu.RLock()
	addresses := maps.Keys(r.entries)
	r.mu.RUnlock()

	sort.Strings(addresses)
	return addresses
}

// Untrack removes an address and signals its poller to stop. It reports
// whether the address was tracked.
func (r *WatchRegistry) Untrack(address string) bool {
	r.mu.Lock()
	entry, ok := r.entries[address]
	if ok {
		delete(r.entries, address)
	}
	remaining := len(r.entries)
	r.mu.Unlock()

	if !ok {
		return false
	}

	entry.Stop()
	r.logger.Info("Wallet removed from tracking list", "wallet", address, "tracked", remaining)

	return true
}
