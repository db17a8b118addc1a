package usecases

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrRateLimitExceeded is returned once an address has used up its history
// request budget.
var ErrRateLimitExceeded = errors.New("transaction history request limit exceeded")

// RateGovernor caps history-style requests per wallet address. Counters are
// lazily created, never decremented and only reset by process restart. The
// budget is shared between initial history lookups and pagination, and is
// independent of whether the wallet is tracked.
type RateGovernor struct {
	logger *slog.Logger
	limit  int

	mu     sync.Mutex
	counts map[string]int
}

// NewRateGovernor creates a governor with the given per-address ceiling.
func NewRateGovernor(logger *slog.Logger, limit int) *RateGovernor {
	return &RateGovernor{
		logger: logger,
		limit:  limit,
		counts: make(map[string]int),
	}
}

// Charge consumes one request from the address budget and returns the
// remaining quota. Once the ceiling is exceeded it returns
// ErrRateLimitExceeded and the caller must not perform the fetch.
func (g *RateGovernor) Charge(address string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counts[address]++
	if g.counts[address] > g.limit {
		g.logger.Warn("History request limit exceeded", "wallet", address, "limit", g.limit)
		return 0, ErrRateLimitExceeded
	}

	return g.limit - g.counts[address], nil
}
