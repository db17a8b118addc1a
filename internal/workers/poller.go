package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solpulse/wallet-monitor/internal/core/ports"
	"github.com/solpulse/wallet-monitor/internal/entities"
	"github.com/solpulse/wallet-monitor/internal/observability"
	"github.com/solpulse/wallet-monitor/internal/usecases"
)

// Poller runs one watch loop per tracked wallet: fetch the head
// transaction, compare its signature against the wallet's last-seen one and
// broadcast an enriched notification when it changed.
type Poller struct {
	logger   *slog.Logger
	fetcher  ports.TransactionFetcher
	enricher *usecases.Enricher
	registry *usecases.WatchRegistry
	notifier ports.Notifier
	metrics  *observability.Metrics
	interval time.Duration
}

// NewPoller creates a poller factory shared by all tracked wallets.
func NewPoller(
	logger *slog.Logger,
	fetcher ports.TransactionFetcher,
	enricher *usecases.Enricher,
	registry *usecases.WatchRegistry,
	notifier ports.Notifier,
	metrics *observability.Metrics,
	interval time.Duration,
) *Poller {
	if interval <= 0 {
		interval = ports.DefaultPollInterval
	}

	return &Poller{
		logger:   logger,
		fetcher:  fetcher,
		enricher: enricher,
		registry: registry,
		notifier: notifier,
		metrics:  metrics,
		interval: interval,
	}
}

// Watch polls the entry's wallet until the context is cancelled or the
// wallet is untracked. Iterations are strictly sequential: only the
// interval wait and the outbound fetch suspend the loop. Fetch errors are
// broadcast and retried on the next interval, never fatal.
func (p *Poller) Watch(ctx context.Context, entry *entities.WatchEntry) {
	p.logger.Info("Starting wallet poller", "wallet", entry.Address, "interval", p.interval.String())

	for {
		if _, ok := p.registry.Entry(entry.Address); !ok {
			p.logger.Info("Wallet no longer tracked, stopping poller", "wallet", entry.Address)
			return
		}

		p.pollOnce(ctx, entry)

		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down wallet poller", "wallet", entry.Address)
			return
		case <-entry.Done():
			p.logger.Info("Wallet no longer tracked, stopping poller", "wallet", entry.Address)
			return
		case <-time.After(p.interval):
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context, entry *entities.WatchEntry) {
	p.metrics.PollsTotal.Inc()

	envelopes, err := p.fetcher.Transactions(ctx, entry.Address, ports.PollPageSize, nil)
	if err != nil {
		p.metrics.FetchErrorsTotal.Inc()
		p.logger.Error("Failed to fetch latest transaction", "wallet", entry.Address, "error", err)
		p.notifier.BroadcastError(err.Error())
		return
	}

	if len(envelopes) == 0 {
		return
	}

	head := envelopes[0]
	if head.Signature == "" || head.Signature == entry.LastSeenSignature() {
		return
	}

	entry.SetLastSeenSignature(head.Signature)

	result := p.enricher.Enrich(ctx, head.Payload)
	p.metrics.NewTransactionsTotal.Inc()
	p.logger.Info("New transaction detected",
		"wallet", entry.Address,
		"signature", head.Signature,
		"actions", result.Actions,
		"total_value_usd", result.TotalValueUSD)

	p.notifier.Broadcast(entities.NotificationEvent{
		Message:       fmt.Sprintf("New transaction detected for %s: %s", entry.Address, head.Signature),
		WalletAddress: entry.Address,
		Signature:     head.Signature,
		Actions:       result.Actions,
		TokenInfo:     result.Movements,
		TotalValueUSD: result.TotalValueUSD,
		Link:          usecases.ExplorerTxLink(head.Signature),
	})
}
