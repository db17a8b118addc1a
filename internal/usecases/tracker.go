package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"go.openly.dev/pointy"

	"github.com/solpulse/wallet-monitor/internal/core/ports"
	"github.com/solpulse/wallet-monitor/internal/entities"
	"github.com/solpulse/wallet-monitor/internal/observability"
)

const explorerTxURL = "https://solscan.io/tx/"

var (
	// ErrInvalidWalletAddress rejects addresses that are not valid base58
	// Solana public keys, before any fetch or registry mutation happens.
	ErrInvalidWalletAddress = errors.New("invalid wallet address")

	// ErrWalletNotTracked is returned when untracking an unknown address.
	ErrWalletNotTracked = errors.New("wallet address is not tracked")
)

// HistoryPage is one page of enriched transaction history plus the cursor
// and quota information the client needs to page further.
type HistoryPage struct {
	Transactions      []entities.EnrichedTransaction `json:"transactions"`
	LastSignature     string                         `json:"last_signature,omitempty"`
	RemainingRequests int                            `json:"remaining_requests"`
}

// TrackerService is the engine behind the wallet-monitoring API: it owns
// the watch registry and rate governor, spawns pollers for newly tracked
// wallets and serves enriched history pages.
type TrackerService struct {
	logger   *slog.Logger
	fetcher  ports.TransactionFetcher
	enricher *Enricher
	registry *WatchRegistry
	governor *RateGovernor
	poller   ports.WalletPoller
	metrics  *observability.Metrics

	// monitorCtx bounds poller lifetimes to the process, not to the HTTP
	// request that started tracking.
	monitorCtx context.Context

	historyPageSize int
}

// NewTrackerService wires the monitoring engine together. Pollers started
// by Track run until ctx is cancelled or the wallet is untracked.
func NewTrackerService(
	ctx context.Context,
	logger *slog.Logger,
	fetcher ports.TransactionFetcher,
	enricher *Enricher,
	registry *WatchRegistry,
	governor *RateGovernor,
	poller ports.WalletPoller,
	metrics *observability.Metrics,
	historyPageSize int,
) *TrackerService {
	if historyPageSize <= 0 {
		historyPageSize = ports.HistoryPageSize
	}

	return &TrackerService{
		logger:          logger,
		fetcher:         fetcher,
		enricher:        enricher,
		registry:        registry,
		governor:        governor,
		poller:          poller,
		metrics:         metrics,
		monitorCtx:      ctx,
		historyPageSize: historyPageSize,
	}
}

// Track registers a wallet for monitoring and returns a fresh enriched
// snapshot of its recent transactions. Tracking an already-tracked wallet
// starts no second poller but still returns the snapshot.
func (s *TrackerService) Track(ctx context.Context, walletAddress string) ([]entities.EnrichedTransaction, error) {
	if err := validateWalletAddress(walletAddress); err != nil {
		return nil, err
	}

	entry, created := s.registry.Track(walletAddress)
	if created {
		s.metrics.TrackedWallets.Inc()
		go s.poller.Watch(s.monitorCtx, entry)
	}

	envelopes, err := s.fetcher.Transactions(ctx, walletAddress, s.historyPageSize, nil)
	if err != nil {
		s.metrics.FetchErrorsTotal.Inc()
		return nil, fmt.Errorf("fetch transactions for %s: %w", walletAddress, err)
	}

	return s.enrichAll(ctx, envelopes), nil
}

// List returns the currently tracked wallet addresses.
func (s *TrackerService) List() []string {
	return s.registry.List()
}

// Untrack stops monitoring a wallet. Its dedup state goes away with the
// registry entry; the rate-governor counter deliberately stays.
func (s *TrackerService) Untrack(walletAddress string) error {
	if !s.registry.Untrack(walletAddress) {
		return ErrWalletNotTracked
	}

	s.metrics.TrackedWallets.Dec()
	return nil
}

// History returns the first page of enriched history for a wallet,
// charging its request budget.
func (s *TrackerService) History(ctx context.Context, walletAddress string) (*HistoryPage, error) {
	return s.historyPage(ctx, walletAddress, nil)
}

// MoreHistory pages strictly older than lastSignature, consuming the same
// per-address budget as History.
func (s *TrackerService) MoreHistory(ctx context.Context, walletAddress, lastSignature string) (*HistoryPage, error) {
	return s.historyPage(ctx, walletAddress, pointy.String(lastSignature))
}

func (s *TrackerService) historyPage(ctx context.Context, walletAddress string, before *string) (*HistoryPage, error) {
	if err := validateWalletAddress(walletAddress); err != nil {
		return nil, err
	}

	remaining, err := s.governor.Charge(walletAddress)
	if err != nil {
		s.metrics.RateLimitedTotal.Inc()
		return nil, err
	}

	envelopes, err := s.fetcher.Transactions(ctx, walletAddress, s.historyPageSize, before)
	if err != nil {
		s.metrics.FetchErrorsTotal.Inc()
		return nil, fmt.Errorf("fetch transaction history for %s: %w", walletAddress, err)
	}

	transactions := s.enrichAll(ctx, envelopes)

	page := &HistoryPage{
		Transactions:      transactions,
		RemainingRequests: remaining,
	}
	if len(transactions) > 0 {
		page.LastSignature = transactions[len(transactions)-1].Signature
	}

	return page, nil
}

func (s *TrackerService) enrichAll(ctx context.Context, envelopes []entities.TransactionEnvelope) []entities.EnrichedTransaction {
	transactions := make([]entities.EnrichedTransaction, 0, len(envelopes))
	for _, envelope := range envelopes {
		result := s.enricher.Enrich(ctx, envelope.Payload)
		transactions = append(transactions, entities.EnrichedTransaction{
			Signature:     envelope.Signature,
			Actions:       result.Actions,
			TokenInfo:     result.Movements,
			TotalValueUSD: result.TotalValueUSD,
			Link:          ExplorerTxLink(envelope.Signature),
		})
	}
	return transactions
}

// ExplorerTxLink builds the solscan URL for a transaction signature.
func ExplorerTxLink(signature string) string {
	return explorerTxURL + signature
}

func validateWalletAddress(address string) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidWalletAddress, address)
	}
	return nil
}
