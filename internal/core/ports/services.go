package ports

import (
	"context"

	"github.com/solpulse/wallet-monitor/internal/entities"
)

// TransactionFetcher wraps the external transaction-history provider.
type TransactionFetcher interface {
	// Transactions returns up to limit transactions for a wallet, newest
	// first. A non-nil before cursor requests transactions strictly older
	// than that signature.
	Transactions(ctx context.Context, walletAddress string, limit int, before *string) ([]entities.TransactionEnvelope, error)
}

// TokenMetadataService resolves a token mint address to a display identity.
type TokenMetadataService interface {
	TokenMetadata(ctx context.Context, tokenAddress string) (name, symbol string, err error)
}

// PriceService resolves a token symbol to a current USD unit price.
type PriceService interface {
	TokenPriceUSD(ctx context.Context, symbol string) (float64, error)
}

// Notifier fans events out to all connected subscribers. Delivery is fire
// and forget.
type Notifier interface {
	Broadcast(event entities.NotificationEvent)
	BroadcastError(message string)
}

// WalletPoller runs the recurring new-transaction check for one tracked
// wallet.
type WalletPoller interface {
	// Watch blocks until the context is cancelled or the entry is removed
	// from the registry.
	Watch(ctx context.Context, entry *entities.WatchEntry)
}
