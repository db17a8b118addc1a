package usecases

import (
	"context"
	"log/slog"
	"math"

	"github.com/solpulse/wallet-monitor/internal/core/ports"
	"github.com/solpulse/wallet-monitor/internal/entities"
)

const lamportsPerSOL = 1_000_000_000

const (
	fallbackTokenName   = "Unknown Token"
	fallbackTokenSymbol = "UNKNOWN"
)

// Enricher classifies provider transaction payloads into human-readable
// actions and token movements with best-effort USD values.
type Enricher struct {
	logger   *slog.Logger
	prices   ports.PriceService
	metadata ports.TokenMetadataService
}

// NewEnricher creates a new transaction enricher.
func NewEnricher(logger *slog.Logger, prices ports.PriceService, metadata ports.TokenMetadataService) *Enricher {
	return &Enricher{
		logger:   logger,
		prices:   prices,
		metadata: metadata,
	}
}

// Enrich analyzes one transaction payload. It never fails: price and
// metadata lookup errors degrade to a zero price and a placeholder token
// identity, and an unclassifiable payload yields the single action
// "Unknown".
func (e *Enricher) Enrich(ctx context.Context, payload entities.TransactionPayload) entities.EnrichmentResult {
	var result entities.EnrichmentResult

	switch payload.Type {
	case entities.TypeTransfer:
		result.Actions = append(result.Actions, "SOL Transfer")

		var amount float64
		if len(payload.NativeTransfers) > 0 {
			amount = float64(payload.NativeTransfers[0].Amount) / lamportsPerSOL
		}

		value := amount * e.priceOrZero(ctx, "SOL")
		result.Movements = append(result.Movements, entities.TokenMovement{
			TokenName:   "Solana",
			TokenSymbol: "SOL",
			Amount:      amount,
			ValueUSD:    value,
		})
		result.TotalValueUSD += value

	case entities.TypeSwap:
		result.Actions = append(result.Actions, "Swap")

	case entities.TypeNFTMint:
		result.Actions = append(result.Actions, "NFT Mint")
	}

	for _, transfer := range payload.Events.Fungible {
		result.Actions = append(result.Actions, "Token Transfer")

		name, symbol := e.tokenIdentity(ctx, transfer.TokenAddress)
		amount := transfer.Amount / math.Pow10(transfer.Decimals)
		value := amount * e.priceOrZero(ctx, symbol)

		result.Movements = append(result.Movements, entities.TokenMovement{
			TokenName:   name,
			TokenSymbol: symbol,
			Amount:      amount,
			ValueUSD:    value,
		})
		result.TotalValueUSD += value
	}

	if payload.Events.HasNFT() {
		result.Actions = append(result.Actions, "NFT Transfer")
	}

	if len(result.Actions) == 0 {
		result.Actions = []string{"Unknown"}
	}

	return result
}

func (e *Enricher) priceOrZero(ctx context.Context, symbol string) float64 {
	price, err := e.prices.TokenPriceUSD(ctx, symbol)
	if err != nil {
		e.logger.DebugContext(ctx, "Price lookup failed, defaulting to zero", "symbol", symbol, "error", err)
		return 0
	}
	return price
}

func (e *Enricher) tokenIdentity(ctx context.Context, tokenAddress string) (string, string) {
	name, symbol, err := e.metadata.TokenMetadata(ctx, tokenAddress)
	if err != nil {
		e.logger.DebugContext(ctx, "Token metadata lookup failed, using placeholder",
			"token_address", tokenAddress, "error", err)
		return fallbackTokenName, fallbackTokenSymbol
	}
	return name, symbol
}
