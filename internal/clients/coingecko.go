package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultCoinGeckoAPIURL = "https://api.coingecko.com"

// tokenIDAliases maps well-known symbols to CoinGecko coin ids. Anything
// else is lower-cased and passed through as a best-effort guess.
var tokenIDAliases = map[string]string{
	"SOL":  "solana",
	"USDC": "usd-coin",
	"USDT": "tether",
}

// CoinGeckoClient resolves token symbols to USD prices via the CoinGecko
// simple-price API.
type CoinGeckoClient struct {
	logger *slog.Logger
	apiURL string
	client *http.Client
}

// NewCoinGeckoClient creates a client for the CoinGecko API.
func NewCoinGeckoClient(logger *slog.Logger, apiURL string) *CoinGeckoClient {
	if apiURL == "" {
		apiURL = defaultCoinGeckoAPIURL
	}

	return &CoinGeckoClient{
		logger: logger,
		apiURL: apiURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// TokenPriceUSD returns the current USD unit price for a token symbol. A
// symbol the provider does not know yields zero, not an error; callers
// collapse transport errors to zero as well.
func (c *CoinGeckoClient) TokenPriceUSD(ctx context.Context, symbol string) (float64, error) {
	coinID, ok := tokenIDAliases[symbol]
	if !ok {
		coinID = strings.ToLower(symbol)
	}

	endpoint := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd",
		c.apiURL, url.QueryEscape(coinID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("coingecko request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("coingecko api status %d: %s", resp.StatusCode, string(body))
	}

	var quotes map[string]struct {
		USD float64 `json:"usd"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return 0, fmt.Errorf("failed to decode price response: %w", err)
	}

	price := quotes[coinID].USD
	c.logger.DebugContext(ctx, "Fetched token price", "symbol", symbol, "coin_id", coinID, "usd", price)

	return price, nil
}
