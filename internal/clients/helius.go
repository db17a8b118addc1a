package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/solpulse/wallet-monitor/internal/entities"
)

const defaultHeliusAPIURL = "https://api.helius.xyz"

// HeliusClient talks to the Helius enriched-transactions REST API. It is
// both the transaction-history provider and the token-metadata provider.
type HeliusClient struct {
	logger *slog.Logger
	apiKey string
	apiURL string
	client *http.Client
}

// NewHeliusClient creates a client for the Helius API.
func NewHeliusClient(logger *slog.Logger, apiKey, apiURL string) *HeliusClient {
	if apiURL == "" {
		apiURL = defaultHeliusAPIURL
	}

	if apiKey == "" {
		logger.Warn("Helius API key is empty, provider requests will be rejected")
	}

	return &HeliusClient{
		logger: logger,
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// heliusTransaction is the provider's wire shape: the signature sits next to
// the enriched payload fields in one flat object.
type heliusTransaction struct {
	Signature string `json:"signature"`
	entities.TransactionPayload
}

// Transactions returns up to limit enriched transactions for a wallet,
// newest first. A non-nil before cursor requests transactions strictly
// older than that signature.
func (c *HeliusClient) Transactions(ctx context.Context, walletAddress string, limit int, before *string) ([]entities.TransactionEnvelope, error) {
	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions", c.apiURL, url.PathEscape(walletAddress))

	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("limit", strconv.Itoa(limit))
	if before != nil {
		params.Set("before", *before)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactions request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helius request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("helius api status %d: %s", resp.StatusCode, string(body))
	}

	var txs []heliusTransaction
	if err = json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions response: %w", err)
	}

	envelopes := make([]entities.TransactionEnvelope, 0, len(txs))
	for _, tx := range txs {
		envelopes = append(envelopes, entities.TransactionEnvelope{
			Signature: tx.Signature,
			Payload:   tx.TransactionPayload,
		})
	}

	c.logger.DebugContext(ctx, "Fetched transactions",
		"wallet", walletAddress, "limit", limit, "count", len(envelopes))

	return envelopes, nil
}

// TransactionDetails looks a single transaction up by signature. Enrichment
// normally runs on the history payload; this exists for callers that only
// hold a signature.
func (c *HeliusClient) TransactionDetails(ctx context.Context, signature string) (entities.TransactionEnvelope, error) {
	endpoint := fmt.Sprintf("%s/v0/transactions?api-key=%s", c.apiURL, url.QueryEscape(c.apiKey))

	payload, err := json.Marshal(map[string][]string{"transactions": {signature}})
	if err != nil {
		return entities.TransactionEnvelope{}, fmt.Errorf("failed to marshal details request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return entities.TransactionEnvelope{}, fmt.Errorf("failed to create details request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return entities.TransactionEnvelope{}, fmt.Errorf("helius request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return entities.TransactionEnvelope{}, fmt.Errorf("helius api status %d: %s", resp.StatusCode, string(body))
	}

	var txs []heliusTransaction
	if err = json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return entities.TransactionEnvelope{}, fmt.Errorf("failed to decode details response: %w", err)
	}
	if len(txs) == 0 {
		return entities.TransactionEnvelope{}, fmt.Errorf("transaction %s not found", signature)
	}

	return entities.TransactionEnvelope{Signature: txs[0].Signature, Payload: txs[0].TransactionPayload}, nil
}

// TokenMetadata resolves a token mint address to its display name and
// symbol. Callers are expected to fall back to a placeholder identity on
// error.
func (c *HeliusClient) TokenMetadata(ctx context.Context, tokenAddress string) (string, string, error) {
	endpoint := fmt.Sprintf("%s/v0/tokens/metadata?api-key=%s", c.apiURL, url.QueryEscape(c.apiKey))

	payload, err := json.Marshal(map[string][]string{"mintAccounts": {tokenAddress}})
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal metadata request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("failed to create metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("helius request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("helius api status %d: %s", resp.StatusCode, string(body))
	}

	var metadata []struct {
		OffChainData struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"offChainData"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return "", "", fmt.Errorf("failed to decode metadata response: %w", err)
	}
	if len(metadata) == 0 || metadata[0].OffChainData.Symbol == "" {
		return "", "", fmt.Errorf("no metadata found for token %s", tokenAddress)
	}

	return metadata[0].OffChainData.Name, metadata[0].OffChainData.Symbol, nil
}
