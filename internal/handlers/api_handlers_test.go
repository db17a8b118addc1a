package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/solpulse/wallet-monitor/internal/entities"
	"github.com/solpulse/wallet-monitor/internal/observability"
	"github.com/solpulse/wallet-monitor/internal/usecases"
)

const testWallet = "So11111111111111111111111111111111111111112"

type stubFetcher struct {
	envelopes []entities.TransactionEnvelope
	err       error
}

func (f *stubFetcher) Transactions(_ context.Context, _ string, limit int, before *string) ([]entities.TransactionEnvelope, error) {
	if f.err != nil {
		return nil, f.err
	}

	page := make([]entities.TransactionEnvelope, 0, limit)
	older := before == nil
	for _, envelope := range f.envelopes {
		if !older {
			older = envelope.Signature == *before
			continue
		}
		if len(page) == limit {
			break
		}
		page = append(page, envelope)
	}
	return page, nil
}

type stubPoller struct{}

func (stubPoller) Watch(context.Context, *entities.WatchEntry) {}

type zeroPriceService struct{}

func (zeroPriceService) TokenPriceUSD(context.Context, string) (float64, error) {
	return 0, nil
}

type placeholderMetadataService struct{}

func (placeholderMetadataService) TokenMetadata(context.Context, string) (string, string, error) {
	return "", "", fmt.Errorf("metadata unavailable")
}

func newTestRouter(t *testing.T, fetcher *stubFetcher) *mux.Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	tracker := usecases.NewTrackerService(
		context.Background(),
		logger,
		fetcher,
		usecases.NewEnricher(logger, zeroPriceService{}, placeholderMetadataService{}),
		usecases.NewWatchRegistry(logger),
		usecases.NewRateGovernor(logger, 5),
		stubPoller{},
		metrics,
		5,
	)

	router := mux.NewRouter()
	NewHTTPHandler(logger, tracker, registry).RegisterRoutes(router)
	return router
}

func envelopesWithSignatures(signatures ...string) []entities.TransactionEnvelope {
	envelopes := make([]entities.TransactionEnvelope, 0, len(signatures))
	for _, sig := range signatures {
		envelopes = append(envelopes, entities.TransactionEnvelope{
			Signature: sig,
			Payload:   entities.TransactionPayload{Type: entities.TypeTransfer},
		})
	}
	return envelopes
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestTrackWallet(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{envelopes: envelopesWithSignatures("sig-1", "sig-2")})

	resp := doJSON(t, router, http.MethodPost, "/track", map[string]string{"wallet_address": testWallet})
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Transactions []entities.EnrichedTransaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Transactions, 2)
	require.Equal(t, "sig-1", body.Transactions[0].Signature)
	require.Equal(t, "https://solscan.io/tx/sig-1", body.Transactions[0].Link)

	resp = doJSON(t, router, http.MethodGet, "/tracked_accounts", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, fmt.Sprintf(`{"accounts":[%q]}`, testWallet), resp.Body.String())
}

func TestTrackWalletMissingAddress(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{})

	resp := doJSON(t, router, http.MethodPost, "/track", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.JSONEq(t, `{"error":"Missing required field: wallet_address"}`, resp.Body.String())
}

func TestTrackWalletInvalidBody(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{})

	req := httptest.NewRequest(http.MethodPost, "/track", strings.NewReader("{not json"))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.JSONEq(t, `{"error":"Invalid request body"}`, recorder.Body.String())
}

func TestTrackWalletInvalidAddress(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{})

	resp := doJSON(t, router, http.MethodPost, "/track", map[string]string{"wallet_address": "not-base58!"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "invalid wallet address")
}

func TestDeleteAccount(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{})

	resp := doJSON(t, router, http.MethodPost, "/delete_account", map[string]string{"wallet_address": testWallet})
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(t, router, http.MethodPost, "/track", map[string]string{"wallet_address": testWallet})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, http.MethodPost, "/delete_account", map[string]string{"wallet_address": testWallet})
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t,
		fmt.Sprintf(`{"message":"Removed %s from the tracking list"}`, testWallet),
		resp.Body.String())

	resp = doJSON(t, router, http.MethodGet, "/tracked_accounts", nil)
	require.JSONEq(t, `{"accounts":[]}`, resp.Body.String())
}

func TestTransactionHistoryPaging(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{
		envelopes: envelopesWithSignatures("sig-1", "sig-2", "sig-3", "sig-4", "sig-5", "sig-6", "sig-7"),
	})

	resp := doJSON(t, router, http.MethodPost, "/transaction_history", map[string]string{"wallet_address": testWallet})
	require.Equal(t, http.StatusOK, resp.Code)

	var page usecases.HistoryPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Transactions, 5)
	require.Equal(t, "sig-5", page.LastSignature)
	require.Equal(t, 4, page.RemainingRequests)

	resp = doJSON(t, router, http.MethodPost, "/more_transactions", map[string]string{
		"wallet_address": testWallet,
		"last_signature": page.LastSignature,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Transactions, 2)
	require.Equal(t, "sig-6", page.Transactions[0].Signature)
	require.Equal(t, 3, page.RemainingRequests)
}

func TestMoreTransactionsMissingCursor(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{})

	resp := doJSON(t, router, http.MethodPost, "/more_transactions", map[string]string{"wallet_address": testWallet})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.JSONEq(t, `{"error":"Missing required field: last_signature"}`, resp.Body.String())
}

func TestTransactionHistoryRateLimited(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{envelopes: envelopesWithSignatures("sig-1")})

	for i := 0; i < 5; i++ {
		resp := doJSON(t, router, http.MethodPost, "/transaction_history", map[string]string{"wallet_address": testWallet})
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := doJSON(t, router, http.MethodPost, "/transaction_history", map[string]string{"wallet_address": testWallet})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	require.Contains(t, resp.Body.String(), "exceeded the transaction history request limit")
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{envelopes: envelopesWithSignatures("sig-1")})

	resp := doJSON(t, router, http.MethodPost, "/track", map[string]string{"wallet_address": testWallet})
	require.Equal(t, http.StatusOK, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "wallet_monitor_registry_tracked_wallets 1")
}
