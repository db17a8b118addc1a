package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solpulse/wallet-monitor/internal/usecases"
)

type HTTPHandler struct {
	logger   *slog.Logger
	tracker  *usecases.TrackerService
	gatherer prometheus.Gatherer
}

func NewHTTPHandler(logger *slog.Logger, tracker *usecases.TrackerService, gatherer prometheus.Gatherer) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger,
		tracker:  tracker,
		gatherer: gatherer,
	}
}

func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	// API endpoints.
	router.HandleFunc("/track", h.TrackWallet).Methods("POST")
	router.HandleFunc("/tracked_accounts", h.GetTrackedAccounts).Methods("GET")
	router.HandleFunc("/delete_account", h.DeleteAccount).Methods("POST")
	router.HandleFunc("/transaction_history", h.GetTransactionHistory).Methods("POST")
	router.HandleFunc("/more_transactions", h.GetMoreTransactions).Methods("POST")

	router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	// Static files - register last to avoid intercepting other routes.
	fs := http.FileServer(http.Dir("./static"))
	router.PathPrefix("/").Handler(http.StripPrefix("/", fs))
}

// walletRequest is the JSON body shared by the wallet-keyed endpoints.
type walletRequest struct {
	WalletAddress string `json:"wallet_address"`
	LastSignature string `json:"last_signature"`
}

// TrackWallet registers a wallet for monitoring and returns an enriched
// snapshot of its recent transactions.
func (h *HTTPHandler) TrackWallet(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeWalletRequest(w, r)
	if !ok {
		return
	}

	h.logger.Info("Tracking wallet", "wallet", req.WalletAddress)

	transactions, err := h.tracker.Track(r.Context(), req.WalletAddress)
	if err != nil {
		h.logger.Error("Failed to track wallet", "error", err, "wallet", req.WalletAddress)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

// GetTrackedAccounts returns the list of currently tracked wallets.
func (h *HTTPHandler) GetTrackedAccounts(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"accounts": h.tracker.List()})
}

// DeleteAccount removes a wallet from the tracking list.
func (h *HTTPHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeWalletRequest(w, r)
	if !ok {
		return
	}

	if err := h.tracker.Untrack(req.WalletAddress); err != nil {
		if errors.Is(err, usecases.ErrWalletNotTracked) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("Failed to untrack wallet", "error", err, "wallet", req.WalletAddress)
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Removed %s from the tracking list", req.WalletAddress),
	})
}

// GetTransactionHistory returns the first page of enriched history for a
// wallet, counting against its request budget.
func (h *HTTPHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeWalletRequest(w, r)
	if !ok {
		return
	}

	page, err := h.tracker.History(r.Context(), req.WalletAddress)
	if err != nil {
		h.writeHistoryError(w, err, req.WalletAddress)
		return
	}

	h.writeJSON(w, http.StatusOK, page)
}

// GetMoreTransactions pages history strictly older than the provided last
// signature.
func (h *HTTPHandler) GetMoreTransactions(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeWalletRequest(w, r)
	if !ok {
		return
	}
	if req.LastSignature == "" {
		h.writeError(w, http.StatusBadRequest, "Missing required field: last_signature")
		return
	}

	page, err := h.tracker.MoreHistory(r.Context(), req.WalletAddress, req.LastSignature)
	if err != nil {
		h.writeHistoryError(w, err, req.WalletAddress)
		return
	}

	h.writeJSON(w, http.StatusOK, page)
}

// decodeWalletRequest parses the request body and rejects it when the
// wallet address is missing. The second return value reports success.
func (h *HTTPHandler) decodeWalletRequest(w http.ResponseWriter, r *http.Request) (walletRequest, bool) {
	var req walletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return walletRequest{}, false
	}
	if req.WalletAddress == "" {
		h.writeError(w, http.StatusBadRequest, "Missing required field: wallet_address")
		return walletRequest{}, false
	}
	return req, true
}

func (h *HTTPHandler) writeHistoryError(w http.ResponseWriter, err error, wallet string) {
	switch {
	case errors.Is(err, usecases.ErrRateLimitExceeded):
		h.writeError(w, http.StatusTooManyRequests,
			"You have exceeded the transaction history request limit. Please try again later.")
	case errors.Is(err, usecases.ErrInvalidWalletAddress):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Failed to fetch transaction history", "error", err, "wallet", wallet)
		h.writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
