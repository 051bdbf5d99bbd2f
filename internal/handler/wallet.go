package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fundlift/custody/internal/auth"
	"github.com/fundlift/custody/internal/model"
	"github.com/fundlift/custody/internal/store"
	"github.com/fundlift/custody/stellar"
)

// WalletHandler serves the authenticated wallet endpoints.
type WalletHandler struct {
	svc   *stellar.Service
	store *store.Store
	log   zerolog.Logger
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(svc *stellar.Service, st *store.Store, lg zerolog.Logger) *WalletHandler {
	return &WalletHandler{svc: svc, store: st, log: lg}
}

// Send handles POST /wallet/send
// @Summary      Send a payment
// @Description  Signs and submits a payment from the caller's custodial account. Students only.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.SendRequest  true  "Payment data"
// @Success      200      {object}  model.SendResponse
// @Security     BearerAuth
// @Router       /wallet/send [post]
func (h *WalletHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	user, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	var req model.SendRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	record, err := h.svc.SendPayment(r.Context(), user, req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	// Confirmation runs in the background; the client can follow up on
	// GET /wallet/transactions/{hash}.
	go func(hash string) {
		if _, err := h.svc.Confirm(context.Background(), hash, 0); err != nil {
			h.log.Warn().Err(err).Str("hash", hash).Msg("background confirmation aborted")
		}
	}(record.Hash)

	writeJSON(w, http.StatusOK, model.SendResponse{TransactionHash: record.Hash})
}

// Balance handles GET /wallet/balance
// @Summary      Get account balances
// @Description  Returns the caller's current balances from the ledger network
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.BalanceResponse
// @Security     BearerAuth
// @Router       /wallet/balance [get]
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	user, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	balance, err := h.svc.Balance(r.Context(), user.StellarPublicKey)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// Transactions handles GET /wallet/transactions
// @Summary      Get transaction history
// @Description  Returns the caller's recent ledger transactions, newest first
// @Tags         wallet
// @Produce      json
// @Param        limit  query  int  false  "Maximum records to return (default 10)"
// @Success      200  {array}  client.TransactionRecord
// @Security     BearerAuth
// @Router       /wallet/transactions [get]
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	user, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := h.svc.History(r.Context(), user.StellarPublicKey, limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// TransactionStatus handles GET /wallet/transactions/{hash}
// @Summary      Get submitted transaction status
// @Description  Returns the stored record for a transaction this service submitted, refreshing pending records with a single network lookup
// @Tags         wallet
// @Produce      json
// @Param        hash  path  string  true  "Transaction hash"
// @Success      200  {object}  model.SubmittedTransaction
// @Security     BearerAuth
// @Router       /wallet/transactions/{hash} [get]
func (h *WalletHandler) TransactionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := auth.FromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	hash := strings.TrimPrefix(r.URL.Path, "/wallet/transactions/")
	if hash == "" || strings.Contains(hash, "/") {
		writeError(w, http.StatusBadRequest, errors.New("transaction hash required"))
		return
	}

	record, err := h.store.Transaction(hash)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	if record.Status == model.TxStatusPending {
		// Single lookup, no sleeping. A not-found here leaves the record
		// pending: declaring a timeout is the monitor's call, not an
		// on-demand status check's.
		if status, err := h.svc.RefreshStatus(r.Context(), hash); err == nil && status != model.TxStatusPending {
			if refreshed, err := h.store.Transaction(hash); err == nil {
				record = refreshed
			}
		}
	}

	writeJSON(w, http.StatusOK, record)
}

// Donations handles GET /wallet/donations
// @Summary      List recorded donations
// @Description  Returns inbound donations observed on the central collection account, oldest first, with a native-asset total
// @Tags         wallet
// @Produce      json
// @Param        limit  query  int  false  "Maximum records to return (default all)"
// @Success      200  {object}  model.DonationsResponse
// @Security     BearerAuth
// @Router       /wallet/donations [get]
func (h *WalletHandler) Donations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := auth.FromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	resp, err := h.svc.Donations(limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Provision handles POST /wallet/provision
// @Summary      Retry account funding
// @Description  Re-runs provisioning for the caller's account. Idempotent: an already funded account is reported as funded with no new transaction.
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.ProvisionResponse
// @Security     BearerAuth
// @Router       /wallet/provision [post]
func (h *WalletHandler) Provision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	user, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	resp := model.ProvisionResponse{PublicKey: user.StellarPublicKey}

	funded, err := h.svc.Provision(r.Context(), user.StellarPublicKey)
	if err != nil {
		h.log.Warn().Err(err).Str("account", user.StellarPublicKey).Msg("provisioning retry failed")
		resp.Warning = "account funding failed; it will be retried"
	}
	resp.Funded = funded

	if funded && !user.Funded {
		user.Funded = true
		if err := h.store.UpdateUser(user); err != nil {
			h.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to update funded flag")
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
