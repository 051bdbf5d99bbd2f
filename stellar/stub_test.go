package stellar

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stellar/go/network"
	"github.com/stretchr/testify/require"

	"github.com/fundlift/custody/internal/client"
	"github.com/fundlift/custody/internal/model"
	"github.com/fundlift/custody/internal/store"
	"github.com/fundlift/custody/internal/vault"
)

// submitOutcome scripts one SubmitXDR call.
type submitOutcome struct {
	result *client.SubmitResult
	err    error
}

// txOutcome scripts one Transaction lookup.
type txOutcome struct {
	record *client.TransactionRecord
	err    error
}

// stubHorizon is a scriptable in-memory network. Zero value behaves like
// an empty ledger: every account and transaction lookup is a not-found.
type stubHorizon struct {
	mu sync.Mutex

	accounts  map[string]*client.Account
	loadCalls int

	baseFee    int64
	baseFeeErr error

	submitQueue []submitOutcome
	submitted   []string

	txQueue []txOutcome
	txCalls int

	records []client.TransactionRecord

	payments    []model.Payment
	paymentsErr error

	streamEvents []model.Payment
	streamErr    error

	fundCalls []string
	fundErr   error
}

func (h *stubHorizon) setAccount(publicKey string, sequence int64, balances ...model.Balance) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.accounts == nil {
		h.accounts = make(map[string]*client.Account)
	}
	h.accounts[publicKey] = &client.Account{
		PublicKey: publicKey,
		Sequence:  sequence,
		Balances:  balances,
	}
}

func (h *stubHorizon) LoadAccount(_ context.Context, accountID string) (*client.Account, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loadCalls++
	acct, ok := h.accounts[accountID]
	if !ok {
		return nil, client.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (h *stubHorizon) BaseFee(context.Context) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.baseFeeErr != nil {
		return 0, h.baseFeeErr
	}
	if h.baseFee == 0 {
		return 100, nil
	}
	return h.baseFee, nil
}

func (h *stubHorizon) SubmitXDR(_ context.Context, envelopeXDR string) (*client.SubmitResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.submitted = append(h.submitted, envelopeXDR)
	if len(h.submitQueue) == 0 {
		return &client.SubmitResult{Hash: "stub-hash", Ledger: 1, Successful: true}, nil
	}
	out := h.submitQueue[0]
	h.submitQueue = h.submitQueue[1:]
	return out.result, out.err
}

func (h *stubHorizon) Transaction(context.Context, string) (*client.TransactionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.txCalls++
	if len(h.txQueue) == 0 {
		return nil, client.ErrTransactionNotFound
	}
	out := h.txQueue[0]
	h.txQueue = h.txQueue[1:]
	return out.record, out.err
}

func (h *stubHorizon) Transactions(_ context.Context, accountID string, _ int) ([]client.TransactionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.accounts[accountID]; !ok {
		return nil, client.ErrAccountNotFound
	}
	return h.records, nil
}

func (h *stubHorizon) Payments(_ context.Context, _ string, cursor string, _ int) ([]model.Payment, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.paymentsErr != nil {
		return nil, h.paymentsErr
	}
	var out []model.Payment
	for _, p := range h.payments {
		if cursor == "" || p.PagingToken > cursor {
			out = append(out, p)
		}
	}
	return out, nil
}

func (h *stubHorizon) StreamPayments(_ context.Context, _ string, cursor string, handler func(model.Payment)) error {
	h.mu.Lock()
	events := h.streamEvents
	streamErr := h.streamErr
	h.mu.Unlock()
	for _, p := range events {
		if cursor == "" || p.PagingToken > cursor {
			handler(p)
		}
	}
	if streamErr == nil {
		streamErr = errors.New("stream closed")
	}
	return streamErr
}

func (h *stubHorizon) Fund(_ context.Context, accountID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fundErr != nil {
		return h.fundErr
	}
	h.fundCalls = append(h.fundCalls, accountID)
	return nil
}

func newTestService(t *testing.T, hz client.Horizon, cfg Config) (*Service, *store.Store, *vault.Vault) {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	v, err := vault.New([]byte("test-master-encryption-key"))
	require.NoError(t, err)

	if cfg.NetworkPassphrase == "" {
		cfg.NetworkPassphrase = network.TestNetworkPassphrase
		cfg.Testnet = true
	}
	return NewService(cfg, hz, v, st, zerolog.Nop()), st, v
}
