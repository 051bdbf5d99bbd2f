package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stellar/go/network"
	"github.com/stretchr/testify/require"

	"github.com/fundlift/custody/internal/client"
	"github.com/fundlift/custody/internal/model"
	"github.com/fundlift/custody/internal/store"
	"github.com/fundlift/custody/internal/vault"
	"github.com/fundlift/custody/stellar"
)

// fakeHorizon is an in-memory ledger: friendbot funding creates accounts
// and every submitted transaction confirms on the next lookup.
type fakeHorizon struct {
	mu        sync.Mutex
	accounts  map[string]int64
	submitted int
}

var _ client.Horizon = (*fakeHorizon)(nil)

func newFakeHorizon() *fakeHorizon {
	return &fakeHorizon{accounts: make(map[string]int64)}
}

func (f *fakeHorizon) LoadAccount(_ context.Context, accountID string) (*client.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, ok := f.accounts[accountID]
	if !ok {
		return nil, client.ErrAccountNotFound
	}
	return &client.Account{
		PublicKey: accountID,
		Sequence:  seq,
		Balances:  []model.Balance{{AssetType: "native", Amount: "10000.0000000"}},
	}, nil
}

func (f *fakeHorizon) BaseFee(context.Context) (int64, error) { return 100, nil }

func (f *fakeHorizon) SubmitXDR(context.Context, string) (*client.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted++
	return &client.SubmitResult{Hash: "fake", Ledger: 1, Successful: true}, nil
}

func (f *fakeHorizon) Transaction(_ context.Context, hash string) (*client.TransactionRecord, error) {
	return &client.TransactionRecord{Hash: hash, Ledger: 1, Successful: true, CreatedAt: time.Now().UTC()}, nil
}

func (f *fakeHorizon) Transactions(_ context.Context, accountID string, _ int) ([]client.TransactionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[accountID]; !ok {
		return nil, client.ErrAccountNotFound
	}
	return []client.TransactionRecord{}, nil
}

func (f *fakeHorizon) Payments(context.Context, string, string, int) ([]model.Payment, error) {
	return nil, nil
}

func (f *fakeHorizon) StreamPayments(ctx context.Context, _ string, _ string, _ func(model.Payment)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeHorizon) Fund(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[accountID] = 1
	return nil
}

func (f *fakeHorizon) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

func newTestServer(t *testing.T) (http.Handler, *fakeHorizon) {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	v, err := vault.New([]byte("test-master-encryption-key"))
	require.NoError(t, err)

	hz := newFakeHorizon()
	svc := stellar.NewService(stellar.Config{
		NetworkPassphrase: network.TestNetworkPassphrase,
		Testnet:           true,
		ConfirmAttempts:   1,
		ConfirmDelay:      time.Millisecond,
	}, hz, v, st, zerolog.Nop())

	return SetupRouter(svc, st, v, zerolog.Nop()), hz
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func register(t *testing.T, h http.Handler, email string) model.RegisterResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", model.RegisterRequest{
		Email:    email,
		Username: "student",
		Password: "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[model.RegisterResponse](t, rec)
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	require := require.New(t)
	h, _ := newTestServer(t)

	resp := register(t, h, "a@example.com")
	require.NotEmpty(resp.Token)
	require.Len(resp.PublicKey, 56)
	require.True(resp.Funded)
	require.NotEmpty(resp.QR)

	// Same email again.
	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", model.RegisterRequest{
		Email: "a@example.com", Username: "other", Password: "pw123456",
	})
	require.Equal(http.StatusConflict, rec.Code)

	// Wrong password.
	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", model.LoginRequest{
		Email: "a@example.com", Password: "wrong",
	})
	require.Equal(http.StatusUnauthorized, rec.Code)

	// Right password.
	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", model.LoginRequest{
		Email: "a@example.com", Password: "hunter22",
	})
	require.Equal(http.StatusOK, rec.Code)
	login := decode[model.LoginResponse](t, rec)
	require.NotEmpty(login.Token)
	require.Equal(resp.PublicKey, login.PublicKey)
}

func TestWalletRequiresToken(t *testing.T) {
	require := require.New(t)
	h, _ := newTestServer(t)

	for _, path := range []string{"/wallet/balance", "/wallet/transactions"} {
		rec := doJSON(t, h, http.MethodGet, path, "", nil)
		require.Equal(http.StatusUnauthorized, rec.Code, path)
	}
	rec := doJSON(t, h, http.MethodPost, "/wallet/send", "bogus-token", model.SendRequest{})
	require.Equal(http.StatusUnauthorized, rec.Code)
}

func TestSendAndTrackPayment(t *testing.T) {
	require := require.New(t)
	h, _ := newTestServer(t)

	sender := register(t, h, "sender@example.com")
	receiver := register(t, h, "receiver@example.com")

	rec := doJSON(t, h, http.MethodPost, "/wallet/send", sender.Token, model.SendRequest{
		DestinationPublicKey: receiver.PublicKey,
		Amount:               "10.0000000",
		Memo:                 "gift",
	})
	require.Equal(http.StatusOK, rec.Code, rec.Body.String())
	sent := decode[model.SendResponse](t, rec)
	require.NotEmpty(sent.TransactionHash)

	// The status endpoint refreshes a pending record with one lookup.
	rec = doJSON(t, h, http.MethodGet, "/wallet/transactions/"+sent.TransactionHash, sender.Token, nil)
	require.Equal(http.StatusOK, rec.Code)
	record := decode[model.SubmittedTransaction](t, rec)
	require.Equal(sent.TransactionHash, record.Hash)
	require.Equal(model.TxStatusSuccessful, record.Status)
	require.Equal("gift", record.Memo)

	rec = doJSON(t, h, http.MethodGet, "/wallet/transactions/unknownhash", sender.Token, nil)
	require.Equal(http.StatusNotFound, rec.Code)
}

func TestSendValidationStatus(t *testing.T) {
	require := require.New(t)
	h, _ := newTestServer(t)

	sender := register(t, h, "sender@example.com")

	rec := doJSON(t, h, http.MethodPost, "/wallet/send", sender.Token, model.SendRequest{
		DestinationPublicKey: "not-an-address",
		Amount:               "1",
	})
	require.Equal(http.StatusBadRequest, rec.Code)
	errResp := decode[model.ErrorResponse](t, rec)
	require.NotEmpty(errResp.Error)
}

func TestBalanceAndProvision(t *testing.T) {
	require := require.New(t)
	h, hz := newTestServer(t)

	user := register(t, h, "a@example.com")

	rec := doJSON(t, h, http.MethodGet, "/wallet/balance", user.Token, nil)
	require.Equal(http.StatusOK, rec.Code)
	balance := decode[model.BalanceResponse](t, rec)
	require.Equal(user.PublicKey, balance.PublicKey)
	require.NotEmpty(balance.Balances)

	// Re-provisioning a live account submits nothing new.
	before := hz.submitCount()
	rec = doJSON(t, h, http.MethodPost, "/wallet/provision", user.Token, nil)
	require.Equal(http.StatusOK, rec.Code)
	prov := decode[model.ProvisionResponse](t, rec)
	require.True(prov.Funded)
	require.Empty(prov.Warning)
	require.Equal(before, hz.submitCount())
}

func TestDonationsEndpoint(t *testing.T) {
	require := require.New(t)
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/wallet/donations", "", nil)
	require.Equal(http.StatusUnauthorized, rec.Code)

	user := register(t, h, "a@example.com")
	rec = doJSON(t, h, http.MethodGet, "/wallet/donations", user.Token, nil)
	require.Equal(http.StatusOK, rec.Code)
	donations := decode[model.DonationsResponse](t, rec)
	require.Zero(donations.Count)
	require.Equal("0.0000000", donations.Total)

	rec = doJSON(t, h, http.MethodGet, "/wallet/donations?limit=-1", user.Token, nil)
	require.Equal(http.StatusBadRequest, rec.Code)
}

func TestTransactionsHistory(t *testing.T) {
	require := require.New(t)
	h, _ := newTestServer(t)

	user := register(t, h, "a@example.com")

	rec := doJSON(t, h, http.MethodGet, "/wallet/transactions", user.Token, nil)
	require.Equal(http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/wallet/transactions?limit=0", user.Token, nil)
	require.Equal(http.StatusBadRequest, rec.Code)
}
