// Package client wraps the Horizon API behind a narrow interface so the
// domain layer can be tested against a stub network.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/operations"

	"github.com/fundlift/custody/internal/model"
)

// Account is the slice of ledger account state the service needs. The
// sequence number is authoritative only on the network; callers must
// re-fetch it immediately before building a transaction.
type Account struct {
	PublicKey string
	Sequence  int64
	Balances  []model.Balance
}

// SubmitResult is the synchronous outcome of a transaction submission.
type SubmitResult struct {
	Hash       string
	Ledger     int32
	Successful bool
}

// TransactionRecord is a transaction as seen by the network. ResultXdr
// carries the network's verdict and is only of interest on failure.
type TransactionRecord struct {
	Hash       string    `json:"hash"`
	Ledger     int32     `json:"ledger"`
	Successful bool      `json:"successful"`
	Memo       string    `json:"memo,omitempty"`
	ResultXdr  string    `json:"resultXdr,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

var (
	// ErrAccountNotFound means the account does not exist on the
	// network, typically because it was never funded.
	ErrAccountNotFound = errors.New("account not found on the network")

	// ErrTransactionNotFound means the transaction is not (yet) visible.
	// During confirmation polling this is "not yet", not "failed".
	ErrTransactionNotFound = errors.New("transaction not found on the network")
)

// RejectedError is a validation rejection from the network: bad sequence,
// bad signature, underfunded source. Permanent - retrying the identical
// envelope cannot succeed. A bad-sequence rejection specifically signals
// the caller to rebuild with a freshly fetched sequence number.
type RejectedError struct {
	TransactionCode string
	OperationCodes  []string
}

func (e *RejectedError) Error() string {
	if len(e.OperationCodes) > 0 {
		return fmt.Sprintf("transaction rejected: %s %v", e.TransactionCode, e.OperationCodes)
	}
	return fmt.Sprintf("transaction rejected: %s", e.TransactionCode)
}

// BadSequence reports whether the rejection was a stale sequence number.
func (e *RejectedError) BadSequence() bool {
	return e.TransactionCode == "tx_bad_seq"
}

// AsRejected extracts a RejectedError, if err is one. Any other submission
// error is transient (timeout, connection): nothing was committed and a
// retry with a fresh sequence number is safe.
func AsRejected(err error) (*RejectedError, bool) {
	var rej *RejectedError
	ok := errors.As(err, &rej)
	return rej, ok
}

// Horizon is the ledger network surface used by the service. All methods
// take a context; implementations must not block past its cancellation.
type Horizon interface {
	// LoadAccount fetches current account state, including the sequence number.
	LoadAccount(ctx context.Context, accountID string) (*Account, error)
	// BaseFee returns the network's current recommended base fee in stroops.
	BaseFee(ctx context.Context) (int64, error)
	// SubmitXDR submits a signed base64 transaction envelope.
	SubmitXDR(ctx context.Context, envelopeXDR string) (*SubmitResult, error)
	// Transaction looks up a transaction by hash.
	Transaction(ctx context.Context, hash string) (*TransactionRecord, error)
	// Transactions returns the most recent transactions of an account.
	Transactions(ctx context.Context, accountID string, limit int) ([]TransactionRecord, error)
	// Payments returns payment operations for an account after the cursor,
	// in ascending order.
	Payments(ctx context.Context, accountID, cursor string, limit int) ([]model.Payment, error)
	// StreamPayments streams payment operations for an account from the
	// cursor until the context is cancelled or the stream breaks.
	StreamPayments(ctx context.Context, accountID, cursor string, handler func(model.Payment)) error
	// Fund asks friendbot to fund a new account. Test network only.
	Fund(ctx context.Context, accountID string) error
}

// HorizonClient implements Horizon against a real Horizon server.
type HorizonClient struct {
	hz *horizonclient.Client
}

// NewHorizon creates a client for the given Horizon URL.
func NewHorizon(horizonURL string, timeout time.Duration) *HorizonClient {
	return &HorizonClient{
		hz: &horizonclient.Client{
			HorizonURL: horizonURL,
			HTTP:       &http.Client{Timeout: timeout},
		},
	}
}

// The underlying horizonclient bounds unary calls with its HTTP client
// timeout rather than a caller context; ctx is honored where the SDK
// supports it (streaming) and kept on the rest for interface symmetry.

func (c *HorizonClient) LoadAccount(ctx context.Context, accountID string) (*Account, error) {
	acct, err := c.hz.AccountDetail(horizonclient.AccountRequest{AccountID: accountID})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	balances := make([]model.Balance, 0, len(acct.Balances))
	for _, b := range acct.Balances {
		balances = append(balances, model.Balance{
			AssetType: b.Asset.Type,
			AssetCode: b.Asset.Code,
			Amount:    b.Balance,
		})
	}

	return &Account{
		PublicKey: acct.AccountID,
		Sequence:  acct.Sequence,
		Balances:  balances,
	}, nil
}

func (c *HorizonClient) BaseFee(ctx context.Context) (int64, error) {
	stats, err := c.hz.FeeStats()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch fee stats: %w", err)
	}
	return stats.LastLedgerBaseFee, nil
}

func (c *HorizonClient) SubmitXDR(ctx context.Context, envelopeXDR string) (*SubmitResult, error) {
	resp, err := c.hz.SubmitTransactionXDR(envelopeXDR)
	if err != nil {
		if herr := horizonclient.GetError(err); herr != nil {
			if codes, cerr := herr.ResultCodes(); cerr == nil && codes != nil {
				return nil, &RejectedError{
					TransactionCode: codes.TransactionCode,
					OperationCodes:  codes.OperationCodes,
				}
			}
		}
		return nil, fmt.Errorf("failed to submit transaction: %w", err)
	}
	return &SubmitResult{
		Hash:       resp.Hash,
		Ledger:     resp.Ledger,
		Successful: resp.Successful,
	}, nil
}

func (c *HorizonClient) Transaction(ctx context.Context, hash string) (*TransactionRecord, error) {
	tx, err := c.hz.TransactionDetail(hash)
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to look up transaction: %w", err)
	}
	rec := txRecord(tx)
	return &rec, nil
}

func (c *HorizonClient) Transactions(ctx context.Context, accountID string, limit int) ([]TransactionRecord, error) {
	page, err := c.hz.Transactions(horizonclient.TransactionRequest{
		ForAccount: accountID,
		Limit:      uint(limit),
		Order:      horizonclient.OrderDesc,
	})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	records := make([]TransactionRecord, 0, len(page.Embedded.Records))
	for _, tx := range page.Embedded.Records {
		records = append(records, txRecord(tx))
	}
	return records, nil
}

func (c *HorizonClient) Payments(ctx context.Context, accountID, cursor string, limit int) ([]model.Payment, error) {
	page, err := c.hz.Payments(horizonclient.OperationRequest{
		ForAccount: accountID,
		Cursor:     cursor,
		Limit:      uint(limit),
		Order:      horizonclient.OrderAsc,
	})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}

	payments := make([]model.Payment, 0, len(page.Embedded.Records))
	for _, record := range page.Embedded.Records {
		if p, ok := asPayment(record); ok {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

func (c *HorizonClient) StreamPayments(ctx context.Context, accountID, cursor string, handler func(model.Payment)) error {
	req := horizonclient.OperationRequest{
		ForAccount: accountID,
		Cursor:     cursor,
	}
	return c.hz.StreamPayments(ctx, req, func(op operations.Operation) {
		if p, ok := asPayment(op); ok {
			handler(p)
		}
	})
}

func (c *HorizonClient) Fund(ctx context.Context, accountID string) error {
	if _, err := c.hz.Fund(accountID); err != nil {
		return fmt.Errorf("friendbot funding failed: %w", err)
	}
	return nil
}

func txRecord(tx hProtocol.Transaction) TransactionRecord {
	return TransactionRecord{
		Hash:       tx.Hash,
		Ledger:     tx.Ledger,
		Successful: tx.Successful,
		Memo:       tx.Memo,
		ResultXdr:  tx.ResultXdr,
		CreatedAt:  tx.LedgerCloseTime,
	}
}

// asPayment maps payment-shaped operations to the model type. Account
// creation counts too: the starting balance is an inbound transfer.
func asPayment(op operations.Operation) (model.Payment, bool) {
	switch p := op.(type) {
	case operations.Payment:
		return model.Payment{
			ID:              p.ID,
			PagingToken:     p.PT,
			From:            p.From,
			To:              p.To,
			Amount:          p.Amount,
			AssetType:       p.Asset.Type,
			AssetCode:       p.Asset.Code,
			TransactionHash: p.TransactionHash,
			ReceivedAt:      p.LedgerCloseTime,
		}, true
	case operations.CreateAccount:
		return model.Payment{
			ID:              p.ID,
			PagingToken:     p.PT,
			From:            p.Funder,
			To:              p.Account,
			Amount:          p.StartingBalance,
			AssetType:       "native",
			TransactionHash: p.TransactionHash,
			ReceivedAt:      p.LedgerCloseTime,
		}, true
	default:
		return model.Payment{}, false
	}
}
