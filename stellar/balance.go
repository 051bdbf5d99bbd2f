package stellar

import (
	"context"
	"errors"

	"github.com/fundlift/custody/internal/client"
	"github.com/fundlift/custody/internal/model"
)

// Balance returns the account's current balances from the network.
func (s *Service) Balance(ctx context.Context, publicKey string) (*model.BalanceResponse, error) {
	account, err := s.horizon.LoadAccount(ctx, publicKey)
	if err != nil {
		if errors.Is(err, client.ErrAccountNotFound) {
			return nil, ErrSourceAccountNotFound
		}
		return nil, err
	}
	return &model.BalanceResponse{
		PublicKey: account.PublicKey,
		Balances:  account.Balances,
	}, nil
}

// History returns the account's recent transactions from the network,
// newest first. The ledger is the source of truth; stored records are
// only a cache of what this service submitted and observed.
func (s *Service) History(ctx context.Context, publicKey string, limit int) ([]client.TransactionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	records, err := s.horizon.Transactions(ctx, publicKey, limit)
	if err != nil {
		if errors.Is(err, client.ErrAccountNotFound) {
			return nil, ErrSourceAccountNotFound
		}
		return nil, err
	}
	return records, nil
}

// StoredTransaction returns the durable record of a transaction this
// service submitted.
func (s *Service) StoredTransaction(hash string) (*model.SubmittedTransaction, error) {
	return s.store.Transaction(hash)
}

// StoredTransactionsFor lists this service's records involving an account.
func (s *Service) StoredTransactionsFor(publicKey string, limit int) ([]model.SubmittedTransaction, error) {
	return s.store.TransactionsForAccount(publicKey, limit)
}
