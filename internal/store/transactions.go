package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/fundlift/custody/internal/model"
)

// ErrTerminalStatus is returned on an attempt to transition a transaction
// out of a terminal status. Status transitions are monotonic.
var ErrTerminalStatus = errors.New("transaction already in a terminal status")

// PutTransaction stores a freshly submitted transaction and indexes it for
// both the source and destination accounts.
func (s *Store) PutTransaction(tx *model.SubmittedTransaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixTx+tx.Hash), data); err != nil {
			return err
		}
		hash := []byte(tx.Hash)
		if err := txn.Set([]byte(prefixTxAcct+tx.SourcePublicKey+"/"+tx.Hash), hash); err != nil {
			return err
		}
		return txn.Set([]byte(prefixTxAcct+tx.DestinationPublicKey+"/"+tx.Hash), hash)
	})
	if err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

// Transaction returns a stored transaction by hash.
func (s *Store) Transaction(hash string) (*model.SubmittedTransaction, error) {
	data, err := s.get(prefixTx + hash)
	if err != nil {
		return nil, err
	}
	var tx model.SubmittedTransaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}
	return &tx, nil
}

// SetTransactionStatus advances a transaction's status. The read and write
// happen in one Badger transaction so concurrent updaters cannot undo a
// terminal status.
func (s *Store) SetTransactionStatus(hash string, status model.TxStatus, resultCode string, ledger *int32, confirmedAt *time.Time) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixTx + hash))
		if err != nil {
			return err
		}
		var tx model.SubmittedTransaction
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &tx)
		}); err != nil {
			return err
		}

		if tx.Status.Terminal() {
			if tx.Status == status {
				return nil
			}
			return ErrTerminalStatus
		}

		tx.Status = status
		if resultCode != "" {
			tx.ResultCode = resultCode
		}
		if ledger != nil {
			tx.LedgerSequence = ledger
		}
		if confirmedAt != nil {
			tx.ConfirmedAt = confirmedAt
		}

		data, err := json.Marshal(&tx)
		if err != nil {
			return err
		}
		return txn.Set([]byte(prefixTx+hash), data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil && !errors.Is(err, ErrTerminalStatus) {
		return fmt.Errorf("badger update: %w", err)
	}
	return err
}

// TransactionsForAccount returns stored transactions where the account is
// the source or the destination, newest first.
func (s *Store) TransactionsForAccount(account string, limit int) ([]model.SubmittedTransaction, error) {
	var hashes []string
	err := s.forEach(prefixTxAcct+account+"/", func(_ string, val []byte) error {
		hashes = append(hashes, string(val))
		return nil
	})
	if err != nil {
		return nil, err
	}

	txs := make([]model.SubmittedTransaction, 0, len(hashes))
	for _, h := range hashes {
		tx, err := s.Transaction(h)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		txs = append(txs, *tx)
	}

	// Newest first.
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].SubmittedAt.After(txs[j].SubmittedAt)
	})
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}
