package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/fundlift/custody/internal/model"
)

// RecordPayment stores an observed inbound payment, keyed by its paging
// token. Returns false when the payment was already recorded, which makes
// replaying a stream segment after a crash harmless.
func (s *Store) RecordPayment(p model.Payment) (bool, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("marshal payment: %w", err)
	}

	recorded := false
	err = s.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixPayment + p.PagingToken)
		_, err := txn.Get(key)
		if err == nil {
			return nil // already seen
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		recorded = true
		return txn.Set(key, data)
	})
	if err != nil {
		return false, fmt.Errorf("badger update: %w", err)
	}
	return recorded, nil
}

// Payments returns recorded inbound payments, oldest first.
func (s *Store) Payments(limit int) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.forEach(prefixPayment, func(_ string, val []byte) error {
		var p model.Payment
		if err := json.Unmarshal(val, &p); err != nil {
			return fmt.Errorf("unmarshal payment: %w", err)
		}
		payments = append(payments, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].ReceivedAt.Before(payments[j].ReceivedAt)
	})
	if limit > 0 && len(payments) > limit {
		payments = payments[len(payments)-limit:]
	}
	return payments, nil
}
