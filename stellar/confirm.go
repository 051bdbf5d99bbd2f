package stellar

import (
	"context"
	"errors"
	"time"

	"github.com/fundlift/custody/internal/client"
	"github.com/fundlift/custody/internal/model"
	"github.com/fundlift/custody/internal/store"
)

// Confirm polls the network for a previously submitted transaction until
// it becomes visible or the attempt budget runs out. A not-found response
// means "not yet visible" - ledger close is asynchronous - so it costs an
// attempt and the poll continues.
//
// Exhausting the budget yields NotFoundAfterRetries, which is distinct
// from Failed: the transaction may still land, and the record is left for
// manual reconciliation rather than being declared dead.
//
// attempts <= 0 uses the configured budget. The stored record's status is
// advanced monotonically; a record already terminal is left untouched.
func (s *Service) Confirm(ctx context.Context, hash string, attempts int) (model.TxStatus, error) {
	if attempts <= 0 {
		attempts = s.cfg.ConfirmAttempts
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return model.TxStatusPending, ctx.Err()
			case <-time.After(s.cfg.ConfirmDelay):
			}
		}

		record, err := s.horizon.Transaction(ctx, hash)
		if err != nil {
			if !errors.Is(err, client.ErrTransactionNotFound) {
				s.log.Warn().Err(err).Str("hash", hash).Int("attempt", attempt+1).
					Msg("transaction status check failed")
			}
			continue
		}

		return s.settle(hash, record), nil
	}

	s.log.Warn().Str("hash", hash).Int("attempts", attempts).
		Msg("transaction not confirmed within attempt budget; needs manual reconciliation")
	s.advanceStatus(hash, model.TxStatusNotFoundAfterRetries, "", 0, time.Time{})
	return model.TxStatusNotFoundAfterRetries, nil
}

// RefreshStatus is the on-demand, single-lookup variant used by the status
// endpoint. A not-found response leaves the stored record pending: the
// transaction may simply not have closed yet, and only the monitor's full
// attempt budget is allowed to conclude NotFoundAfterRetries.
func (s *Service) RefreshStatus(ctx context.Context, hash string) (model.TxStatus, error) {
	record, err := s.horizon.Transaction(ctx, hash)
	if err != nil {
		if errors.Is(err, client.ErrTransactionNotFound) {
			return model.TxStatusPending, nil
		}
		return model.TxStatusPending, err
	}
	return s.settle(hash, record), nil
}

// settle maps a transaction found on the network onto a terminal stored
// status. Failed transactions keep the network's result for audit.
func (s *Service) settle(hash string, record *client.TransactionRecord) model.TxStatus {
	status := model.TxStatusSuccessful
	resultCode := ""
	if !record.Successful {
		status = model.TxStatusFailed
		resultCode = record.ResultXdr
	}
	confirmedAt := record.CreatedAt
	if confirmedAt.IsZero() {
		confirmedAt = time.Now().UTC()
	}
	s.advanceStatus(hash, status, resultCode, record.Ledger, confirmedAt)
	return status
}

func (s *Service) advanceStatus(hash string, status model.TxStatus, resultCode string, ledger int32, confirmedAt time.Time) {
	var ledgerPtr *int32
	if ledger != 0 {
		ledgerPtr = &ledger
	}
	var confirmedPtr *time.Time
	if !confirmedAt.IsZero() {
		confirmedPtr = &confirmedAt
	}

	err := s.store.SetTransactionStatus(hash, status, resultCode, ledgerPtr, confirmedPtr)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrTerminalStatus):
		// Already settled by a concurrent poll; the first terminal status wins.
	case errors.Is(err, store.ErrNotFound):
		// Hash not tracked by this service; nothing to advance.
	default:
		s.log.Error().Err(err).Str("hash", hash).Msg("failed to update transaction status")
	}
}
