package stellar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"

	"github.com/fundlift/custody/internal/client"
	"github.com/fundlift/custody/internal/common"
	"github.com/fundlift/custody/internal/model"
)

const (
	// maxTextMemoBytes is the ledger's limit for text memos.
	maxTextMemoBytes = 28

	// txTimeoutSeconds bounds how long a signed envelope stays valid.
	txTimeoutSeconds = 30
)

// signedTransaction is a built and signed envelope ready for submission.
// The hash exists only after a successful build+sign.
type signedTransaction struct {
	Hash        string
	EnvelopeXDR string
	Sequence    int64
	Fee         int64
}

// SendPayment signs and submits a payment from the user's custodial
// account. The encrypted secret key is borrowed from the user record,
// decrypted only for the signing step, and wiped afterwards.
//
// Concurrent sends from the same source race on the sequence number; the
// network accepts at most one transaction per sequence value. A
// bad-sequence rejection is retried with a freshly fetched sequence, a
// bounded number of times, before failing.
func (s *Service) SendPayment(ctx context.Context, user *model.User, req model.SendRequest) (*model.SubmittedTransaction, error) {
	if user.Role != model.RoleStudent {
		return nil, ErrOnlyStudents
	}
	if user.StellarSecretKeyEncrypted == "" {
		return nil, ErrNoSecretKey
	}
	if err := validateSendRequest(req); err != nil {
		return nil, err
	}

	asset, err := paymentAsset(req.AssetCode, req.AssetIssuer)
	if err != nil {
		return nil, err
	}

	seed, err := s.vault.Decrypt(user.StellarSecretKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to access stored secret key: %w", err)
	}
	defer clear(seed)

	source, err := keypair.ParseFull(string(seed))
	if err != nil {
		return nil, ErrSigning
	}
	if source.Address() != user.StellarPublicKey {
		return nil, ErrKeyMismatch
	}

	ops := []txnbuild.Operation{
		&txnbuild.Payment{
			Destination: req.DestinationPublicKey,
			Amount:      req.Amount,
			Asset:       asset,
		},
	}

	for attempt := 0; ; attempt++ {
		signed, err := s.buildAndSign(ctx, source, ops, req.Memo)
		if err != nil {
			return nil, err
		}

		result, err := s.submit(ctx, signed)
		if rej, ok := client.AsRejected(err); ok {
			if rej.BadSequence() && attempt < s.cfg.SequenceRetries {
				s.log.Warn().
					Str("source", user.StellarPublicKey).
					Int("attempt", attempt+1).
					Msg("sequence conflict, rebuilding with fresh sequence")
				continue
			}
			// Validation rejection is permanent. Record it for audit;
			// the hash identifies the envelope that was refused.
			s.persist(signed, user.StellarPublicKey, req, model.TxStatusFailed, rej.TransactionCode)
			return nil, err
		}
		if err != nil {
			// Transient: nothing was committed, nothing is persisted,
			// the caller may retry and a fresh sequence will be used.
			return nil, err
		}

		record := s.persist(signed, user.StellarPublicKey, req, model.TxStatusPending, "")
		s.log.Info().
			Str("hash", result.Hash).
			Str("source", user.StellarPublicKey).
			Str("destination", req.DestinationPublicKey).
			Str("amount", req.Amount).
			Msg("payment submitted")
		return record, nil
	}
}

func validateSendRequest(req model.SendRequest) error {
	if _, err := keypair.ParseAddress(req.DestinationPublicKey); err != nil {
		return ErrInvalidDestination
	}
	if err := common.ValidatePaymentAmount(req.Amount); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, req.Amount)
	}
	if len(req.Memo) > maxTextMemoBytes {
		return ErrMemoTooLong
	}
	return nil
}

func paymentAsset(code, issuer string) (txnbuild.Asset, error) {
	if code == "" || code == "XLM" {
		return txnbuild.NativeAsset{}, nil
	}
	if issuer == "" {
		return nil, ErrInvalidAsset
	}
	return txnbuild.CreditAsset{Code: code, Issuer: issuer}, nil
}

// buildAndSign assembles and signs a transaction for the source account.
// The sequence number is the value on the network at call time, never a
// cached one, and the fee is the network's current recommendation bounded
// below by the configured floor.
func (s *Service) buildAndSign(ctx context.Context, source *keypair.Full, ops []txnbuild.Operation, memoText string) (*signedTransaction, error) {
	account, err := s.horizon.LoadAccount(ctx, source.Address())
	if err != nil {
		if errors.Is(err, client.ErrAccountNotFound) {
			return nil, ErrSourceAccountNotFound
		}
		return nil, err
	}

	fee, err := s.horizon.BaseFee(ctx)
	if err != nil {
		return nil, err
	}
	if fee < s.cfg.BaseFee {
		fee = s.cfg.BaseFee
	}

	sourceAccount := txnbuild.NewSimpleAccount(account.PublicKey, account.Sequence)
	params := txnbuild.TransactionParams{
		SourceAccount:        &sourceAccount,
		IncrementSequenceNum: true,
		Operations:           ops,
		BaseFee:              fee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(txTimeoutSeconds),
		},
	}
	if memoText != "" {
		params.Memo = txnbuild.MemoText(memoText)
	}

	tx, err := txnbuild.NewTransaction(params)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	tx, err = tx.Sign(s.cfg.NetworkPassphrase, source)
	if err != nil {
		// Do not wrap the SDK error: it could echo key material.
		return nil, ErrSigning
	}

	hash, err := tx.HashHex(s.cfg.NetworkPassphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to hash transaction: %w", err)
	}
	envelope, err := tx.Base64()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	return &signedTransaction{
		Hash:        hash,
		EnvelopeXDR: envelope,
		Sequence:    account.Sequence + 1,
		Fee:         fee,
	}, nil
}

func (s *Service) persist(signed *signedTransaction, source string, req model.SendRequest, status model.TxStatus, resultCode string) *model.SubmittedTransaction {
	assetCode := req.AssetCode
	if assetCode == "" {
		assetCode = "XLM"
	}
	record := &model.SubmittedTransaction{
		Hash:                 signed.Hash,
		SourcePublicKey:      source,
		DestinationPublicKey: req.DestinationPublicKey,
		Amount:               req.Amount,
		AssetCode:            assetCode,
		Memo:                 req.Memo,
		Status:               status,
		ResultCode:           resultCode,
		SubmittedAt:          time.Now().UTC(),
	}
	if err := s.store.PutTransaction(record); err != nil {
		s.log.Error().Err(err).Str("hash", signed.Hash).Msg("failed to persist transaction record")
	}
	return record
}
