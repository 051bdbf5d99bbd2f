package stellar

import (
	"context"
	"errors"
	"fmt"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"

	"github.com/fundlift/custody/internal/client"
)

// Provision ensures the account exists on the network with at least the
// minimum reserve. Test network: friendbot. Public network: a
// CreateAccount operation from the pre-funded sponsor account.
//
// Idempotent: an account that already exists counts as funded and no
// second funding transaction is submitted.
//
// Failure here is non-fatal to registration. Callers persist the user
// regardless, surface a warning, and retry funding later.
func (s *Service) Provision(ctx context.Context, publicKey string) (bool, error) {
	_, err := s.horizon.LoadAccount(ctx, publicKey)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, client.ErrAccountNotFound) {
		return false, err
	}

	if s.cfg.Testnet {
		if err := s.horizon.Fund(ctx, publicKey); err != nil {
			return false, err
		}
		s.log.Info().Str("account", publicKey).Msg("account funded via friendbot")
		return true, nil
	}

	sponsor, err := keypair.ParseFull(s.cfg.SponsorSecretKey)
	if err != nil {
		return false, fmt.Errorf("sponsor account: %w", ErrSigning)
	}

	ops := []txnbuild.Operation{
		&txnbuild.CreateAccount{
			Destination: publicKey,
			Amount:      s.cfg.StartingBalance,
		},
	}
	signed, err := s.buildAndSign(ctx, sponsor, ops, "")
	if err != nil {
		return false, fmt.Errorf("failed to build funding transaction: %w", err)
	}
	if _, err := s.submit(ctx, signed); err != nil {
		return false, fmt.Errorf("failed to fund account: %w", err)
	}

	s.log.Info().
		Str("account", publicKey).
		Str("starting_balance", s.cfg.StartingBalance).
		Msg("account funded by sponsor")
	return true, nil
}
