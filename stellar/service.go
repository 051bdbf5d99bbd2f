package stellar

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/fundlift/custody/internal/client"
	"github.com/fundlift/custody/internal/store"
	"github.com/fundlift/custody/internal/vault"
)

// Config carries the network parameters the service needs. The Horizon
// client, vault and store are injected so tests can substitute stubs.
type Config struct {
	NetworkPassphrase string
	Testnet           bool

	// SponsorSecretKey funds new accounts on the public network, where
	// there is no friendbot.
	SponsorSecretKey string
	StartingBalance  string

	// BaseFee is the fee floor in stroops. The network's recommended
	// fee is used when it is higher.
	BaseFee int64

	ConfirmAttempts int
	ConfirmDelay    time.Duration

	// SequenceRetries bounds rebuild-and-resubmit on tx_bad_seq.
	SequenceRetries int
}

// Service is the custodial core. Stateless between requests: account
// sequence numbers and balances are authoritative only on the network and
// are re-fetched immediately before use.
type Service struct {
	cfg     Config
	horizon client.Horizon
	vault   *vault.Vault
	store   *store.Store
	log     zerolog.Logger
}

// NewService wires the custodial core together.
func NewService(cfg Config, hz client.Horizon, v *vault.Vault, st *store.Store, lg zerolog.Logger) *Service {
	if cfg.BaseFee <= 0 {
		cfg.BaseFee = 100
	}
	if cfg.ConfirmAttempts <= 0 {
		cfg.ConfirmAttempts = 10
	}
	if cfg.ConfirmDelay <= 0 {
		cfg.ConfirmDelay = 5 * time.Second
	}
	if cfg.SequenceRetries <= 0 {
		cfg.SequenceRetries = 2
	}
	if cfg.StartingBalance == "" {
		cfg.StartingBalance = "1.5"
	}
	return &Service{
		cfg:     cfg,
		horizon: hz,
		vault:   v,
		store:   st,
		log:     lg,
	}
}
