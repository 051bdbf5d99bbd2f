package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/stellar/go/network"
	"golang.org/x/term"
)

const (
	NetworkTestnet = "testnet"
	NetworkPublic  = "public"
)

// Config contains all configuration parameters for the daemon.
// Note: the master key may be prompted at runtime instead of coming
// from the environment - see PromptForMasterKey.
type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	HorizonURL string `envconfig:"HORIZON_URL" default:"https://horizon-testnet.stellar.org"`
	Network    string `envconfig:"NETWORK" default:"testnet"`

	// MasterKey encrypts student secret keys at rest. Leaving it unset
	// makes the daemon prompt for it interactively at startup.
	MasterKey string `envconfig:"MASTER_KEY"`

	// SponsorSecretKey funds new accounts on the public network. Testnet
	// provisioning goes through friendbot and does not need it.
	SponsorSecretKey string `envconfig:"SPONSOR_SECRET_KEY"`
	StartingBalance  string `envconfig:"STARTING_BALANCE" default:"1.5"`

	// CentralAccount is the collection account watched for inbound
	// donations.
	CentralAccount string `envconfig:"CENTRAL_ACCOUNT"`

	BaseFee          int64 `envconfig:"BASE_FEE" default:"100"`
	ConfirmAttempts  int   `envconfig:"CONFIRM_ATTEMPTS" default:"10"`
	ConfirmDelaySec  int   `envconfig:"CONFIRM_DELAY_SECONDS" default:"5"`
	WatchIntervalSec int   `envconfig:"WATCH_INTERVAL_SECONDS" default:"30"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`
}

// Load reads configuration from CUSTODY_* environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("custody", cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Network != NetworkTestnet && c.Network != NetworkPublic {
		return fmt.Errorf("CUSTODY_NETWORK must be %q or %q, got %q", NetworkTestnet, NetworkPublic, c.Network)
	}
	if c.Network == NetworkPublic && c.SponsorSecretKey == "" {
		return errors.New("CUSTODY_SPONSOR_SECRET_KEY is required on the public network")
	}
	if c.ConfirmAttempts < 1 {
		return errors.New("CUSTODY_CONFIRM_ATTEMPTS must be at least 1")
	}
	return nil
}

// Passphrase returns the network passphrase for the configured network.
func (c *Config) Passphrase() string {
	if c.Network == NetworkPublic {
		return network.PublicNetworkPassphrase
	}
	return network.TestNetworkPassphrase
}

// Testnet reports whether the daemon targets the test network.
func (c *Config) Testnet() bool {
	return c.Network == NetworkTestnet
}

// PromptForMasterKey prompts for the master encryption key in the terminal.
// The key is read without echoing (hidden input). Call this at startup,
// before the server begins handling requests, when CUSTODY_MASTER_KEY is
// not set.
func (c *Config) PromptForMasterKey() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("CUSTODY_MASTER_KEY not set and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Enter master encryption key: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read master key: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("master key cannot be empty")
	}

	c.MasterKey = string(raw)
	clear(raw)
	return nil
}
