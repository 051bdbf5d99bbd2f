package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundlift/custody/internal/api"
	"github.com/fundlift/custody/internal/client"
	"github.com/fundlift/custody/internal/config"
	"github.com/fundlift/custody/internal/log"
	"github.com/fundlift/custody/internal/store"
	"github.com/fundlift/custody/internal/vault"
	"github.com/fundlift/custody/stellar"
)

// @title           Custody API
// @version         1.0
// @description     Custodial Stellar wallet backend for crowdfunding campaigns.
// @BasePath        /
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := log.NewDefault("info")
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	lg := log.New(os.Stderr, cfg.LogLevel, cfg.LogJSON)

	if cfg.MasterKey == "" {
		if err := cfg.PromptForMasterKey(); err != nil {
			lg.Fatal().Err(err).Msg("no master key available")
		}
	}

	v, err := vault.New([]byte(cfg.MasterKey))
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to initialize vault")
	}
	cfg.MasterKey = ""

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		lg.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to open store")
	}
	defer st.Close()

	hz := client.NewHorizon(cfg.HorizonURL, 30*time.Second)

	svc := stellar.NewService(stellar.Config{
		NetworkPassphrase: cfg.Passphrase(),
		Testnet:           cfg.Testnet(),
		SponsorSecretKey:  cfg.SponsorSecretKey,
		StartingBalance:   cfg.StartingBalance,
		BaseFee:           cfg.BaseFee,
		ConfirmAttempts:   cfg.ConfirmAttempts,
		ConfirmDelay:      time.Duration(cfg.ConfirmDelaySec) * time.Second,
	}, hz, v, st, log.WithComponent(lg, "stellar"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if cfg.CentralAccount != "" {
		watcher := stellar.NewWatcher(hz, st, cfg.CentralAccount,
			time.Duration(cfg.WatchIntervalSec)*time.Second,
			log.WithComponent(lg, "watcher"))
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error().Err(err).Msg("watcher stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.SetupRouter(svc, st, v, lg),
	}

	go func() {
		lg.Info().Str("addr", srv.Addr).Str("network", cfg.Network).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
}
