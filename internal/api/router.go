package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fundlift/custody/internal/auth"
	"github.com/fundlift/custody/internal/handler"
	"github.com/fundlift/custody/internal/store"
	"github.com/fundlift/custody/internal/vault"
	"github.com/fundlift/custody/stellar"
)

// SetupRouter sets up router with handlers
func SetupRouter(svc *stellar.Service, st *store.Store, v *vault.Vault, lg zerolog.Logger) http.Handler {
	authHandler := handler.NewAuthHandler(svc, st, v, lg)
	walletHandler := handler.NewWalletHandler(svc, st, lg)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Auth endpoints
	mux.HandleFunc("/auth/register", authHandler.Register)
	mux.HandleFunc("/auth/login", authHandler.Login)

	// Wallet endpoints require a bearer token.
	wallet := http.NewServeMux()
	wallet.HandleFunc("/wallet/send", walletHandler.Send)
	wallet.HandleFunc("/wallet/balance", walletHandler.Balance)
	wallet.HandleFunc("/wallet/transactions", walletHandler.Transactions)
	wallet.HandleFunc("/wallet/transactions/", walletHandler.TransactionStatus)
	wallet.HandleFunc("/wallet/donations", walletHandler.Donations)
	wallet.HandleFunc("/wallet/provision", walletHandler.Provision)
	mux.Handle("/wallet/", auth.Middleware(st, lg, wallet))

	return logRequests(lg, mux)
}

func logRequests(lg zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		lg.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	})
}
