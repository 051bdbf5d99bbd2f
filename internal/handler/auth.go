package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fundlift/custody/internal/auth"
	"github.com/fundlift/custody/internal/model"
	"github.com/fundlift/custody/internal/store"
	"github.com/fundlift/custody/internal/vault"
	"github.com/fundlift/custody/stellar"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	svc   *stellar.Service
	store *store.Store
	vault *vault.Vault
	log   zerolog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *stellar.Service, st *store.Store, v *vault.Vault, lg zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, store: st, vault: v, log: lg}
}

// Register handles POST /auth/register
// @Summary      Register a new user
// @Description  Creates a user with a custodial Stellar keypair and attempts to fund the account. Funding failure does not abort registration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.RegisterRequest  true  "Registration data"
// @Success      200      {object}  model.RegisterResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, errors.New("email, username and password are required"))
		return
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("role must be admin, donor or student"))
		return
	}

	passwordHash, err := auth.HashPassword([]byte(req.Password))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	keys, err := stellar.GenerateKeypair()
	if err != nil {
		h.log.Error().Err(err).Msg("keypair generation failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	encryptedSeed, err := h.vault.EncryptString(keys.SecretKey)
	if err != nil {
		h.log.Error().Err(err).Msg("secret key encryption failed")
		writeError(w, http.StatusInternalServerError, errors.New("failed to secure account keys"))
		return
	}

	user := &model.User{
		ID:                        uuid.NewString(),
		Email:                     req.Email,
		Username:                  req.Username,
		PasswordHash:              passwordHash,
		Role:                      req.Role,
		CreatedAt:                 time.Now().UTC(),
		StellarPublicKey:          keys.PublicKey,
		StellarSecretKeyEncrypted: encryptedSeed,
	}

	if err := h.store.CreateUser(user); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	// Funding failure is downgraded to a warning: the user record with
	// its keys is already persisted, and funding can be retried later.
	funded, err := h.svc.Provision(r.Context(), keys.PublicKey)
	if err != nil {
		h.log.Warn().Err(err).Str("account", keys.PublicKey).
			Msg("failed to fund new account; registration continues")
	}
	if funded {
		user.Funded = true
		if err := h.store.UpdateUser(user); err != nil {
			h.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to update funded flag")
		}
	}

	token := auth.NewToken()
	if err := h.store.PutToken(token, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	qr, err := stellar.ReceiveQR(keys.PublicKey)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to render receive QR")
	}

	writeJSON(w, http.StatusOK, model.RegisterResponse{
		Token:     token,
		PublicKey: keys.PublicKey,
		QR:        qr,
		Funded:    funded,
	})
}

// Login handles POST /auth/login
// @Summary      Log in
// @Description  Verifies credentials and issues a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.LoginRequest  true  "Credentials"
// @Success      200      {object}  model.LoginResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := h.store.UserByEmail(req.Email)
	if err != nil || !auth.VerifyPassword(user.PasswordHash, []byte(req.Password)) {
		// One message for both cases: do not reveal which part failed.
		writeError(w, http.StatusUnauthorized, errors.New("invalid email or password"))
		return
	}

	token := auth.NewToken()
	if err := h.store.PutToken(token, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{
		Token:     token,
		PublicKey: user.StellarPublicKey,
	})
}
