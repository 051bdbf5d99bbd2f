package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fundlift/custody/internal/client"
	"github.com/fundlift/custody/internal/model"
	"github.com/fundlift/custody/internal/store"
	"github.com/fundlift/custody/stellar"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := model.ErrorResponse{Error: err.Error()}
	if rej, ok := client.AsRejected(err); ok {
		resp.Code = rej.TransactionCode
	}
	writeJSON(w, status, resp)
}

// statusFor maps service errors onto HTTP statuses following the error
// taxonomy: permanent caller mistakes are 4xx, network trouble is 502,
// everything else is 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, stellar.ErrOnlyStudents):
		return http.StatusForbidden
	case errors.Is(err, stellar.ErrMemoTooLong),
		errors.Is(err, stellar.ErrInvalidAmount),
		errors.Is(err, stellar.ErrInvalidAsset),
		errors.Is(err, stellar.ErrInvalidDestination),
		errors.Is(err, stellar.ErrNoSecretKey),
		errors.Is(err, stellar.ErrSourceAccountNotFound):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrEmailTaken):
		return http.StatusConflict
	default:
		if _, ok := client.AsRejected(err); ok {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}
