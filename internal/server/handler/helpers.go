// Package handler implements the HTTP API surface over the engine services.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/predictrisk/engine/internal/domain"
)

// writeJSON marshals v and writes it with the given status. A marshal
// failure degrades to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP statuses and sends the
// wrapped message so clients see the human-readable reason.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTxPending):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoWallet):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSignerFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// pathInt extracts an integer path parameter registered with Go 1.22 routing.
func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.PathValue(name))
}

// decodeBody decodes a JSON request body into dst, rejecting unknown fields
// so typos surface as 400s instead of silent zero values.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
