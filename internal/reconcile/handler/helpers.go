package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cargo-recon/internal/pricing"
	"cargo-recon/internal/staging"
	"cargo-recon/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// writeError maps domain errors to HTTP statuses. Unmapped errors are logged
// and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf(format, args...)})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, staging.ErrSessionNotFound),
		errors.Is(err, staging.ErrRowNotFound),
		errors.Is(err, staging.ErrCustomerNotFound),
		errors.Is(err, pricing.ErrAdjustmentNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, staging.ErrInvalidTransition),
		errors.Is(err, staging.ErrSessionClosed),
		errors.Is(err, staging.ErrUnmatchedRows):
		return http.StatusConflict
	case errors.Is(err, staging.ErrParseFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pricing.ErrUnknownAdjustmentType),
		errors.Is(err, pricing.ErrInvalidAmount),
		errors.Is(err, pricing.ErrInvalidVolume):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads one JSON object and rejects unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("bad json: %w", err)
	}
	return nil
}

func rowParam(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "row"))
	return n, err == nil
}

// actor names who made a change: the X-User header, else "anonymous".
func actor(r *http.Request, fallback string) string {
	if s := strings.TrimSpace(fallback); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Header.Get("X-User")); s != "" {
		return s
	}
	return "anonymous"
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
