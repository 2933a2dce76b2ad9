package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cargo-recon/internal/fileio"
	"cargo-recon/internal/reconcile/model"
	"cargo-recon/internal/staging"
)

type createRequest struct {
	Text string `json:"text"`
}

type createResponse struct {
	Session staging.View      `json:"session"`
	Parse   model.ParseResult `json:"parse"`
}

type parseFailure struct {
	Error string            `json:"error"`
	Parse model.ParseResult `json:"parse"`
}

// CreateSession accepts pasted text as JSON {"text": ...} or a spreadsheet
// upload in the multipart field "file".
func CreateSession(mgr *staging.Manager, maxUploadMB int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := zerolog.Ctx(r.Context())

		var (
			text   string
			source = "paste"
		)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(int64(maxUploadMB) << 20); err != nil {
				badRequest(w, "bad multipart form: %v", err)
				return
			}
			f, hdr, err := r.FormFile("file")
			if err != nil {
				badRequest(w, "missing file: %v", err)
				return
			}
			defer f.Close()
			text, err = fileio.ReadText(f, hdr.Filename)
			if err != nil {
				badRequest(w, "failed to read %s: %v", hdr.Filename, err)
				return
			}
			source = hdr.Filename
		} else {
			var req createRequest
			if err := decodeJSON(r, &req); err != nil {
				if statusFor(err) == http.StatusRequestEntityTooLarge {
					writeError(w, r, err)
					return
				}
				badRequest(w, "%v", err)
				return
			}
			text = req.Text
		}

		view, res, err := mgr.Create(r.Context(), text)
		if errors.Is(err, staging.ErrParseFailed) {
			writeJSON(w, http.StatusUnprocessableEntity, parseFailure{Error: res.Error, Parse: res})
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		log.Info().
			Str("session", view.ID).
			Str("source", source).
			Int("items", len(res.Items)).
			Int("warnings", len(res.Warnings)).
			Dur("elapsed", time.Since(start)).
			Msg("staging session created")
		writeJSON(w, http.StatusCreated, createResponse{Session: view, Parse: res})
	}
}

func GetSession(mgr *staging.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := mgr.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

type editRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func EditRow(mgr *staging.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pos, ok := rowParam(r)
		if !ok {
			badRequest(w, "row must be an integer")
			return
		}
		var req editRequest
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, "%v", err)
			return
		}
		if strings.TrimSpace(req.Name) == "" && strings.TrimSpace(req.Phone) == "" {
			badRequest(w, "name or phone is required")
			return
		}
		row, err := mgr.EditRow(r.Context(), chi.URLParam(r, "id"), pos, req.Name, req.Phone)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

type linkRequest struct {
	CustomerID string `json:"customerId"`
}

func LinkRow(mgr *staging.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pos, ok := rowParam(r)
		if !ok {
			badRequest(w, "row must be an integer")
			return
		}
		var req linkRequest
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, "%v", err)
			return
		}
		if req.CustomerID == "" {
			badRequest(w, "customerId is required")
			return
		}
		row, err := mgr.LinkRow(r.Context(), chi.URLParam(r, "id"), pos, req.CustomerID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

func ReviewSession(mgr *staging.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := mgr.Review(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// CommitSession answers 500 when the store rejects the batch; the session
// stays REVIEWED and the call can be repeated.
func CommitSession(mgr *staging.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := mgr.Commit(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func AbandonSession(mgr *staging.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.Abandon(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
