// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tcgatlas/tcgatlas/internal/ingest"
	"github.com/tcgatlas/tcgatlas/internal/logging"
)

// authorizeIngest checks the shared-secret bearer token. An unset secret
// disables the trigger endpoints entirely rather than leaving them open.
func (h *Handler) authorizeIngest(w http.ResponseWriter, r *http.Request) bool {
	secret := h.cfg.Security.IngestSecret
	if secret == "" {
		respondError(w, http.StatusForbidden, ErrCodeForbidden, "ingest triggers are disabled")
		return false
	}

	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		logging.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("Ingest trigger rejected")
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or missing bearer token")
		return false
	}
	return true
}

// IngestSource triggers one source's ingest run and waits for its summary.
func (h *Handler) IngestSource(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeIngest(w, r) {
		return
	}

	source := chi.URLParam(r, "source")
	summary, err := h.manager.Run(r.Context(), source)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnknownSource):
			respondError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case errors.Is(err, ingest.ErrRunInProgress):
			respondError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			// Run-level failures carry upstream context, which is safe and
			// useful for the operator triggering the run.
			respondError(w, http.StatusBadGateway, ErrCodeIngestFailed, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: summary})
}

// IngestAll triggers every source with bounded parallelism. Per-source
// failures surface inside the summaries, never as an HTTP error.
func (h *Handler) IngestAll(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeIngest(w, r) {
		return
	}
	summaries := h.manager.RunAll(r.Context())
	respondJSON(w, http.StatusOK, DataResponse{Data: summaries})
}

// IngestPokemonPrices triggers the price-only refresh pass.
func (h *Handler) IngestPokemonPrices(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeIngest(w, r) {
		return
	}

	summary, err := h.manager.RunPokemonPrices(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnknownSource):
			respondError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case errors.Is(err, ingest.ErrRunInProgress):
			respondError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			respondError(w, http.StatusBadGateway, ErrCodeIngestFailed, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: summary})
}
