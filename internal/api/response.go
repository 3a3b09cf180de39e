// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

// Package api provides the HTTP surface of the catalog: card search and
// lookup, set listings, filter-option discovery and the authenticated ingest
// triggers. Responses use fixed envelope shapes; storage errors are never
// echoed to clients.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tcgatlas/tcgatlas/internal/logging"
)

// CardListResponse is the paginated search envelope.
type CardListResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

// DataResponse wraps single objects and unpaginated lists.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// FilterOptionsResponse carries the distinct filter values for one game.
type FilterOptionsResponse struct {
	Filters FilterOptions `json:"filters"`
}

// FilterOptions lists the non-null rarities and supertypes present in a game.
type FilterOptions struct {
	Rarities   []string `json:"rarities"`
	Supertypes []string `json:"supertypes"`
}

// ErrorResponse is the stable error envelope for all failures.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody holds a machine-readable code and a human-readable message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for API responses
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeQueryFailed   = "QUERY_FAILED"
	ErrCodeIngestFailed  = "INGEST_FAILED"
)

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError writes the stable error envelope.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// respondQueryError logs the underlying storage error with the request id and
// answers with a generic message. Raw storage errors never reach clients.
func respondQueryError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).
		Str("path", r.URL.Path).Msg("Query failed")
	respondError(w, http.StatusInternalServerError, ErrCodeQueryFailed, "query failed")
}

// totalPages computes the page count for a result set; zero results means
// zero pages.
func totalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
