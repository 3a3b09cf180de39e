// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tcgatlas/tcgatlas/internal/catalog"
	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/database"
	"github.com/tcgatlas/tcgatlas/internal/validation"
)

// searchRequest is the parsed and clamped form of a card search query.
// Clamping happens at parse time; the validate tags are a safety net run
// before the request touches storage.
type searchRequest struct {
	Query   string
	Filter  database.CardFilter
	SortBy  string
	SortDir string `validate:"oneof=asc desc"`
	Page    int    `validate:"min=1"`
	PerPage int    `validate:"min=1,max=100"`
}

// parseSearchRequest reads the search parameters from the query string.
// Out-of-range numeric values are clamped rather than rejected, and an
// unknown game id falls back to the default game; parsing itself never fails
// on bad client input.
func parseSearchRequest(r *http.Request, cfg *config.APIConfig) (*searchRequest, error) {
	q := r.URL.Query()

	game := catalog.GameIDOrDefault(strings.TrimSpace(q.Get("game_id")))

	req := &searchRequest{
		Query: strings.TrimSpace(q.Get("q")),
		Filter: database.CardFilter{
			GameID:      game.String(),
			IDs:         parseIDList(q.Get("ids"), cfg.MaxIDs),
			SetID:       strings.TrimSpace(q.Get("set_id")),
			Types:       parseCSV(q.Get("types")),
			Supertype:   strings.TrimSpace(q.Get("supertype")),
			Rarity:      strings.TrimSpace(q.Get("rarity")),
			HPMin:       parseOptionalInt(q.Get("hp_min")),
			HPMax:       parseOptionalInt(q.Get("hp_max")),
			RetreatCost: parseOptionalInt(q.Get("retreat_cost")),
		},
		SortBy:  strings.TrimSpace(q.Get("sort_by")),
		SortDir: strings.ToLower(strings.TrimSpace(q.Get("sort_dir"))),
		Page:    safeInt(q.Get("page"), 1),
		PerPage: safeInt(q.Get("per_page"), cfg.DefaultPageSize),
	}

	if req.SortBy == "" {
		req.SortBy = cfg.DefaultSortBy
	}
	if req.SortDir != "asc" && req.SortDir != "desc" {
		req.SortDir = cfg.DefaultSortDir
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = cfg.DefaultPageSize
	}
	if req.PerPage > cfg.MaxPageSize {
		req.PerPage = cfg.MaxPageSize
	}

	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	return req, nil
}

// safeInt parses a non-negative integer, returning def for missing,
// unparsable or negative values.
func safeInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// parseOptionalInt parses an optional non-negative filter value; anything
// else means "filter absent".
func parseOptionalInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// parseCSV splits a comma-separated parameter, dropping empty entries.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseIDList splits an ids parameter and silently truncates it to max.
func parseIDList(s string, max int) []string {
	ids := parseCSV(s)
	if max > 0 && len(ids) > max {
		ids = ids[:max]
	}
	return ids
}
