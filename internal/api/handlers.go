// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tcgatlas/tcgatlas/internal/catalog"
	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/database"
	"github.com/tcgatlas/tcgatlas/internal/ingest"
	"github.com/tcgatlas/tcgatlas/internal/models"
)

// Handler implements all HTTP endpoints over the card store and the ingest
// orchestrator.
type Handler struct {
	db      *database.DB
	manager *ingest.Manager
	cfg     *config.Config
}

// NewHandler creates the endpoint handler set.
func NewHandler(db *database.DB, manager *ingest.Manager, cfg *config.Config) *Handler {
	return &Handler{db: db, manager: manager, cfg: cfg}
}

// Health answers liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady answers readiness probes with a storage ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Cards is the card search endpoint. Three modes share it: direct lookup by
// ids, fuzzy name search when q is present, and plain filtered listing.
func (h *Handler) Cards(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r, &h.cfg.API)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	ctx := r.Context()

	if len(req.Filter.IDs) > 0 {
		cards, err := h.db.GetCardsByIDs(ctx, req.Filter.IDs)
		if err != nil {
			respondQueryError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: nonNilCards(cards)})
		return
	}

	var (
		cards []models.Card
		total int
	)
	if req.Query != "" {
		candidates, err := h.db.FuzzySearchCardIDs(ctx, req.Filter.GameID, req.Query, h.cfg.API.FuzzyCandidateLimit)
		if err != nil {
			respondQueryError(w, r, err)
			return
		}
		if len(candidates) == 0 {
			respondJSON(w, http.StatusOK, CardListResponse{
				Data:    []models.Card{},
				Page:    req.Page,
				PerPage: req.PerPage,
			})
			return
		}
		cards, total, err = h.db.SearchCardsRanked(ctx, req.Filter, candidates, req.Page, req.PerPage)
		if err != nil {
			respondQueryError(w, r, err)
			return
		}
	} else {
		cards, total, err = h.db.SearchCards(ctx, req.Filter, req.SortBy, req.SortDir, req.Page, req.PerPage)
		if err != nil {
			respondQueryError(w, r, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, CardListResponse{
		Data:       nonNilCards(cards),
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: totalPages(total, req.PerPage),
	})
}

// CardByID returns one card.
func (h *Handler) CardByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	card, err := h.db.GetCardByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "card not found")
			return
		}
		respondQueryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: card})
}

// CardFilters returns the distinct filter options for a game.
func (h *Handler) CardFilters(w http.ResponseWriter, r *http.Request) {
	game := gameFromQuery(r)

	rarities, supertypes, err := h.db.FilterOptions(r.Context(), game.String())
	if err != nil {
		respondQueryError(w, r, err)
		return
	}
	if rarities == nil {
		rarities = []string{}
	}
	if supertypes == nil {
		supertypes = []string{}
	}
	respondJSON(w, http.StatusOK, FilterOptionsResponse{
		Filters: FilterOptions{Rarities: rarities, Supertypes: supertypes},
	})
}

// Sets lists a game's sets, newest release first.
func (h *Handler) Sets(w http.ResponseWriter, r *http.Request) {
	game := gameFromQuery(r)

	sets, err := h.db.GetSets(r.Context(), game.String())
	if err != nil {
		respondQueryError(w, r, err)
		return
	}
	if sets == nil {
		sets = []models.CardSet{}
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: sets})
}

// SetByID returns one set.
func (h *Handler) SetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	set, err := h.db.GetSetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "set not found")
			return
		}
		respondQueryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: set})
}

// gameFromQuery reads an optional game_id parameter, defaulting like search.
func gameFromQuery(r *http.Request) catalog.GameID {
	return catalog.GameIDOrDefault(strings.TrimSpace(r.URL.Query().Get("game_id")))
}

// nonNilCards keeps empty results encoding as [] instead of null.
func nonNilCards(cards []models.Card) []models.Card {
	if cards == nil {
		return []models.Card{}
	}
	return cards
}
