// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tcgatlas/tcgatlas/internal/catalog"
	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/database"
	"github.com/tcgatlas/tcgatlas/internal/ingest"
	"github.com/tcgatlas/tcgatlas/internal/models"
)

// testConfig returns a config suitable for handler tests: rate limiting off,
// small id cap so truncation is observable.
func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			DefaultPageSize:     24,
			MaxPageSize:         100,
			MaxIDs:              100,
			DefaultSortBy:       "name",
			DefaultSortDir:      "asc",
			FuzzyCandidateLimit: 500,
		},
		Security: config.SecurityConfig{
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
	}
}

// testEnv bundles an in-memory store behind the full route tree.
type testEnv struct {
	db     *database.DB
	cfg    *config.Config
	router http.Handler
}

func newTestEnv(t *testing.T, manager *ingest.Manager) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, manager, nil)
}

// newTestEnvWithConfig lets a test adjust the config before the route tree is
// built (middleware reads it at setup time).
func newTestEnvWithConfig(t *testing.T, manager *ingest.Manager, mutate func(*config.Config)) *testEnv {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{
		Path:                   ":memory:",
		MaxMemory:              "512MB",
		Threads:                2,
		PreserveInsertionOrder: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetRapidFuzzAvailableForTesting(false)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	handler := NewHandler(db, manager, cfg)
	return &testEnv{
		db:     db,
		cfg:    cfg,
		router: NewRouter(handler, cfg).Setup(),
	}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) post(t *testing.T, path, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// cardListBody mirrors CardListResponse with concrete card data.
type cardListBody struct {
	Data       []models.Card `json:"data"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	TotalPages int           `json:"total_pages"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func strPtr(s string) *string { return &s }

func seedCatalog(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	sets := []models.CardSet{
		{ID: "base1", GameID: "pokemon", Name: "Base Set", ReleaseDate: strPtr("1999-01-09"), Total: 102},
		{ID: "jungle", GameID: "pokemon", Name: "Jungle", ReleaseDate: strPtr("1999-06-16"), Total: 64},
	}
	if err := db.UpsertSets(ctx, sets); err != nil {
		t.Fatalf("failed to seed sets: %v", err)
	}

	cards := []models.Card{
		{ID: "base1-58", GameID: "pokemon", SetID: strPtr("base1"), Name: "Pikachu",
			Supertype: strPtr("Pokémon"), Rarity: strPtr("Common")},
		{ID: "base1-4", GameID: "pokemon", SetID: strPtr("base1"), Name: "Charizard",
			Supertype: strPtr("Pokémon"), Rarity: strPtr("Rare Holo")},
		{ID: "base1-96", GameID: "pokemon", SetID: strPtr("base1"), Name: "Double Colorless Energy",
			Supertype: strPtr("Energy"), Rarity: strPtr("Uncommon")},
	}
	if err := db.UpsertCards(ctx, cards); err != nil {
		t.Fatalf("failed to seed cards: %v", err)
	}
}

// stubSource is an ingest source returning a fixed summary.
type stubSource struct {
	game    catalog.GameID
	summary *ingest.RunSummary
	err     error
}

func (s *stubSource) Game() catalog.GameID { return s.game }

func (s *stubSource) Run(ctx context.Context) (*ingest.RunSummary, error) {
	return s.summary, s.err
}

// deadlineRecordingSource notes whether its run context carried a deadline.
type deadlineRecordingSource struct {
	game        catalog.GameID
	hadDeadline bool
}

func (s *deadlineRecordingSource) Game() catalog.GameID { return s.game }

func (s *deadlineRecordingSource) Run(ctx context.Context) (*ingest.RunSummary, error) {
	_, s.hadDeadline = ctx.Deadline()
	return &ingest.RunSummary{Source: s.game.String()}, nil
}

// blockingSource holds its run open until released, for conflict tests.
type blockingSource struct {
	game    catalog.GameID
	started chan struct{}
	release chan struct{}
}

func (s *blockingSource) Game() catalog.GameID { return s.game }

func (s *blockingSource) Run(ctx context.Context) (*ingest.RunSummary, error) {
	close(s.started)
	select {
	case <-s.release:
	case <-time.After(5 * time.Second):
	}
	return &ingest.RunSummary{Source: s.game.String()}, nil
}
