// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/models"
)

// fakeStore is an in-memory Store for exercising sources without a database.
// Individual operations can be made to fail via the fail* fields.
type fakeStore struct {
	mu    sync.Mutex
	cards map[string]models.Card
	sets  map[string]models.CardSet
	links map[models.CardSetLink]bool

	failCards bool
	failSets  bool
	failLinks bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cards: make(map[string]models.Card),
		sets:  make(map[string]models.CardSet),
		links: make(map[models.CardSetLink]bool),
	}
}

func (f *fakeStore) UpsertCards(_ context.Context, cards []models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCards {
		return fmt.Errorf("card upsert failed")
	}
	for _, c := range cards {
		f.cards[c.ID] = c
	}
	return nil
}

func (f *fakeStore) UpsertSets(_ context.Context, sets []models.CardSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSets {
		return fmt.Errorf("set upsert failed")
	}
	for _, s := range sets {
		f.sets[s.ID] = s
	}
	return nil
}

func (f *fakeStore) UpsertCardSetLinks(_ context.Context, links []models.CardSetLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLinks {
		return fmt.Errorf("link upsert failed")
	}
	for _, l := range links {
		f.links[l] = true
	}
	return nil
}

func (f *fakeStore) CountCardsByGame(_ context.Context, gameID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.cards {
		if c.GameID == gameID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetSetIDs(_ context.Context, gameID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, s := range f.sets {
		if s.GameID == gameID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStore) UpdateCardPrices(_ context.Context, id string, prices *models.CardPrices, priceUSD *float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return false, nil
	}
	c.Prices = prices
	c.PriceUSD = priceUSD
	f.cards[id] = c
	return true, nil
}

func (f *fakeStore) card(id string) (models.Card, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	return c, ok
}

func (f *fakeStore) set(id string) (models.CardSet, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sets[id]
	return s, ok
}

func (f *fakeStore) counts() (cards, sets, links int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cards), len(f.sets), len(f.links)
}

// testIngestConfig points every source at baseURL with all delays zeroed.
func testIngestConfig(baseURL string) *config.IngestConfig {
	return &config.IngestConfig{
		CardBatchSize: 500,
		SetBatchSize:  200,
		HTTPTimeout:   5 * time.Second,
		Parallelism:   2,
		Pokemon: config.PokemonIngestConfig{
			DataBaseURL:     baseURL,
			PriceAPIBaseURL: baseURL,
			PricePageSize:   250,
		},
		MTG:      config.MTGIngestConfig{BaseURL: baseURL},
		Yugioh:   config.YugiohIngestConfig{BaseURL: baseURL},
		OnePiece: config.OnePieceIngestConfig{BaseURL: baseURL},
		Gundam:   config.GundamIngestConfig{DataBaseURL: baseURL},
	}
}
