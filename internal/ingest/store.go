// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

// Package ingest fetches card data from the upstream per-game sources,
// normalizes it into the shared catalog schema and writes it to storage in
// batches. Each game has one Source implementation; the Manager runs them on
// demand, serially per source and optionally in parallel across sources.
//
// Error policy: a run keeps going. A failed set, page or chunk is logged,
// recorded in the run summary and excluded from the counts; only a failure
// to reach the source's primary listing aborts the run.
package ingest

import (
	"context"

	"github.com/tcgatlas/tcgatlas/internal/models"
)

// Store is the persistence surface the ingestion pipeline needs. Implemented
// by *database.DB; tests substitute an in-memory fake.
type Store interface {
	UpsertCards(ctx context.Context, cards []models.Card) error
	UpsertSets(ctx context.Context, sets []models.CardSet) error
	UpsertCardSetLinks(ctx context.Context, links []models.CardSetLink) error
	CountCardsByGame(ctx context.Context, gameID string) (int, error)
	GetSetIDs(ctx context.Context, gameID string) ([]string, error)
	UpdateCardPrices(ctx context.Context, id string, prices *models.CardPrices, priceUSD *float64) (bool, error)
}
