// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package ingest

import (
	"context"
	"fmt"

	"github.com/tcgatlas/tcgatlas/internal/logging"
	"github.com/tcgatlas/tcgatlas/internal/models"
)

// writer persists normalized records in fixed-size chunks. A failed chunk is
// logged and recorded on the summary but does not stop the run; its rows are
// excluded from the written counts.
type writer struct {
	store         Store
	cardBatchSize int
	setBatchSize  int
	summary       *RunSummary
}

func newWriter(store Store, cardBatch, setBatch int, summary *RunSummary) *writer {
	if cardBatch <= 0 {
		cardBatch = 500
	}
	if setBatch <= 0 {
		setBatch = 200
	}
	return &writer{store: store, cardBatchSize: cardBatch, setBatchSize: setBatch, summary: summary}
}

// writeCards upserts cards in chunks and returns how many were written.
func (w *writer) writeCards(ctx context.Context, cards []models.Card) int {
	written := 0
	for start := 0; start < len(cards); start += w.cardBatchSize {
		end := start + w.cardBatchSize
		if end > len(cards) {
			end = len(cards)
		}
		chunk := cards[start:end]
		if err := w.store.UpsertCards(ctx, chunk); err != nil {
			w.recordError(fmt.Errorf("card batch at %d failed: %w", start, err))
			continue
		}
		written += len(chunk)
	}
	w.summary.Cards += written
	return written
}

// writeSets upserts sets in chunks and returns how many were written.
func (w *writer) writeSets(ctx context.Context, sets []models.CardSet) int {
	written := 0
	for start := 0; start < len(sets); start += w.setBatchSize {
		end := start + w.setBatchSize
		if end > len(sets) {
			end = len(sets)
		}
		chunk := sets[start:end]
		if err := w.store.UpsertSets(ctx, chunk); err != nil {
			w.recordError(fmt.Errorf("set batch at %d failed: %w", start, err))
			continue
		}
		written += len(chunk)
	}
	w.summary.Sets += written
	return written
}

// writeLinks upserts card/set links in chunks, deduplicating within each
// chunk, and returns how many were written.
func (w *writer) writeLinks(ctx context.Context, links []models.CardSetLink) int {
	written := 0
	for start := 0; start < len(links); start += w.cardBatchSize {
		end := start + w.cardBatchSize
		if end > len(links) {
			end = len(links)
		}
		chunk := dedupeLinks(links[start:end])
		if err := w.store.UpsertCardSetLinks(ctx, chunk); err != nil {
			w.recordError(fmt.Errorf("set links batch at %d failed: %w", start, err))
			continue
		}
		written += len(chunk)
	}
	w.summary.Links += written
	return written
}

func (w *writer) recordError(err error) {
	logging.Error().Err(err).Str("source", w.summary.Source).Msg("Ingest batch failed")
	w.summary.Errors = append(w.summary.Errors, err.Error())
}

// dedupeLinks removes duplicate (card, set) pairs while preserving order.
func dedupeLinks(links []models.CardSetLink) []models.CardSetLink {
	seen := make(map[models.CardSetLink]struct{}, len(links))
	out := links[:0:0]
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
