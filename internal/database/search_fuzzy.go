// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

/*
search_fuzzy.go - Fuzzy Card Name Search using RapidFuzz Extension

Fuzzy matching produces a ranked candidate id list that the query engine
then filters, re-orders and paginates (SearchCardsRanked). Keeping this step
id-only means the similarity ranking survives arbitrary SQL filtering.

RapidFuzz Functions Used:
  - rapidfuzz_ratio(): overall similarity scoring (0-100)

A substring hit always scores 100 so exact fragments of a name outrank
loose typo matches. When the extension is unavailable the search degrades
to ILIKE substring matching sorted by name.
*/

package database

import (
	"context"
	"fmt"
	"time"
)

// fuzzyMinScore is the minimum rapidfuzz similarity (0-100) for a candidate.
const fuzzyMinScore = 60

// FuzzySearchCardIDs returns up to limit card ids for a game ranked by name
// similarity to query, best match first. An empty result is normal and means
// the search should short-circuit to an empty page.
func (db *DB) FuzzySearchCardIDs(ctx context.Context, gameID, query string, limit int) (_ []string, err error) {
	defer func(start time.Time) { observeQuery("fuzzy_search", start, err) }(time.Now())

	if limit <= 0 {
		limit = 500
	}
	if db.rapidfuzzAvailable {
		return db.fuzzySearchWithRapidFuzz(ctx, gameID, query, limit)
	}
	return db.fuzzySearchFallback(ctx, gameID, query, limit)
}

// fuzzySearchWithRapidFuzz scores every card name in the game and keeps the
// best matches above the threshold.
func (db *DB) fuzzySearchWithRapidFuzz(ctx context.Context, gameID, query string, limit int) ([]string, error) {
	sqlQuery := `
		WITH scored AS (
			SELECT
				id,
				name,
				GREATEST(
					rapidfuzz_ratio(LOWER(name), LOWER(?)),
					CASE WHEN name ILIKE '%' || ? || '%' THEN 100 ELSE 0 END
				)::INTEGER AS score
			FROM cards
			WHERE game_id = ?
		)
		SELECT id
		FROM scored
		WHERE score >= ?
		ORDER BY score DESC, name ASC
		LIMIT ?
	`
	return db.queryIDs(ctx, sqlQuery, query, query, gameID, fuzzyMinScore, limit)
}

// fuzzySearchFallback performs case-insensitive substring matching when the
// rapidfuzz extension is not loaded.
func (db *DB) fuzzySearchFallback(ctx context.Context, gameID, query string, limit int) ([]string, error) {
	sqlQuery := `
		SELECT id
		FROM cards
		WHERE game_id = ?
		  AND name ILIKE '%' || ? || '%'
		ORDER BY name ASC
		LIMIT ?
	`
	return db.queryIDs(ctx, sqlQuery, gameID, query, limit)
}

// queryIDs runs a single-column id query.
func (db *DB) queryIDs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search query failed: %w", err)
	}
	defer closeQuietly(rows)

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan fuzzy search row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fuzzy search iteration failed: %w", err)
	}
	return ids, nil
}
