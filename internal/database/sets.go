// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tcgatlas/tcgatlas/internal/models"
)

const setColumns = `id, game_id, name, series, release_date, logo_url, symbol_url, total`

// GetSets lists all sets for a game, newest release first. Sets without a
// release date sort last.
func (db *DB) GetSets(ctx context.Context, gameID string) (_ []models.CardSet, err error) {
	defer func(start time.Time) { observeQuery("get_sets", start, err) }(time.Now())

	query := fmt.Sprintf(
		`SELECT %s FROM sets WHERE game_id = ? ORDER BY release_date DESC NULLS LAST, name ASC`,
		setColumns)
	rows, err := db.conn.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("set query failed: %w", err)
	}
	defer closeQuietly(rows)

	sets := []models.CardSet{}
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("set iteration failed: %w", err)
	}
	return sets, nil
}

// GetSetByID fetches a single set. Returns ErrNotFound when no row matches.
func (db *DB) GetSetByID(ctx context.Context, id string) (_ *models.CardSet, err error) {
	defer func(start time.Time) { observeQuery("get_set", start, err) }(time.Now())

	query := fmt.Sprintf(`SELECT %s FROM sets WHERE id = ?`, setColumns)
	rows, err := db.conn.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("set lookup failed: %w", err)
	}
	defer closeQuietly(rows)

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("set lookup iteration failed: %w", err)
		}
		return nil, ErrNotFound
	}
	set, err := scanSet(rows)
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// GetSetIDs returns all stored set ids for a game. The MTG ingestion uses
// this to skip sets it has already imported.
func (db *DB) GetSetIDs(ctx context.Context, gameID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id FROM sets WHERE game_id = ?`, gameID)
	if err != nil {
		return nil, fmt.Errorf("set id query failed: %w", err)
	}
	defer closeQuietly(rows)

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan set id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanSet(rows *sql.Rows) (models.CardSet, error) {
	var s models.CardSet
	var series, releaseDate, logoURL, symbolURL sql.NullString
	if err := rows.Scan(&s.ID, &s.GameID, &s.Name, &series, &releaseDate,
		&logoURL, &symbolURL, &s.Total); err != nil {
		return s, fmt.Errorf("failed to scan set row: %w", err)
	}
	s.Series = nullStr(series)
	s.ReleaseDate = nullStr(releaseDate)
	s.LogoURL = nullStr(logoURL)
	s.SymbolURL = nullStr(symbolURL)
	return s, nil
}
