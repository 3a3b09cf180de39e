// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package database

import "fmt"

// Structured sub-documents (attacks, prices, raw_data, ...) are stored as
// JSON text in VARCHAR columns. Queries only ever inspect the types column
// (set-overlap filter); everything else is opaque to SQL and decoded in Go.

const createCardsTable = `
CREATE TABLE IF NOT EXISTS cards (
	id VARCHAR PRIMARY KEY,
	game_id VARCHAR NOT NULL,
	set_id VARCHAR,
	name VARCHAR NOT NULL,
	image_small VARCHAR,
	image_large VARCHAR,
	supertype VARCHAR,
	subtypes VARCHAR,
	types VARCHAR,
	hp INTEGER,
	rarity VARCHAR,
	artist VARCHAR,
	flavor_text VARCHAR,
	number VARCHAR,
	attacks VARCHAR,
	abilities VARCHAR,
	weaknesses VARCHAR,
	resistances VARCHAR,
	retreat_cost INTEGER,
	legalities VARCHAR,
	prices VARCHAR,
	evolves_from VARCHAR,
	evolves_to VARCHAR,
	rarity_tier INTEGER,
	price_usd DOUBLE,
	raw_data VARCHAR,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const createSetsTable = `
CREATE TABLE IF NOT EXISTS sets (
	id VARCHAR PRIMARY KEY,
	game_id VARCHAR NOT NULL,
	name VARCHAR NOT NULL,
	series VARCHAR,
	release_date VARCHAR,
	logo_url VARCHAR,
	symbol_url VARCHAR,
	total INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const createCardSetLinksTable = `
CREATE TABLE IF NOT EXISTS card_set_links (
	card_id VARCHAR NOT NULL,
	set_id VARCHAR NOT NULL,
	PRIMARY KEY (card_id, set_id)
);
`

// schemaIndexes covers the hot query paths: per-game listing, per-game name
// sort, per-set listing and the set side of the junction table.
var schemaIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_cards_game ON cards (game_id)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_game_name ON cards (game_id, name)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_set ON cards (set_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sets_game ON sets (game_id)`,
	`CREATE INDEX IF NOT EXISTS idx_links_set ON card_set_links (set_id)`,
}

// createSchema creates all tables and indexes if they do not exist.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range []string{createCardsTable, createSetsTable, createCardSetLinksTable} {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, stmt := range schemaIndexes {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
