// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tcgatlas/tcgatlas/internal/models"
)

const upsertCardSQL = `
INSERT INTO cards (
	id, game_id, set_id, name, image_small, image_large, supertype,
	subtypes, types, hp, rarity, artist, flavor_text, number,
	attacks, abilities, weaknesses, resistances, retreat_cost,
	legalities, prices, evolves_from, evolves_to, rarity_tier, price_usd, raw_data
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	game_id = excluded.game_id,
	set_id = excluded.set_id,
	name = excluded.name,
	image_small = excluded.image_small,
	image_large = excluded.image_large,
	supertype = excluded.supertype,
	subtypes = excluded.subtypes,
	types = excluded.types,
	hp = excluded.hp,
	rarity = excluded.rarity,
	artist = excluded.artist,
	flavor_text = excluded.flavor_text,
	number = excluded.number,
	attacks = excluded.attacks,
	abilities = excluded.abilities,
	weaknesses = excluded.weaknesses,
	resistances = excluded.resistances,
	retreat_cost = excluded.retreat_cost,
	legalities = excluded.legalities,
	prices = excluded.prices,
	evolves_from = excluded.evolves_from,
	evolves_to = excluded.evolves_to,
	rarity_tier = excluded.rarity_tier,
	price_usd = excluded.price_usd,
	raw_data = excluded.raw_data,
	updated_at = now()
`

const upsertSetSQL = `
INSERT INTO sets (id, game_id, name, series, release_date, logo_url, symbol_url, total)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	game_id = excluded.game_id,
	name = excluded.name,
	series = excluded.series,
	release_date = excluded.release_date,
	logo_url = excluded.logo_url,
	symbol_url = excluded.symbol_url,
	total = excluded.total,
	updated_at = now()
`

const upsertLinkSQL = `
INSERT INTO card_set_links (card_id, set_id)
VALUES (?, ?)
ON CONFLICT (card_id, set_id) DO NOTHING
`

// UpsertCards inserts or updates cards by id. The chunk either fully succeeds
// or fails at the first bad row; ingestion chunks batches small enough that
// retry granularity stays useful.
func (db *DB) UpsertCards(ctx context.Context, cards []models.Card) (err error) {
	if len(cards) == 0 {
		return nil
	}
	defer func(start time.Time) { observeQuery("upsert_cards", start, err) }(time.Now())
	stmt, err := db.prepareCached(ctx, upsertCardSQL)
	if err != nil {
		return err
	}
	for i := range cards {
		args, err := cardArgs(&cards[i])
		if err != nil {
			return fmt.Errorf("failed to encode card %s: %w", cards[i].ID, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert card %s: %w", cards[i].ID, err)
		}
	}
	return nil
}

// UpsertSets inserts or updates sets by id.
func (db *DB) UpsertSets(ctx context.Context, sets []models.CardSet) (err error) {
	if len(sets) == 0 {
		return nil
	}
	defer func(start time.Time) { observeQuery("upsert_sets", start, err) }(time.Now())
	stmt, err := db.prepareCached(ctx, upsertSetSQL)
	if err != nil {
		return err
	}
	for i := range sets {
		s := &sets[i]
		_, err := stmt.ExecContext(ctx,
			s.ID, s.GameID, s.Name, ptrArg(s.Series), ptrArg(s.ReleaseDate),
			ptrArg(s.LogoURL), ptrArg(s.SymbolURL), s.Total)
		if err != nil {
			return fmt.Errorf("failed to upsert set %s: %w", s.ID, err)
		}
	}
	return nil
}

// UpsertCardSetLinks records card/set associations, ignoring duplicates.
func (db *DB) UpsertCardSetLinks(ctx context.Context, links []models.CardSetLink) (err error) {
	if len(links) == 0 {
		return nil
	}
	defer func(start time.Time) { observeQuery("upsert_links", start, err) }(time.Now())
	stmt, err := db.prepareCached(ctx, upsertLinkSQL)
	if err != nil {
		return err
	}
	for _, l := range links {
		if _, err := stmt.ExecContext(ctx, l.CardID, l.SetID); err != nil {
			return fmt.Errorf("failed to upsert link %s/%s: %w", l.CardID, l.SetID, err)
		}
	}
	return nil
}

// UpdateCardPrices replaces a card's price payload and derived USD price.
// Reports whether the card existed. Used by the price-only update pass.
func (db *DB) UpdateCardPrices(ctx context.Context, id string, prices *models.CardPrices, priceUSD *float64) (_ bool, err error) {
	defer func(start time.Time) { observeQuery("update_prices", start, err) }(time.Now())

	blob, err := encodeJSON(prices, prices == nil)
	if err != nil {
		return false, fmt.Errorf("failed to encode prices for %s: %w", id, err)
	}
	res, err := db.conn.ExecContext(ctx,
		`UPDATE cards SET prices = ?, price_usd = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		blob, ptrFloatArg(priceUSD), id)
	if err != nil {
		return false, fmt.Errorf("failed to update prices for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result for %s: %w", id, err)
	}
	return n > 0, nil
}

// cardArgs builds the upsertCardSQL parameter list for one card.
func cardArgs(c *models.Card) ([]interface{}, error) {
	subtypes, err := encodeJSON(c.Subtypes, len(c.Subtypes) == 0)
	if err != nil {
		return nil, err
	}
	types, err := encodeJSON(c.Types, len(c.Types) == 0)
	if err != nil {
		return nil, err
	}
	attacks, err := encodeJSON(c.Attacks, len(c.Attacks) == 0)
	if err != nil {
		return nil, err
	}
	abilities, err := encodeJSON(c.Abilities, len(c.Abilities) == 0)
	if err != nil {
		return nil, err
	}
	weaknesses, err := encodeJSON(c.Weaknesses, len(c.Weaknesses) == 0)
	if err != nil {
		return nil, err
	}
	resistances, err := encodeJSON(c.Resistances, len(c.Resistances) == 0)
	if err != nil {
		return nil, err
	}
	legalities, err := encodeJSON(c.Legalities, len(c.Legalities) == 0)
	if err != nil {
		return nil, err
	}
	prices, err := encodeJSON(c.Prices, c.Prices == nil)
	if err != nil {
		return nil, err
	}
	evolvesTo, err := encodeJSON(c.EvolvesTo, len(c.EvolvesTo) == 0)
	if err != nil {
		return nil, err
	}

	var rawData interface{}
	if len(c.RawData) > 0 {
		rawData = string(c.RawData)
	}

	return []interface{}{
		c.ID, c.GameID, ptrArg(c.SetID), c.Name, ptrArg(c.ImageSmall), ptrArg(c.ImageLarge),
		ptrArg(c.Supertype), subtypes, types, ptrIntArg(c.HP), ptrArg(c.Rarity),
		ptrArg(c.Artist), ptrArg(c.FlavorText), ptrArg(c.Number),
		attacks, abilities, weaknesses, resistances, ptrIntArg(c.RetreatCost),
		legalities, prices, ptrArg(c.EvolvesFrom), evolvesTo,
		ptrIntArg(c.RarityTier), ptrFloatArg(c.PriceUSD), rawData,
	}, nil
}

// encodeJSON marshals v to JSON text, or returns SQL NULL when empty is true.
func encodeJSON(v interface{}, empty bool) (interface{}, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ptrArg converts a *string to a SQL argument, mapping nil to NULL.
func ptrArg(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func ptrIntArg(n *int) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func ptrFloatArg(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
