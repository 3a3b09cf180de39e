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

	"github.com/goccy/go-json"

	"github.com/tcgatlas/tcgatlas/internal/models"
)

// cardColumns is the canonical select list; scanCard must match its order.
const cardColumns = `id, game_id, set_id, name, image_small, image_large, supertype,
	subtypes, types, hp, rarity, artist, flavor_text, number,
	attacks, abilities, weaknesses, resistances, retreat_cost,
	legalities, prices, evolves_from, evolves_to, rarity_tier, price_usd`

// SearchCards runs a filtered, sorted, paginated card query and returns the
// page of cards plus the total match count. page is 1-based; perPage must be
// positive. An empty page past the end returns no rows but the true total.
func (db *DB) SearchCards(ctx context.Context, f CardFilter, sortBy, sortDir string, page, perPage int) (_ []models.Card, _ int, err error) {
	defer func(start time.Time) { observeQuery("search_cards", start, err) }(time.Now())

	linkCardIDs, err := db.resolveSetFilter(ctx, f.SetID)
	if err != nil {
		return nil, 0, err
	}

	where, args := buildFilterConditions(f, linkCardIDs, db.jsonAvailable)

	var total int
	countQuery := "SELECT COUNT(*) FROM cards " + where
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("card count query failed: %w", err)
	}
	if total == 0 {
		return []models.Card{}, 0, nil
	}

	query := fmt.Sprintf("SELECT %s FROM cards %s %s LIMIT ? OFFSET ?",
		cardColumns, where, buildOrderBy(sortBy, sortDir))
	args = append(args, perPage, (page-1)*perPage)

	cards, err := db.queryCards(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// SearchCardsRanked fetches every card matching the filter among rankedIDs
// and returns them in rankedIDs order, paginated in memory. Fuzzy search uses
// this to preserve similarity ranking through SQL filtering: the candidate
// set is already bounded, so materializing all matches is cheap.
func (db *DB) SearchCardsRanked(ctx context.Context, f CardFilter, rankedIDs []string, page, perPage int) (_ []models.Card, _ int, err error) {
	defer func(start time.Time) { observeQuery("search_cards_ranked", start, err) }(time.Now())

	if len(rankedIDs) == 0 {
		return []models.Card{}, 0, nil
	}

	f.IDs = rankedIDs
	linkCardIDs, err := db.resolveSetFilter(ctx, f.SetID)
	if err != nil {
		return nil, 0, err
	}

	where, args := buildFilterConditions(f, linkCardIDs, db.jsonAvailable)
	query := fmt.Sprintf("SELECT %s FROM cards %s", cardColumns, where)

	cards, err := db.queryCards(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	byID := make(map[string]models.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	ordered := make([]models.Card, 0, len(cards))
	for _, id := range rankedIDs {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}

	total := len(ordered)
	start := (page - 1) * perPage
	if start >= total {
		return []models.Card{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return ordered[start:end], total, nil
}

// resolveSetFilter consults the card_set_links junction table for a set id.
// Games without link rows (everything but Yu-Gi-Oh!) return nil, which makes
// the filter builder fall back to the cards.set_id column.
func (db *DB) resolveSetFilter(ctx context.Context, setID string) ([]string, error) {
	if setID == "" {
		return nil, nil
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT card_id FROM card_set_links WHERE set_id = ?`, setID)
	if err != nil {
		return nil, fmt.Errorf("set link query failed: %w", err)
	}
	defer closeQuietly(rows)

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan set link row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("set link iteration failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

// GetCardByID fetches a single card. Returns ErrNotFound when no row matches.
func (db *DB) GetCardByID(ctx context.Context, id string) (_ *models.Card, err error) {
	defer func(start time.Time) { observeQuery("get_card", start, err) }(time.Now())

	query := fmt.Sprintf("SELECT %s FROM cards WHERE id = ?", cardColumns)
	cards, err := db.queryCards(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrNotFound
	}
	return &cards[0], nil
}

// GetCardsByIDs fetches cards by explicit ids, preserving the input order.
// Missing ids are skipped silently.
func (db *DB) GetCardsByIDs(ctx context.Context, ids []string) (_ []models.Card, err error) {
	defer func(start time.Time) { observeQuery("get_cards_by_ids", start, err) }(time.Now())

	if len(ids) == 0 {
		return []models.Card{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM cards WHERE id IN (%s)", cardColumns, placeholders(len(ids)))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	cards, err := db.queryCards(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	ordered := make([]models.Card, 0, len(cards))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// FilterOptions returns the distinct non-null rarities and supertypes for a
// game, each sorted alphabetically. Backs the filter-dropdown endpoint.
func (db *DB) FilterOptions(ctx context.Context, gameID string) (rarities, supertypes []string, err error) {
	defer func(start time.Time) { observeQuery("filter_options", start, err) }(time.Now())

	rarities, err = db.distinctColumn(ctx, "rarity", gameID)
	if err != nil {
		return nil, nil, err
	}
	supertypes, err = db.distinctColumn(ctx, "supertype", gameID)
	if err != nil {
		return nil, nil, err
	}
	return rarities, supertypes, nil
}

// distinctColumn returns sorted distinct non-null values of a known column.
// Only called with compile-time constant column names.
func (db *DB) distinctColumn(ctx context.Context, column, gameID string) ([]string, error) {
	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM cards WHERE game_id = ? AND %s IS NOT NULL ORDER BY %s`,
		column, column, column)
	rows, err := db.conn.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("distinct %s query failed: %w", column, err)
	}
	defer closeQuietly(rows)

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// CountCardsByGame returns the number of stored cards for a game. The
// Yu-Gi-Oh! ingestion uses this for its cheap up-to-date check.
func (db *DB) CountCardsByGame(ctx context.Context, gameID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE game_id = ?`, gameID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("card count failed: %w", err)
	}
	return count, nil
}

// queryCards runs a select over cardColumns and scans all rows.
func (db *DB) queryCards(ctx context.Context, query string, args ...interface{}) ([]models.Card, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("card query failed: %w", err)
	}
	defer closeQuietly(rows)

	cards := []models.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("card iteration failed: %w", err)
	}
	return cards, nil
}

// scanCard scans one row in cardColumns order.
func scanCard(rows *sql.Rows) (models.Card, error) {
	var c models.Card
	var (
		setID, imageSmall, imageLarge, supertype     sql.NullString
		subtypes, types                              sql.NullString
		hp                                           sql.NullInt64
		rarity, artist, flavorText, number           sql.NullString
		attacks, abilities, weaknesses, resistances  sql.NullString
		retreatCost                                  sql.NullInt64
		legalities, prices, evolvesFrom, evolvesTo   sql.NullString
		rarityTier                                   sql.NullInt64
		priceUSD                                     sql.NullFloat64
	)

	if err := rows.Scan(
		&c.ID, &c.GameID, &setID, &c.Name, &imageSmall, &imageLarge, &supertype,
		&subtypes, &types, &hp, &rarity, &artist, &flavorText, &number,
		&attacks, &abilities, &weaknesses, &resistances, &retreatCost,
		&legalities, &prices, &evolvesFrom, &evolvesTo, &rarityTier, &priceUSD,
	); err != nil {
		return c, fmt.Errorf("failed to scan card row: %w", err)
	}

	c.SetID = nullStr(setID)
	c.ImageSmall = nullStr(imageSmall)
	c.ImageLarge = nullStr(imageLarge)
	c.Supertype = nullStr(supertype)
	c.HP = nullInt(hp)
	c.Rarity = nullStr(rarity)
	c.Artist = nullStr(artist)
	c.FlavorText = nullStr(flavorText)
	c.Number = nullStr(number)
	c.RetreatCost = nullInt(retreatCost)
	c.EvolvesFrom = nullStr(evolvesFrom)
	c.EvolvesTo = nil
	c.RarityTier = nullInt(rarityTier)
	if priceUSD.Valid {
		v := priceUSD.Float64
		c.PriceUSD = &v
	}

	if err := decodeBlob(subtypes, &c.Subtypes); err != nil {
		return c, err
	}
	if err := decodeBlob(types, &c.Types); err != nil {
		return c, err
	}
	if err := decodeBlob(attacks, &c.Attacks); err != nil {
		return c, err
	}
	if err := decodeBlob(abilities, &c.Abilities); err != nil {
		return c, err
	}
	if err := decodeBlob(weaknesses, &c.Weaknesses); err != nil {
		return c, err
	}
	if err := decodeBlob(resistances, &c.Resistances); err != nil {
		return c, err
	}
	if err := decodeBlob(legalities, &c.Legalities); err != nil {
		return c, err
	}
	if err := decodeBlob(prices, &c.Prices); err != nil {
		return c, err
	}
	if err := decodeBlob(evolvesTo, &c.EvolvesTo); err != nil {
		return c, err
	}

	return c, nil
}

// decodeBlob unmarshals a nullable JSON text column into dst, leaving dst
// untouched for NULL or empty values.
func decodeBlob(src sql.NullString, dst interface{}) error {
	if !src.Valid || src.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(src.String), dst); err != nil {
		return fmt.Errorf("failed to decode stored JSON column: %w", err)
	}
	return nil
}

func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
