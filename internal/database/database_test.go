// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/models"
)

// newTestDB creates an in-memory database. Fuzzy matching is forced onto the
// ILIKE fallback so tests do not depend on community extension downloads.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{
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
	return db
}

func strPtr(s string) *string    { return &s }
func intPtr(n int) *int          { return &n }
func floatPtr(f float64) *float64 { return &f }

func testCard(id, game, name string) models.Card {
	return models.Card{ID: id, GameID: game, Name: name}
}

func seedCards(t *testing.T, db *DB, cards ...models.Card) {
	t.Helper()
	if err := db.UpsertCards(context.Background(), cards); err != nil {
		t.Fatalf("failed to seed cards: %v", err)
	}
}

func TestUpsertAndGetCardRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	card := models.Card{
		ID:         "xy1-1",
		GameID:     "pokemon",
		SetID:      strPtr("xy1"),
		Name:       "Venusaur-EX",
		ImageSmall: strPtr("https://img.example/xy1-1.png"),
		Supertype:  strPtr("Pokémon"),
		Subtypes:   []string{"Basic", "EX"},
		Types:      []string{"Grass"},
		HP:         intPtr(180),
		Rarity:     strPtr("Rare Holo EX"),
		Artist:     strPtr("Eske Yoshinob"),
		Number:     strPtr("1"),
		Attacks: []models.Attack{
			{Name: "Poison Powder", Cost: []string{"Grass", "Colorless"}, ConvertedEnergyCost: 2, Damage: "60", Text: "Poisoned."},
		},
		Weaknesses:  []models.TypeValue{{Type: "Fire", Value: "×2"}},
		RetreatCost: intPtr(4),
		Legalities:  map[string]string{"standard": "Legal"},
		Prices: &models.CardPrices{
			TCGPlayer: &models.TCGPlayerPrices{Prices: json.RawMessage(`{"holofoil":{"market":5.5}}`)},
		},
		EvolvesTo:  []string{"M Venusaur-EX"},
		RarityTier: intPtr(4),
		PriceUSD:   floatPtr(5.5),
		RawData:    json.RawMessage(`{"id":"xy1-1"}`),
	}
	seedCards(t, db, card)

	got, err := db.GetCardByID(ctx, "xy1-1")
	if err != nil {
		t.Fatalf("GetCardByID error: %v", err)
	}
	if got.Name != "Venusaur-EX" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.SetID == nil || *got.SetID != "xy1" {
		t.Errorf("SetID = %v, want xy1", got.SetID)
	}
	if len(got.Attacks) != 1 || got.Attacks[0].Name != "Poison Powder" {
		t.Errorf("Attacks = %+v", got.Attacks)
	}
	if len(got.Types) != 1 || got.Types[0] != "Grass" {
		t.Errorf("Types = %v", got.Types)
	}
	if got.HP == nil || *got.HP != 180 {
		t.Errorf("HP = %v, want 180", got.HP)
	}
	if got.RarityTier == nil || *got.RarityTier != 4 {
		t.Errorf("RarityTier = %v, want 4", got.RarityTier)
	}
	if got.PriceUSD == nil || *got.PriceUSD != 5.5 {
		t.Errorf("PriceUSD = %v, want 5.5", got.PriceUSD)
	}
	if got.Prices == nil || got.Prices.TCGPlayer == nil {
		t.Fatalf("Prices not round-tripped: %+v", got.Prices)
	}
	if got.Legalities["standard"] != "Legal" {
		t.Errorf("Legalities = %v", got.Legalities)
	}

	// Upsert again with changed fields; no duplicate row, values updated.
	card.Name = "Venusaur-EX (updated)"
	card.PriceUSD = floatPtr(6.0)
	seedCards(t, db, card)

	got, err = db.GetCardByID(ctx, "xy1-1")
	if err != nil {
		t.Fatalf("GetCardByID after update error: %v", err)
	}
	if got.Name != "Venusaur-EX (updated)" {
		t.Errorf("Name after update = %q", got.Name)
	}
	count, err := db.CountCardsByGame(ctx, "pokemon")
	if err != nil {
		t.Fatalf("CountCardsByGame error: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestGetCardByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetCardByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearchCardsFiltersAndPagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	fire := testCard("p1", "pokemon", "Charmander")
	fire.Types = []string{"Fire"}
	fire.HP = intPtr(50)
	water := testCard("p2", "pokemon", "Squirtle")
	water.Types = []string{"Water"}
	water.HP = intPtr(50)
	dual := testCard("p3", "pokemon", "Volcanion")
	dual.Types = []string{"Fire", "Water"}
	dual.HP = intPtr(130)
	mtg := testCard("mtg-1", "mtg", "Lightning Bolt")
	mtg.Types = []string{"Red"}
	seedCards(t, db, fire, water, dual, mtg)

	// Game scoping is always applied.
	cards, total, err := db.SearchCards(ctx, CardFilter{GameID: "pokemon"}, "name", "asc", 1, 10)
	if err != nil {
		t.Fatalf("SearchCards error: %v", err)
	}
	if total != 3 || len(cards) != 3 {
		t.Fatalf("total = %d, len = %d, want 3, 3", total, len(cards))
	}

	// Types overlap: Fire matches the dual-typed card too.
	cards, total, err = db.SearchCards(ctx, CardFilter{GameID: "pokemon", Types: []string{"Fire"}}, "name", "asc", 1, 10)
	if err != nil {
		t.Fatalf("SearchCards types error: %v", err)
	}
	if total != 2 {
		t.Errorf("fire total = %d, want 2", total)
	}
	if cards[0].Name != "Charmander" || cards[1].Name != "Volcanion" {
		t.Errorf("fire order = %s, %s", cards[0].Name, cards[1].Name)
	}

	// HP range.
	hpMin := 100
	_, total, err = db.SearchCards(ctx, CardFilter{GameID: "pokemon", HPMin: &hpMin}, "name", "asc", 1, 10)
	if err != nil {
		t.Fatalf("SearchCards hp error: %v", err)
	}
	if total != 1 {
		t.Errorf("hp_min total = %d, want 1", total)
	}

	// Pagination: page 2 of per_page 2 has the last card; total is unchanged.
	cards, total, err = db.SearchCards(ctx, CardFilter{GameID: "pokemon"}, "name", "asc", 2, 2)
	if err != nil {
		t.Fatalf("SearchCards page error: %v", err)
	}
	if total != 3 || len(cards) != 1 {
		t.Errorf("page 2: total = %d, len = %d, want 3, 1", total, len(cards))
	}

	// Past the end: empty data, true total.
	cards, total, err = db.SearchCards(ctx, CardFilter{GameID: "pokemon"}, "name", "asc", 9, 10)
	if err != nil {
		t.Fatalf("SearchCards past-end error: %v", err)
	}
	if total != 3 || len(cards) != 0 {
		t.Errorf("past end: total = %d, len = %d, want 3, 0", total, len(cards))
	}
}

func TestSearchCardsFeaturedOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := testCard("a", "pokemon", "Alpha")
	a.RarityTier = intPtr(5)
	a.PriceUSD = floatPtr(1)
	b := testCard("b", "pokemon", "Beta")
	b.RarityTier = intPtr(5)
	b.PriceUSD = floatPtr(10)
	c := testCard("c", "pokemon", "Gamma")
	c.RarityTier = intPtr(3)
	c.PriceUSD = floatPtr(100)
	d := testCard("d", "pokemon", "Delta") // no tier, no price
	e := testCard("e", "pokemon", "Epsilon")
	e.RarityTier = intPtr(5) // tier 5, no price
	seedCards(t, db, a, b, c, d, e)

	cards, _, err := db.SearchCards(ctx, CardFilter{GameID: "pokemon"}, "featured", "", 1, 10)
	if err != nil {
		t.Fatalf("SearchCards error: %v", err)
	}
	got := make([]string, len(cards))
	for i, card := range cards {
		got[i] = card.ID
	}
	// tier desc, then price desc with null last, then name asc; fully null last
	want := []string{"b", "a", "e", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("featured order = %v, want %v", got, want)
		}
	}
}

func TestSearchCardsJunctionTableFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c1 := testCard("ygo-1", "yugioh", "Blue-Eyes White Dragon")
	c1.SetID = strPtr("ygo-set-SDK")
	c2 := testCard("ygo-2", "yugioh", "Dark Magician")
	c2.SetID = strPtr("ygo-set-LOB")
	seedCards(t, db, c1, c2)

	// Both cards reprinted in LOB via the junction table.
	links := []models.CardSetLink{
		{CardID: "ygo-1", SetID: "ygo-set-LOB"},
		{CardID: "ygo-2", SetID: "ygo-set-LOB"},
	}
	if err := db.UpsertCardSetLinks(ctx, links); err != nil {
		t.Fatalf("UpsertCardSetLinks error: %v", err)
	}
	// Duplicate insert is a no-op.
	if err := db.UpsertCardSetLinks(ctx, links); err != nil {
		t.Fatalf("duplicate UpsertCardSetLinks error: %v", err)
	}

	// Linked set: junction table wins over the set_id column.
	_, total, err := db.SearchCards(ctx, CardFilter{GameID: "yugioh", SetID: "ygo-set-LOB"}, "name", "asc", 1, 10)
	if err != nil {
		t.Fatalf("SearchCards linked error: %v", err)
	}
	if total != 2 {
		t.Errorf("linked set total = %d, want 2", total)
	}

	// Unlinked set: falls back to the set_id column.
	_, total, err = db.SearchCards(ctx, CardFilter{GameID: "yugioh", SetID: "ygo-set-SDK"}, "name", "asc", 1, 10)
	if err != nil {
		t.Fatalf("SearchCards fallback error: %v", err)
	}
	if total != 1 {
		t.Errorf("unlinked set total = %d, want 1", total)
	}
}

func TestFuzzySearchAndRankedFetch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pika := testCard("p1", "pokemon", "Pikachu")
	pika.Types = []string{"Lightning"}
	raichu := testCard("p2", "pokemon", "Raichu")
	raichu.Types = []string{"Lightning"}
	chu := testCard("p3", "pokemon", "Pikachu VMAX")
	chu.Types = []string{"Lightning"}
	bulba := testCard("p4", "pokemon", "Bulbasaur")
	bulba.Types = []string{"Grass"}
	seedCards(t, db, pika, raichu, chu, bulba)

	ids, err := db.FuzzySearchCardIDs(ctx, "pokemon", "pikachu", 500)
	if err != nil {
		t.Fatalf("FuzzySearchCardIDs error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want the two Pikachu prints", ids)
	}

	// Ranked fetch preserves candidate order and applies filters.
	cards, total, err := db.SearchCardsRanked(ctx,
		CardFilter{GameID: "pokemon", Types: []string{"Lightning"}}, ids, 1, 10)
	if err != nil {
		t.Fatalf("SearchCardsRanked error: %v", err)
	}
	if total != 2 || len(cards) != 2 {
		t.Fatalf("ranked total = %d, len = %d, want 2, 2", total, len(cards))
	}
	if cards[0].ID != ids[0] || cards[1].ID != ids[1] {
		t.Errorf("ranked order %s, %s does not match candidates %v", cards[0].ID, cards[1].ID, ids)
	}

	// Zero candidates short-circuit.
	cards, total, err = db.SearchCardsRanked(ctx, CardFilter{GameID: "pokemon"}, nil, 1, 10)
	if err != nil {
		t.Fatalf("SearchCardsRanked empty error: %v", err)
	}
	if total != 0 || len(cards) != 0 {
		t.Errorf("empty candidates: total = %d, len = %d", total, len(cards))
	}

	// No match at all.
	ids, err = db.FuzzySearchCardIDs(ctx, "pokemon", "zzzzzz", 500)
	if err != nil {
		t.Fatalf("FuzzySearchCardIDs no-match error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("no-match ids = %v, want none", ids)
	}
}

func TestGetCardsByIDsPreservesOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedCards(t, db,
		testCard("a", "pokemon", "A"),
		testCard("b", "pokemon", "B"),
		testCard("c", "pokemon", "C"))

	cards, err := db.GetCardsByIDs(ctx, []string{"c", "missing", "a"})
	if err != nil {
		t.Fatalf("GetCardsByIDs error: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != "c" || cards[1].ID != "a" {
		t.Errorf("cards = %+v, want [c a]", cards)
	}
}

func TestFilterOptions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c1 := testCard("1", "pokemon", "One")
	c1.Rarity = strPtr("Rare")
	c1.Supertype = strPtr("Pokémon")
	c2 := testCard("2", "pokemon", "Two")
	c2.Rarity = strPtr("Common")
	c2.Supertype = strPtr("Trainer")
	c3 := testCard("3", "pokemon", "Three")
	c3.Rarity = strPtr("Rare") // duplicate
	c4 := testCard("4", "mtg", "Other Game")
	c4.Rarity = strPtr("mythic")
	seedCards(t, db, c1, c2, c3, c4)

	rarities, supertypes, err := db.FilterOptions(ctx, "pokemon")
	if err != nil {
		t.Fatalf("FilterOptions error: %v", err)
	}
	if len(rarities) != 2 || rarities[0] != "Common" || rarities[1] != "Rare" {
		t.Errorf("rarities = %v, want [Common Rare]", rarities)
	}
	if len(supertypes) != 2 || supertypes[0] != "Pokémon" || supertypes[1] != "Trainer" {
		t.Errorf("supertypes = %v, want [Pokémon Trainer]", supertypes)
	}
}

func TestSetsRoundTripAndOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sets := []models.CardSet{
		{ID: "old", GameID: "pokemon", Name: "Base Set", ReleaseDate: strPtr("1999/01/09"), Total: 102},
		{ID: "new", GameID: "pokemon", Name: "Surging Sparks", ReleaseDate: strPtr("2024/11/08"), Total: 191},
		{ID: "undated", GameID: "pokemon", Name: "Promos"},
		{ID: "mtg-set", GameID: "mtg", Name: "Alpha", ReleaseDate: strPtr("1993/08/05")},
	}
	if err := db.UpsertSets(ctx, sets); err != nil {
		t.Fatalf("UpsertSets error: %v", err)
	}

	got, err := db.GetSets(ctx, "pokemon")
	if err != nil {
		t.Fatalf("GetSets error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(sets) = %d, want 3", len(got))
	}
	if got[0].ID != "new" || got[1].ID != "old" || got[2].ID != "undated" {
		t.Errorf("set order = %s, %s, %s; want new, old, undated", got[0].ID, got[1].ID, got[2].ID)
	}

	set, err := db.GetSetByID(ctx, "old")
	if err != nil {
		t.Fatalf("GetSetByID error: %v", err)
	}
	if set.Total != 102 {
		t.Errorf("Total = %d, want 102", set.Total)
	}
	if _, err := db.GetSetByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSetByID missing err = %v, want ErrNotFound", err)
	}

	ids, err := db.GetSetIDs(ctx, "mtg")
	if err != nil {
		t.Fatalf("GetSetIDs error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "mtg-set" {
		t.Errorf("GetSetIDs = %v, want [mtg-set]", ids)
	}
}

func TestUpdateCardPrices(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedCards(t, db, testCard("xy1-1", "pokemon", "Card"))

	prices := &models.CardPrices{
		TCGPlayer: &models.TCGPlayerPrices{Prices: json.RawMessage(`{"normal":{"market":2.5}}`)},
	}
	updated, err := db.UpdateCardPrices(ctx, "xy1-1", prices, floatPtr(2.5))
	if err != nil {
		t.Fatalf("UpdateCardPrices error: %v", err)
	}
	if !updated {
		t.Error("updated = false, want true")
	}

	got, err := db.GetCardByID(ctx, "xy1-1")
	if err != nil {
		t.Fatalf("GetCardByID error: %v", err)
	}
	if got.PriceUSD == nil || *got.PriceUSD != 2.5 {
		t.Errorf("PriceUSD = %v, want 2.5", got.PriceUSD)
	}

	updated, err = db.UpdateCardPrices(ctx, "missing", nil, nil)
	if err != nil {
		t.Fatalf("UpdateCardPrices missing error: %v", err)
	}
	if updated {
		t.Error("updated missing card = true, want false")
	}
}

func TestUpsertConflictUpdatesExistingRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	card := testCard("base1-4", "pokemon", "Charizard")
	card.Rarity = strPtr("Rare")
	seedCards(t, db, card)

	card.Name = "Charizard (Shadowless)"
	card.Rarity = strPtr("Rare Holo")
	card.PriceUSD = floatPtr(420.0)
	seedCards(t, db, card)

	got, err := db.GetCardByID(ctx, "base1-4")
	if err != nil {
		t.Fatalf("GetCardByID error: %v", err)
	}
	if got.Name != "Charizard (Shadowless)" {
		t.Errorf("Name = %q, want updated name", got.Name)
	}
	if got.Rarity == nil || *got.Rarity != "Rare Holo" {
		t.Errorf("Rarity = %v, want Rare Holo", got.Rarity)
	}
	if got.PriceUSD == nil || *got.PriceUSD != 420.0 {
		t.Errorf("PriceUSD = %v, want 420", got.PriceUSD)
	}
	if count, err := db.CountCardsByGame(ctx, "pokemon"); err != nil || count != 1 {
		t.Errorf("CountCardsByGame = %d, %v; want 1 row after re-upsert", count, err)
	}

	set := models.CardSet{ID: "base1", GameID: "pokemon", Name: "Base", Total: 0}
	if err := db.UpsertSets(ctx, []models.CardSet{set}); err != nil {
		t.Fatalf("UpsertSets error: %v", err)
	}
	set.Name = "Base Set"
	set.Total = 102
	if err := db.UpsertSets(ctx, []models.CardSet{set}); err != nil {
		t.Fatalf("UpsertSets conflict error: %v", err)
	}
	gotSet, err := db.GetSetByID(ctx, "base1")
	if err != nil {
		t.Fatalf("GetSetByID error: %v", err)
	}
	if gotSet.Name != "Base Set" || gotSet.Total != 102 {
		t.Errorf("set = %q/%d, want Base Set/102", gotSet.Name, gotSet.Total)
	}
}
