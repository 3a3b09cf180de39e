// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tcgatlas/tcgatlas/internal/models"
)

func newYugiohServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cardsets.php":
			// LOB appears twice with the same code; both names must still
			// resolve for links.
			w.Write([]byte(`[
				{"set_name":"Legend of Blue Eyes White Dragon","set_code":"LOB","num_of_cards":126,"tcg_date":"2002-03-08"},
				{"set_name":"Legend of Blue Eyes White Dragon (Reprint)","set_code":"LOB","num_of_cards":126,"tcg_date":"2002-03-08"},
				{"set_name":"Metal Raiders","set_code":"MRD","num_of_cards":144,"tcg_date":"2002-06-26"}
			]`))
		case "/cardinfo.php":
			w.Write([]byte(`{"data":[
				{"id":89631139,"name":"Blue-Eyes White Dragon","type":"Normal Monster","frameType":"normal",
				 "desc":"This legendary dragon is a powerful engine of destruction.",
				 "atk":3000,"def":2500,"level":8,"race":"Dragon","attribute":"LIGHT",
				 "card_sets":[
					{"set_name":"Legend of Blue Eyes White Dragon","set_code":"LOB-001","set_rarity":"Ultra Rare"},
					{"set_name":"Metal Raiders","set_code":"MRD-000","set_rarity":"Secret Rare"}
				 ],
				 "card_images":[{"image_url":"https://img/l.jpg","image_url_small":"https://img/s.jpg"}],
				 "card_prices":[{"tcgplayer_price":"45.00","cardmarket_price":"39.99"}]},
				{"id":23995346,"name":"Decode Talker","type":"Link Monster","frameType":"link",
				 "desc":"2+ Effect Monsters","atk":2300,"linkval":3,"race":"Cyberse","attribute":"DARK",
				 "card_sets":[{"set_name":"Unknown Set","set_code":"UNK-001","set_rarity":"Rare"}],
				 "card_images":[],"card_prices":[]}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestYugiohRunIngestsCardsAndLinks(t *testing.T) {
	srv := newYugiohServer(t)
	defer srv.Close()

	store := newFakeStore()
	summary, err := NewYugiohSource(store, testIngestConfig(srv.URL)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Skipped {
		t.Fatal("fresh run should not be skipped")
	}
	if summary.Sets != 2 {
		t.Errorf("Sets = %d, want 2 (duplicate code deduplicated)", summary.Sets)
	}
	if summary.Cards != 2 {
		t.Errorf("Cards = %d, want 2", summary.Cards)
	}
	if summary.Links != 2 {
		t.Errorf("Links = %d, want 2 (unknown set name dropped)", summary.Links)
	}

	card, ok := store.card("ygo-89631139")
	if !ok {
		t.Fatal("card ygo-89631139 not stored")
	}
	if card.SetID == nil || *card.SetID != "ygo-LOB" {
		t.Errorf("SetID = %v, want ygo-LOB", card.SetID)
	}
	if card.Rarity == nil || *card.Rarity != "Ultra Rare" {
		t.Errorf("Rarity = %v, want first printing's Ultra Rare", card.Rarity)
	}
	if card.RarityTier == nil || *card.RarityTier != 3 {
		t.Errorf("RarityTier = %v, want 3 for Ultra Rare", card.RarityTier)
	}
	if card.HP == nil || *card.HP != 8 {
		t.Errorf("HP = %v, want level 8", card.HP)
	}
	if len(card.Weaknesses) != 1 || card.Weaknesses[0].Value != "3000/2500" {
		t.Errorf("Weaknesses = %v, want ATK/DEF 3000/2500", card.Weaknesses)
	}
	if card.PriceUSD == nil || *card.PriceUSD != 45.00 {
		t.Errorf("PriceUSD = %v, want tcgplayer 45.00", card.PriceUSD)
	}
	if !store.links[models.CardSetLink{CardID: "ygo-89631139", SetID: "ygo-MRD"}] {
		t.Error("reprint link to ygo-MRD missing")
	}

	link, ok := store.card("ygo-23995346")
	if !ok {
		t.Fatal("card ygo-23995346 not stored")
	}
	if link.HP == nil || *link.HP != 3 {
		t.Errorf("HP = %v, want link value 3", link.HP)
	}
	if len(link.Weaknesses) != 1 || link.Weaknesses[0].Value != "2300/?" {
		t.Errorf("Weaknesses = %v, want missing DEF printed as ?", link.Weaknesses)
	}
	if link.SetID != nil {
		t.Errorf("SetID = %v, want nil for unknown set name", *link.SetID)
	}
}

func TestYugiohRunSkipsCardsWhenPoolComplete(t *testing.T) {
	srv := newYugiohServer(t)
	defer srv.Close()

	store := newFakeStore()
	store.cards["ygo-1"] = models.Card{ID: "ygo-1", GameID: "yugioh"}
	store.cards["ygo-2"] = models.Card{ID: "ygo-2", GameID: "yugioh"}

	summary, err := NewYugiohSource(store, testIngestConfig(srv.URL)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.Skipped {
		t.Error("run should skip the card pass when local count covers upstream")
	}
	// Sets are still refreshed.
	if summary.Sets != 2 {
		t.Errorf("Sets = %d, want 2", summary.Sets)
	}
	if summary.Cards != 0 {
		t.Errorf("Cards = %d, want 0 on skip", summary.Cards)
	}
}
