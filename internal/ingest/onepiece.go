// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tcgatlas/tcgatlas/internal/catalog"
	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/models"
)

// OnePieceSource ingests One Piece from the OPTCG API. Cards are enumerated
// from three listings (booster sets, starter decks, promos); the same print
// can appear in several listings, so the first occurrence of a card_set_id
// wins. Ids are prefixed "op-".
type OnePieceSource struct {
	store  Store
	client *client
	cfg    *config.IngestConfig
}

func NewOnePieceSource(store Store, cfg *config.IngestConfig) *OnePieceSource {
	return &OnePieceSource{
		store:  store,
		client: newClient(cfg.HTTPTimeout, 5, nil),
		cfg:    cfg,
	}
}

func (s *OnePieceSource) Game() catalog.GameID { return catalog.GameOnePiece }

type opSet struct {
	SetName string `json:"set_name"`
	SetID   string `json:"set_id"`
}

type opDeck struct {
	StructureDeckName string `json:"structure_deck_name"`
	StructureDeckID   string `json:"structure_deck_id"`
}

type opCard struct {
	CardSetID     string   `json:"card_set_id"`
	CardName      string   `json:"card_name"`
	CardType      string   `json:"card_type"`
	CardColor     string   `json:"card_color"`
	CardCost      *string  `json:"card_cost"`
	CardPower     *string  `json:"card_power"`
	CounterAmount *int     `json:"counter_amount"`
	CardText      *string  `json:"card_text"`
	SubTypes      *string  `json:"sub_types"`
	Attribute     *string  `json:"attribute"`
	Rarity        *string  `json:"rarity"`
	Life          *int     `json:"life"`
	SetID         string   `json:"set_id"`
	SetName       string   `json:"set_name"`
	CardImage     *string  `json:"card_image"`
	MarketPrice   *float64 `json:"market_price"`
}

// Run upserts the booster and starter-deck listings as sets, then collects
// cards from every set, every deck and the promo listing. Failed listings
// are recorded and skipped; the run continues.
func (s *OnePieceSource) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Source: s.Game().String()}
	w := newWriter(s.store, s.cfg.CardBatchSize, s.cfg.SetBatchSize, summary)
	base := s.cfg.OnePiece.BaseURL

	var sets []opSet
	if err := s.client.getJSON(ctx, base+"/allSets", &sets); err != nil {
		return summary, fmt.Errorf("sets fetch failed: %w", err)
	}
	var decks []opDeck
	if err := s.client.getJSON(ctx, base+"/allDecks", &decks); err != nil {
		return summary, fmt.Errorf("decks fetch failed: %w", err)
	}

	booster := "Booster"
	starter := "Starter Deck"
	setRows := make([]models.CardSet, 0, len(sets)+len(decks))
	for _, set := range sets {
		setRows = append(setRows, models.CardSet{
			ID:     "op-" + set.SetID,
			GameID: s.Game().String(),
			Name:   set.SetName,
			Series: &booster,
		})
	}
	for _, deck := range decks {
		setRows = append(setRows, models.CardSet{
			ID:     "op-" + deck.StructureDeckID,
			GameID: s.Game().String(),
			Name:   deck.StructureDeckName,
			Series: &starter,
		})
	}
	w.writeSets(ctx, setRows)

	seen := make(map[string]bool)
	var cards []models.Card
	collect := func(raws []json.RawMessage, origin string) {
		for _, raw := range raws {
			var oc opCard
			if err := json.Unmarshal(raw, &oc); err != nil {
				w.recordError(fmt.Errorf("bad card in %s: %w", origin, err))
				continue
			}
			if seen[oc.CardSetID] {
				continue
			}
			seen[oc.CardSetID] = true
			cards = append(cards, s.mapCard(&oc, raw))
		}
	}

	for _, set := range sets {
		var raws []json.RawMessage
		if err := s.client.getJSON(ctx, base+"/sets/"+set.SetID, &raws); err != nil {
			w.recordError(fmt.Errorf("set %s fetch failed: %w", set.SetID, err))
			continue
		}
		collect(raws, set.SetID)
	}
	for _, deck := range decks {
		var raws []json.RawMessage
		if err := s.client.getJSON(ctx, base+"/decks/"+deck.StructureDeckID, &raws); err != nil {
			w.recordError(fmt.Errorf("deck %s fetch failed: %w", deck.StructureDeckID, err))
			continue
		}
		collect(raws, deck.StructureDeckID)
	}
	var promos []json.RawMessage
	if err := s.client.getJSON(ctx, base+"/allPromoCards", &promos); err != nil {
		w.recordError(fmt.Errorf("promo fetch failed: %w", err))
	} else {
		collect(promos, "promos")
	}

	w.writeCards(ctx, cards)
	return summary, nil
}

func (s *OnePieceSource) mapCard(oc *opCard, raw json.RawMessage) models.Card {
	var colors []string
	for _, c := range strings.Split(oc.CardColor, "/") {
		if c = strings.TrimSpace(c); c != "" {
			colors = append(colors, c)
		}
	}

	var subtypes []string
	if oc.SubTypes != nil {
		for _, st := range strings.Split(*oc.SubTypes, "/") {
			if st = strings.TrimSpace(st); st != "" {
				subtypes = append(subtypes, st)
			}
		}
	}

	var hp *int
	if oc.CardPower != nil {
		hp = parseIntOrNil(*oc.CardPower)
	}

	var attacks []models.Attack
	if oc.CardText != nil && *oc.CardText != "" {
		attack := models.Attack{Name: "Effect", Text: *oc.CardText}
		if oc.CardCost != nil && *oc.CardCost != "" {
			attack.Cost = []string{*oc.CardCost}
		}
		attacks = []models.Attack{attack}
	}

	var weaknesses []models.TypeValue
	if oc.Attribute != nil && *oc.Attribute != "" {
		weaknesses = []models.TypeValue{{Type: "Attribute", Value: *oc.Attribute}}
	}
	var resistances []models.TypeValue
	if oc.CounterAmount != nil {
		resistances = []models.TypeValue{{Type: "Counter", Value: fmt.Sprintf("%d", *oc.CounterAmount)}}
	}

	var prices *models.CardPrices
	if oc.MarketPrice != nil {
		prices = &models.CardPrices{Market: oc.MarketPrice}
	}

	setID := "op-" + oc.SetID
	card := models.Card{
		ID:          "op-" + oc.CardSetID,
		GameID:      s.Game().String(),
		SetID:       &setID,
		Name:        oc.CardName,
		ImageSmall:  ptrNonEmpty(oc.CardImage),
		ImageLarge:  ptrNonEmpty(oc.CardImage),
		Supertype:   nonEmpty(oc.CardType),
		Subtypes:    subtypes,
		Types:       colors,
		HP:          hp,
		Rarity:      ptrNonEmpty(oc.Rarity),
		Number:      nonEmpty(oc.CardSetID),
		Attacks:     attacks,
		Weaknesses:  weaknesses,
		Resistances: resistances,
		RetreatCost: oc.Life,
		Prices:      prices,
		RawData:     raw,
	}
	catalog.ApplyDerivedFields(&card)
	return card
}

// ptrNonEmpty passes through a nullable string, mapping "" to nil.
func ptrNonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
