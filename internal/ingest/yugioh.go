// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tcgatlas/tcgatlas/internal/catalog"
	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/logging"
	"github.com/tcgatlas/tcgatlas/internal/models"
)

// YugiohSource ingests Yu-Gi-Oh! from YGOPRODeck. The upstream ships the
// whole card pool in one response, so runs use a cheap up-to-date check:
// when the local card count already covers the upstream pool, the card pass
// is skipped (sets are still refreshed). Ids are prefixed "ygo-".
//
// Yu-Gi-Oh! cards are reprinted across many sets; every appearance is
// recorded in card_set_links while set_id points at the first listed set.
type YugiohSource struct {
	store  Store
	client *client
	cfg    *config.IngestConfig
}

func NewYugiohSource(store Store, cfg *config.IngestConfig) *YugiohSource {
	return &YugiohSource{
		store:  store,
		client: newClient(cfg.HTTPTimeout, 5, nil),
		cfg:    cfg,
	}
}

func (s *YugiohSource) Game() catalog.GameID { return catalog.GameYugioh }

type ygoCardSet struct {
	SetName   string `json:"set_name"`
	SetCode   string `json:"set_code"`
	SetRarity string `json:"set_rarity"`
}

type ygoCardImage struct {
	ImageURL      string `json:"image_url"`
	ImageURLSmall string `json:"image_url_small"`
}

type ygoCard struct {
	ID         int                 `json:"id"`
	Name       string              `json:"name"`
	Type       string              `json:"type"`
	FrameType  string              `json:"frameType"`
	Desc       string              `json:"desc"`
	ATK        *int                `json:"atk"`
	DEF        *int                `json:"def"`
	Level      *int                `json:"level"`
	Rank       *int                `json:"rank"`
	LinkVal    *int                `json:"linkval"`
	Race       string              `json:"race"`
	Attribute  string              `json:"attribute"`
	CardSets   []ygoCardSet        `json:"card_sets"`
	CardImages []ygoCardImage      `json:"card_images"`
	CardPrices []map[string]string `json:"card_prices"`
}

type ygoSet struct {
	SetName    string `json:"set_name"`
	SetCode    string `json:"set_code"`
	NumOfCards int    `json:"num_of_cards"`
	TCGDate    string `json:"tcg_date"`
}

// Run refreshes all sets, then ingests the card pool unless the local count
// shows it is already complete.
func (s *YugiohSource) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Source: s.Game().String()}
	w := newWriter(s.store, s.cfg.CardBatchSize, s.cfg.SetBatchSize, summary)
	base := s.cfg.Yugioh.BaseURL

	var sets []ygoSet
	if err := s.client.getJSON(ctx, base+"/cardsets.php", &sets); err != nil {
		return summary, fmt.Errorf("sets fetch failed: %w", err)
	}

	// YGOPRODeck lists duplicate set codes; first listing wins.
	seenCodes := make(map[string]bool, len(sets))
	setRows := make([]models.CardSet, 0, len(sets))
	setCodeByName := make(map[string]string, len(sets))
	for _, set := range sets {
		setCodeByName[set.SetName] = set.SetCode
		if seenCodes[set.SetCode] {
			continue
		}
		seenCodes[set.SetCode] = true
		setRows = append(setRows, models.CardSet{
			ID:          "ygo-" + set.SetCode,
			GameID:      s.Game().String(),
			Name:        set.SetName,
			ReleaseDate: nonEmpty(set.TCGDate),
			Total:       set.NumOfCards,
		})
	}
	w.writeSets(ctx, setRows)

	var cardList struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := s.client.getJSON(ctx, base+"/cardinfo.php", &cardList); err != nil {
		return summary, fmt.Errorf("cards fetch failed: %w", err)
	}

	localCount, err := s.store.CountCardsByGame(ctx, s.Game().String())
	if err != nil {
		return summary, fmt.Errorf("local count failed: %w", err)
	}
	if localCount > 0 && localCount >= len(cardList.Data) {
		summary.Skipped = true
		logging.Info().Int("local", localCount).Int("upstream", len(cardList.Data)).
			Msg("Yugioh card pool up to date, cards skipped")
		return summary, nil
	}

	cards := make([]models.Card, 0, len(cardList.Data))
	links := make([]models.CardSetLink, 0, len(cardList.Data))
	for _, raw := range cardList.Data {
		var yc ygoCard
		if err := json.Unmarshal(raw, &yc); err != nil {
			w.recordError(fmt.Errorf("bad card payload: %w", err))
			continue
		}
		cards = append(cards, s.mapCard(&yc, setCodeByName, raw))

		cardID := "ygo-" + strconv.Itoa(yc.ID)
		for _, cs := range yc.CardSets {
			code, ok := setCodeByName[cs.SetName]
			if !ok {
				continue
			}
			links = append(links, models.CardSetLink{CardID: cardID, SetID: "ygo-" + code})
		}
	}

	w.writeCards(ctx, cards)
	w.writeLinks(ctx, links)
	return summary, nil
}

func (s *YugiohSource) mapCard(yc *ygoCard, setCodeByName map[string]string, raw json.RawMessage) models.Card {
	var setID *string
	var rarity *string
	if len(yc.CardSets) > 0 {
		first := yc.CardSets[0]
		if code, ok := setCodeByName[first.SetName]; ok {
			id := "ygo-" + code
			setID = &id
		}
		rarity = nonEmpty(first.SetRarity)
	}

	var imageSmall, imageLarge *string
	if len(yc.CardImages) > 0 {
		imageSmall = nonEmpty(yc.CardImages[0].ImageURLSmall)
		imageLarge = nonEmpty(yc.CardImages[0].ImageURL)
	}

	var subtypes, types []string
	if yc.Race != "" {
		subtypes = []string{yc.Race}
	}
	if yc.Attribute != "" {
		types = []string{yc.Attribute}
	}

	// hp is overloaded: level for monsters, rank for XYZ, link value for links
	hp := yc.Level
	if hp == nil {
		hp = yc.Rank
	}
	if hp == nil {
		hp = yc.LinkVal
	}

	var attacks []models.Attack
	if yc.Desc != "" {
		attacks = []models.Attack{{Name: "Effect", Text: yc.Desc}}
	}

	var weaknesses []models.TypeValue
	if yc.ATK != nil || yc.DEF != nil {
		weaknesses = []models.TypeValue{{Type: "ATK/DEF", Value: statOrQuestion(yc.ATK) + "/" + statOrQuestion(yc.DEF)}}
	}

	var prices *models.CardPrices
	if len(yc.CardPrices) > 0 {
		prices = &models.CardPrices{YGOProDeck: yc.CardPrices[0]}
	}

	card := models.Card{
		ID:         "ygo-" + strconv.Itoa(yc.ID),
		GameID:     s.Game().String(),
		SetID:      setID,
		Name:       yc.Name,
		ImageSmall: imageSmall,
		ImageLarge: imageLarge,
		Supertype:  nonEmpty(yc.FrameType),
		Subtypes:   subtypes,
		Types:      types,
		HP:         hp,
		Rarity:     rarity,
		Attacks:    attacks,
		Weaknesses: weaknesses,
		Prices:     prices,
		RawData:    raw,
	}
	catalog.ApplyDerivedFields(&card)
	return card
}

// statOrQuestion formats an optional ATK/DEF stat; unknown values print as
// "?" the way the card database does.
func statOrQuestion(v *int) string {
	if v == nil {
		return "?"
	}
	return strconv.Itoa(*v)
}
