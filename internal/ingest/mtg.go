// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package ingest

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tcgatlas/tcgatlas/internal/catalog"
	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/logging"
	"github.com/tcgatlas/tcgatlas/internal/models"
)

// MTGSource ingests Magic: The Gathering from Scryfall. Runs are
// incremental: only sets not yet present locally are imported, paging
// through the search API per set. Ids are prefixed "mtg-".
type MTGSource struct {
	store  Store
	client *client
	cfg    *config.IngestConfig
}

func NewMTGSource(store Store, cfg *config.IngestConfig) *MTGSource {
	return &MTGSource{
		store:  store,
		client: newClient(cfg.HTTPTimeout, 10, nil),
		cfg:    cfg,
	}
}

func (s *MTGSource) Game() catalog.GameID { return catalog.GameMTG }

// mtgValidSetTypes whitelists physical product set types; everything else
// (memorabilia, alchemy, minigames, ...) is excluded alongside digital sets.
var mtgValidSetTypes = map[string]bool{
	"expansion":        true,
	"core":             true,
	"masters":          true,
	"draft_innovation": true,
	"commander":        true,
	"funny":            true,
	"starter":          true,
	"reprint":          true,
}

// mtgColorNames maps Scryfall single-letter color codes to display names.
var mtgColorNames = map[string]string{
	"W": "White",
	"U": "Blue",
	"B": "Black",
	"R": "Red",
	"G": "Green",
}

// mtgSkipLayouts are non-playable card layouts excluded from the catalog.
var mtgSkipLayouts = map[string]bool{
	"token":      true,
	"emblem":     true,
	"art_series": true,
}

type scryfallSet struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	SetType    string `json:"set_type"`
	ReleasedAt string `json:"released_at"`
	IconSVGURI string `json:"icon_svg_uri"`
	CardCount  int    `json:"card_count"`
	Digital    bool   `json:"digital"`
}

type scryfallImageURIs struct {
	Small  string `json:"small"`
	Large  string `json:"large"`
	Normal string `json:"normal"`
}

type scryfallCard struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	TypeLine   string             `json:"type_line"`
	CMC        *float64           `json:"cmc"`
	OracleText string             `json:"oracle_text"`
	Colors     []string           `json:"colors"`
	Rarity     string             `json:"rarity"`
	Artist     string             `json:"artist"`
	FlavorText string             `json:"flavor_text"`
	Power      string             `json:"power"`
	Toughness  string             `json:"toughness"`
	Set        string             `json:"set"`
	Layout     string             `json:"layout"`
	Digital    bool               `json:"digital"`
	Legalities map[string]string  `json:"legalities"`
	Prices     map[string]*string `json:"prices"`
	ImageURIs  *scryfallImageURIs `json:"image_uris"`
	CardFaces  []struct {
		ImageURIs *scryfallImageURIs `json:"image_uris"`
	} `json:"card_faces"`
}

type scryfallList struct {
	Data     []json.RawMessage `json:"data"`
	HasMore  bool              `json:"has_more"`
	NextPage string            `json:"next_page"`
}

// Run lists Scryfall sets, keeps physical sets of whitelisted types that are
// not stored yet, and imports their cards page by page. A failed page aborts
// that set's pagination but not the run.
func (s *MTGSource) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Source: s.Game().String()}
	w := newWriter(s.store, s.cfg.CardBatchSize, s.cfg.SetBatchSize, summary)
	base := s.cfg.MTG.BaseURL

	var setList struct {
		Data []scryfallSet `json:"data"`
	}
	if err := s.client.getJSON(ctx, base+"/sets", &setList); err != nil {
		return summary, fmt.Errorf("sets fetch failed: %w", err)
	}

	physical := make([]scryfallSet, 0, len(setList.Data))
	for _, set := range setList.Data {
		if mtgValidSetTypes[set.SetType] && !set.Digital {
			physical = append(physical, set)
		}
	}

	existingIDs, err := s.store.GetSetIDs(ctx, s.Game().String())
	if err != nil {
		return summary, fmt.Errorf("existing set lookup failed: %w", err)
	}
	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	newSets := physical[:0:0]
	for _, set := range physical {
		if !existing["mtg-"+set.Code] {
			newSets = append(newSets, set)
		}
	}
	if len(newSets) == 0 {
		summary.Skipped = true
		logging.Info().Int("known_sets", len(physical)).Msg("MTG catalog up to date")
		return summary, nil
	}

	setRows := make([]models.CardSet, 0, len(newSets))
	for _, set := range newSets {
		setRows = append(setRows, models.CardSet{
			ID:          "mtg-" + set.Code,
			GameID:      s.Game().String(),
			Name:        set.Name,
			Series:      nonEmpty(set.SetType),
			ReleaseDate: nonEmpty(set.ReleasedAt),
			LogoURL:     nonEmpty(set.IconSVGURI),
			SymbolURL:   nonEmpty(set.IconSVGURI),
			Total:       set.CardCount,
		})
	}
	w.writeSets(ctx, setRows)

	for _, set := range newSets {
		if err := s.ingestSetCards(ctx, w, set.Code); err != nil {
			w.recordError(fmt.Errorf("set %s aborted: %w", set.Code, err))
		}
	}

	return summary, nil
}

// ingestSetCards pages through cards/search for one set.
func (s *MTGSource) ingestSetCards(ctx context.Context, w *writer, code string) error {
	pageURL := fmt.Sprintf("%s/cards/search?q=%s&order=set&page=1",
		s.cfg.MTG.BaseURL, url.QueryEscape("e:"+code+" not:digital"))

	for pageURL != "" {
		if err := sleepCtx(ctx, s.cfg.MTG.PageDelay); err != nil {
			return err
		}

		var page scryfallList
		if err := s.client.getJSON(ctx, pageURL, &page); err != nil {
			return err
		}

		cards := make([]models.Card, 0, len(page.Data))
		for _, raw := range page.Data {
			var sc scryfallCard
			if err := json.Unmarshal(raw, &sc); err != nil {
				w.recordError(fmt.Errorf("bad card in set %s: %w", code, err))
				continue
			}
			if mtgSkipLayouts[sc.Layout] {
				continue
			}
			cards = append(cards, s.mapCard(&sc, raw))
		}
		w.writeCards(ctx, cards)

		pageURL = ""
		if page.HasMore {
			pageURL = page.NextPage
		}
	}
	return nil
}

func (s *MTGSource) mapCard(sc *scryfallCard, raw json.RawMessage) models.Card {
	images := sc.ImageURIs
	if images == nil && len(sc.CardFaces) > 0 {
		images = sc.CardFaces[0].ImageURIs
	}

	var imageSmall, imageLarge *string
	if images != nil {
		imageSmall = nonEmpty(images.Small)
		if images.Large != "" {
			imageLarge = nonEmpty(images.Large)
		} else {
			imageLarge = nonEmpty(images.Normal)
		}
	}

	colors := make([]string, 0, len(sc.Colors))
	for _, code := range sc.Colors {
		if name, ok := mtgColorNames[code]; ok {
			colors = append(colors, name)
		} else {
			colors = append(colors, code)
		}
	}

	var hp *int
	if sc.CMC != nil {
		v := int(math.Floor(*sc.CMC))
		hp = &v
	}

	var attacks []models.Attack
	if sc.OracleText != "" {
		attacks = []models.Attack{{Name: "Oracle Text", Text: sc.OracleText}}
	}
	var weaknesses []models.TypeValue
	if sc.Power != "" || sc.Toughness != "" {
		weaknesses = []models.TypeValue{{Type: "P/T", Value: sc.Power + "/" + sc.Toughness}}
	}

	var prices *models.CardPrices
	if sc.Prices != nil {
		prices = &models.CardPrices{Scryfall: &models.ScryfallPrices{Prices: sc.Prices}}
	}

	setID := "mtg-" + sc.Set
	card := models.Card{
		ID:         "mtg-" + sc.ID,
		GameID:     s.Game().String(),
		SetID:      &setID,
		Name:       sc.Name,
		ImageSmall: imageSmall,
		ImageLarge: imageLarge,
		Supertype:  parseMTGSupertype(sc.TypeLine),
		Subtypes:   parseMTGSubtypes(sc.TypeLine),
		Types:      colors,
		HP:         hp,
		Rarity:     nonEmpty(sc.Rarity),
		Artist:     nonEmpty(sc.Artist),
		FlavorText: nonEmpty(sc.FlavorText),
		Attacks:    attacks,
		Weaknesses: weaknesses,
		Legalities: sc.Legalities,
		Prices:     prices,
		RawData:    raw,
	}
	catalog.ApplyDerivedFields(&card)
	return card
}

// mtgTypeLineSeparator splits a Scryfall type line into card types and
// subtypes ("Legendary Creature — Elf Warrior").
const mtgTypeLineSeparator = "—"

// parseMTGSupertype takes the first word of the type line's left side after
// dropping the supertype qualifiers Magic prints before the card type.
func parseMTGSupertype(typeLine string) *string {
	if typeLine == "" {
		return nil
	}
	main := strings.TrimSpace(strings.SplitN(typeLine, mtgTypeLineSeparator, 2)[0])
	for _, word := range strings.Fields(main) {
		switch word {
		case "Legendary", "Basic", "Snow", "World":
			continue
		}
		return &word
	}
	return nil
}

// parseMTGSubtypes takes the words right of the type line separator.
func parseMTGSubtypes(typeLine string) []string {
	parts := strings.SplitN(typeLine, mtgTypeLineSeparator, 2)
	if len(parts) < 2 {
		return nil
	}
	return strings.Fields(strings.TrimSpace(parts[1]))
}
