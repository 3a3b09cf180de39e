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

// gundamSetIDs enumerates the data mirror's per-set card files. The mirror
// publishes no set index, so the list is fixed and extended by hand when new
// products release.
var gundamSetIDs = []string{
	"st01", "st02", "st03", "st04", "st05", "st06",
	"gd01", "gd02", "beta", "promotion",
}

// GundamSource ingests the Gundam Card Game from the community data mirror
// on GitHub. Set metadata comes from each file's first card, since the
// mirror has no separate set listing. Ids are prefixed "gd-".
type GundamSource struct {
	store  Store
	client *client
	cfg    *config.IngestConfig
}

func NewGundamSource(store Store, cfg *config.IngestConfig) *GundamSource {
	return &GundamSource{
		store:  store,
		client: newClient(cfg.HTTPTimeout, 10, nil),
		cfg:    cfg,
	}
}

func (s *GundamSource) Game() catalog.GameID { return catalog.GameGundam }

type gundamCard struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Rarity   string `json:"rarity"`
	Name     string `json:"name"`
	Images   struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"images"`
	Level       string `json:"level"`
	Cost        string `json:"cost"`
	Color       string `json:"color"`
	CardType    string `json:"cardType"`
	Effect      string `json:"effect"`
	Zone        string `json:"zone"`
	Trait       string `json:"trait"`
	AP          string `json:"ap"`
	HP          string `json:"hp"`
	SourceTitle string `json:"sourceTitle"`
	Set         struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"set"`
}

// Run fetches each known set file; missing files (unreleased products) are
// skipped quietly, other failures are recorded. The run always continues to
// the next set.
func (s *GundamSource) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Source: s.Game().String()}
	w := newWriter(s.store, s.cfg.CardBatchSize, s.cfg.SetBatchSize, summary)
	base := s.cfg.Gundam.DataBaseURL

	seenSets := make(map[string]bool)
	for _, setFileID := range gundamSetIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var raws []json.RawMessage
		if err := s.client.getJSON(ctx, fmt.Sprintf("%s/cards/en/%s.json", base, setFileID), &raws); err != nil {
			w.recordError(fmt.Errorf("skipping %s: %w", setFileID, err))
			continue
		}
		if len(raws) == 0 {
			continue
		}

		cards := make([]models.Card, 0, len(raws))
		for _, raw := range raws {
			var gc gundamCard
			if err := json.Unmarshal(raw, &gc); err != nil {
				w.recordError(fmt.Errorf("bad card in %s: %w", setFileID, err))
				continue
			}
			cards = append(cards, s.mapCard(&gc, setFileID, raw))
		}

		// The mirror has no set listing; the first card carries the
		// set's id and name.
		var first gundamCard
		if err := json.Unmarshal(raws[0], &first); err == nil && first.Set.ID != "" && !seenSets[first.Set.ID] {
			seenSets[first.Set.ID] = true
			w.writeSets(ctx, []models.CardSet{{
				ID:     "gd-" + first.Set.ID,
				GameID: s.Game().String(),
				Name:   first.Set.Name,
				Total:  len(raws),
			}})
		}

		w.writeCards(ctx, cards)
	}

	return summary, nil
}

func (s *GundamSource) mapCard(gc *gundamCard, setFileID string, raw json.RawMessage) models.Card {
	setCode := gc.Set.ID
	if setCode == "" {
		setCode = setFileID
	}
	setID := "gd-" + setCode

	var types []string
	if gc.Color != "" {
		types = []string{gc.Color}
	}

	var attacks []models.Attack
	if gc.Effect != "" {
		attacks = []models.Attack{{Name: "Effect", Text: gc.Effect}}
	}
	var weaknesses []models.TypeValue
	if gc.AP != "" {
		weaknesses = []models.TypeValue{{Type: "AP", Value: gc.AP}}
	}
	var resistances []models.TypeValue
	if gc.Zone != "" {
		resistances = []models.TypeValue{{Type: "Zone", Value: gc.Zone}}
	}

	card := models.Card{
		ID:          "gd-" + gc.ID,
		GameID:      s.Game().String(),
		SetID:       &setID,
		Name:        gc.Name,
		ImageSmall:  nonEmpty(gc.Images.Small),
		ImageLarge:  nonEmpty(gc.Images.Large),
		Supertype:   nonEmpty(gc.CardType),
		Subtypes:    parseGundamTraits(gc.Trait),
		Types:       types,
		HP:          parseIntOrNil(gc.HP),
		Rarity:      nonEmpty(gc.Rarity),
		FlavorText:  nonEmpty(gc.SourceTitle),
		Number:      nonEmpty(gc.Code),
		Attacks:     attacks,
		Weaknesses:  weaknesses,
		Resistances: resistances,
		RetreatCost: parseIntOrNil(gc.Cost),
		RawData:     raw,
	}
	catalog.ApplyDerivedFields(&card)
	return card
}

// parseGundamTraits splits the printed trait line "(Earth Federation) / (White Base Team)"
// into individual trait names.
func parseGundamTraits(trait string) []string {
	if trait == "" {
		return nil
	}
	cleaned := strings.NewReplacer("(", "", ")", "").Replace(trait)
	var traits []string
	for _, part := range strings.FieldsFunc(cleaned, func(r rune) bool { return r == ',' || r == '/' }) {
		if part = strings.TrimSpace(part); part != "" {
			traits = append(traits, part)
		}
	}
	return traits
}
