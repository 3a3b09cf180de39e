// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tcgatlas/tcgatlas/internal/catalog"
	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/logging"
	"github.com/tcgatlas/tcgatlas/internal/models"
)

// PokemonSource ingests the Pokémon TCG catalog from the community data
// mirror on GitHub: one sets index plus one JSON file of cards per set.
// Card ids are the upstream native ids (e.g. "xy1-1"), so no prefix is added.
type PokemonSource struct {
	store  Store
	client *client
	cfg    *config.IngestConfig
}

func NewPokemonSource(store Store, cfg *config.IngestConfig) *PokemonSource {
	return &PokemonSource{
		store:  store,
		client: newClient(cfg.HTTPTimeout, 10, nil),
		cfg:    cfg,
	}
}

func (s *PokemonSource) Game() catalog.GameID { return catalog.GamePokemon }

type pokemonSet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Series      string `json:"series"`
	ReleaseDate string `json:"releaseDate"`
	Total       int    `json:"total"`
	Images      struct {
		Symbol string `json:"symbol"`
		Logo   string `json:"logo"`
	} `json:"images"`
}

type pokemonCard struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	Supertype            string              `json:"supertype"`
	Subtypes             []string            `json:"subtypes"`
	HP                   string              `json:"hp"`
	Types                []string            `json:"types"`
	EvolvesFrom          string              `json:"evolvesFrom"`
	EvolvesTo            []string            `json:"evolvesTo"`
	Abilities            []models.Ability    `json:"abilities"`
	Attacks              []models.Attack     `json:"attacks"`
	Weaknesses           []models.TypeValue  `json:"weaknesses"`
	Resistances          []models.TypeValue  `json:"resistances"`
	ConvertedRetreatCost *int                `json:"convertedRetreatCost"`
	Number               string              `json:"number"`
	Artist               string              `json:"artist"`
	Rarity               string              `json:"rarity"`
	FlavorText           string              `json:"flavorText"`
	Legalities           map[string]string   `json:"legalities"`
	Images               struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"images"`
}

// Run fetches the sets index, then every per-set card file. A set whose card
// file cannot be fetched is skipped with an error recorded; the run continues.
func (s *PokemonSource) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Source: s.Game().String()}
	w := newWriter(s.store, s.cfg.CardBatchSize, s.cfg.SetBatchSize, summary)
	base := s.cfg.Pokemon.DataBaseURL

	var sets []pokemonSet
	if err := s.client.getJSON(ctx, base+"/sets/en.json", &sets); err != nil {
		return summary, fmt.Errorf("sets fetch failed: %w", err)
	}

	setRows := make([]models.CardSet, 0, len(sets))
	for _, ps := range sets {
		setRows = append(setRows, models.CardSet{
			ID:          ps.ID,
			GameID:      s.Game().String(),
			Name:        ps.Name,
			Series:      nonEmpty(ps.Series),
			ReleaseDate: nonEmpty(strings.ReplaceAll(ps.ReleaseDate, "/", "-")),
			LogoURL:     nonEmpty(ps.Images.Logo),
			SymbolURL:   nonEmpty(ps.Images.Symbol),
			Total:       ps.Total,
		})
	}
	w.writeSets(ctx, setRows)

	for _, ps := range sets {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		var raws []json.RawMessage
		if err := s.client.getJSON(ctx, fmt.Sprintf("%s/cards/en/%s.json", base, ps.ID), &raws); err != nil {
			w.recordError(fmt.Errorf("skipping set %s: %w", ps.ID, err))
			continue
		}

		cards := make([]models.Card, 0, len(raws))
		for _, raw := range raws {
			var pc pokemonCard
			if err := json.Unmarshal(raw, &pc); err != nil {
				w.recordError(fmt.Errorf("bad card in set %s: %w", ps.ID, err))
				continue
			}
			cards = append(cards, s.mapCard(&pc, ps.ID, raw))
		}
		written := w.writeCards(ctx, cards)
		logging.Debug().Str("set", ps.ID).Int("cards", written).Msg("Pokemon set ingested")
	}

	return summary, nil
}

func (s *PokemonSource) mapCard(pc *pokemonCard, setID string, raw json.RawMessage) models.Card {
	card := models.Card{
		ID:          pc.ID,
		GameID:      s.Game().String(),
		SetID:       &setID,
		Name:        pc.Name,
		ImageSmall:  nonEmpty(pc.Images.Small),
		ImageLarge:  nonEmpty(pc.Images.Large),
		Supertype:   nonEmpty(pc.Supertype),
		Subtypes:    pc.Subtypes,
		Types:       pc.Types,
		HP:          parseIntOrNil(pc.HP),
		Rarity:      nonEmpty(pc.Rarity),
		Artist:      nonEmpty(pc.Artist),
		FlavorText:  nonEmpty(pc.FlavorText),
		Number:      nonEmpty(pc.Number),
		Attacks:     pc.Attacks,
		Abilities:   pc.Abilities,
		Weaknesses:  pc.Weaknesses,
		Resistances: pc.Resistances,
		RetreatCost: pc.ConvertedRetreatCost,
		Legalities:  pc.Legalities,
		EvolvesFrom: nonEmpty(pc.EvolvesFrom),
		EvolvesTo:   pc.EvolvesTo,
		RawData:     raw,
	}
	catalog.ApplyDerivedFields(&card)
	return card
}

// nonEmpty converts "" to nil so empty upstream strings become SQL NULL.
func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseIntOrNil parses the leading digits of hp-like strings ("120", "30+").
// Unparsable or zero is nil, never 0.
func parseIntOrNil(s string) *int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n == 0 {
		return nil
	}
	return &n
}
