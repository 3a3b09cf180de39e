// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

// Package models defines the normalized catalog schema shared by the
// ingestion pipeline, the query engine and the HTTP API.
package models

import (
	"github.com/goccy/go-json"
)

// Card is a normalized catalog record for one collectible card. Cards from
// all five games share this shape; ids are source-prefixed (e.g. "mtg-<uuid>",
// "gd-<code>") and therefore unique across games.
//
// The hp field is overloaded per game (hit points, mana value, level, power);
// use catalog.GameID.StatName for presentation. It is always a non-negative
// integer or null.
type Card struct {
	ID         string   `json:"id"`
	GameID     string   `json:"game_id"`
	SetID      *string  `json:"set_id"`
	Name       string   `json:"name"`
	ImageSmall *string  `json:"image_small"`
	ImageLarge *string  `json:"image_large"`
	Supertype  *string  `json:"supertype"`
	Subtypes   []string `json:"subtypes"`
	Types      []string `json:"types"`
	HP         *int     `json:"hp"`
	Rarity     *string  `json:"rarity"`
	Artist     *string  `json:"artist"`
	FlavorText *string  `json:"flavor_text"`
	Number     *string  `json:"number"`

	Attacks     []Attack    `json:"attacks"`
	Abilities   []Ability   `json:"abilities"`
	Weaknesses  []TypeValue `json:"weaknesses"`
	Resistances []TypeValue `json:"resistances"`

	// RetreatCost is overloaded per game: retreat cost (Pokémon), life
	// (One Piece), deploy cost (Gundam). Null elsewhere.
	RetreatCost *int              `json:"retreat_cost"`
	Legalities  map[string]string `json:"legalities"`
	Prices      *CardPrices       `json:"prices"`

	// Pokémon-only evolution lineage; null/empty for other games.
	EvolvesFrom *string  `json:"evolves_from"`
	EvolvesTo   []string `json:"evolves_to"`

	// Derived ranking fields, computed at ingestion time from game id,
	// rarity and prices. Never independently authored.
	RarityTier *int     `json:"rarity_tier"`
	PriceUSD   *float64 `json:"price_usd"`

	// RawData is the untouched upstream payload kept for provenance and
	// audits. Query logic must never depend on its shape.
	RawData json.RawMessage `json:"-"`
}

// Attack is one structured text block on a card. Games that have no attack
// concept store rule/effect text as a single pseudo-attack.
type Attack struct {
	Name                string   `json:"name"`
	Cost                []string `json:"cost,omitempty"`
	ConvertedEnergyCost int      `json:"convertedEnergyCost,omitempty"`
	Damage              string   `json:"damage,omitempty"`
	Text                string   `json:"text,omitempty"`
}

// Ability is a named passive ability (Pokémon only in practice).
type Ability struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

// TypeValue is a generic type/value pair used for weaknesses and
// resistances. Semantics vary by game (e.g. MTG stores power/toughness as a
// "P/T" pair, Yu-Gi-Oh! stores "ATK/DEF").
type TypeValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// CardPrices is a tagged union keyed by originating price source. Exactly
// one branch is populated per game family. Branches are not independently
// validated: malformed payloads degrade to "no price" at derivation time
// rather than failing ingestion.
type CardPrices struct {
	TCGPlayer  *TCGPlayerPrices  `json:"tcgplayer,omitempty"`
	Cardmarket *CardmarketPrices `json:"cardmarket,omitempty"`
	Scryfall   *ScryfallPrices   `json:"scryfall,omitempty"`
	YGOProDeck map[string]string `json:"ygoprodeck,omitempty"`
	Market     *float64          `json:"market,omitempty"`
}

// TCGPlayerPrices holds multi-vendor structured pricing (Pokémon). Prices is
// kept raw because variant order matters: price derivation reads the first
// listed variant object, which a Go map cannot preserve.
type TCGPlayerPrices struct {
	URL       string          `json:"url,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
	Prices    json.RawMessage `json:"prices,omitempty"`
}

// CardmarketPrices holds flat EUR pricing (Pokémon secondary source).
type CardmarketPrices struct {
	URL       string             `json:"url,omitempty"`
	UpdatedAt string             `json:"updatedAt,omitempty"`
	Prices    map[string]float64 `json:"prices,omitempty"`
}

// ScryfallPrices holds string-encoded pricing from Scryfall (MTG).
type ScryfallPrices struct {
	Prices map[string]*string `json:"prices,omitempty"`
}

// CardSet is a named grouping of cards from one game, typically a physical
// product release. Total is the upstream-declared card count; it is
// informational only and never enforced against the actual linked cards.
type CardSet struct {
	ID          string  `json:"id"`
	GameID      string  `json:"game_id"`
	Name        string  `json:"name"`
	Series      *string `json:"series"`
	ReleaseDate *string `json:"release_date"`
	LogoURL     *string `json:"logo_url"`
	SymbolURL   *string `json:"symbol_url"`
	Total       int     `json:"total"`
}

// CardSetLink associates a card with a set for games where cards appear in
// multiple sets (Yu-Gi-Oh!). Uniqueness is on the (CardID, SetID) pair.
type CardSetLink struct {
	CardID string `json:"card_id"`
	SetID  string `json:"set_id"`
}
