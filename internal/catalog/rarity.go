// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package catalog

import "strings"

// Rarity tiers map heterogeneous per-game rarity vocabularies onto a shared
// 1..5 ordinal scale used by featured ranking. A nil tier means the rarity is
// unknown or unmapped; ranking sorts unknowns after every known tier.

// pokemonTiers maps exact Pokémon rarity strings (case-sensitive).
var pokemonTiers = map[string]int{
	"Illustration Rare":         5,
	"Special Art Rare":          5,
	"Hyper Rare":                5,
	"Crown Rare":                5,
	"Rare Secret":               5,
	"Double Rare":               5,
	"ACE SPEC Rare":             5,
	"Rare Holo V":               4,
	"Rare Holo VMAX":            4,
	"Rare Holo VSTAR":           4,
	"Rare Holo GX":              4,
	"Rare Holo EX":              4,
	"Ultra Rare":                4,
	"Amazing Rare":              4,
	"Rare Holo":                 3,
	"Rare BREAK":                3,
	"Rare Prime":                3,
	"Rare Shiny":                3,
	"Rare":                      2,
	"Uncommon":                  2,
	"Common":                    1,
	"Promo":                     1,
}

// mtgTiers maps Scryfall rarity codes; lookups lowercase the input first.
var mtgTiers = map[string]int{
	"mythic":   5,
	"special":  5,
	"rare":     4,
	"bonus":    3,
	"uncommon": 2,
	"common":   1,
}

// onePieceTiers maps both long names and printed codes (case-sensitive).
var onePieceTiers = map[string]int{
	"Secret Rare": 5,
	"SEC":         5,
	"Manga Rare":  5,
	"SP":          5,
	"Super Rare":  4,
	"SR":          4,
	"Leader":      4,
	"L":           4,
	"Rare":        3,
	"R":           3,
	"Uncommon":    2,
	"UC":          2,
	"Common":      1,
	"C":           1,
	"Promo":       1,
	"P":           1,
}

// gundamTiers maps both printed codes and long names (case-sensitive).
// "SR" outranks the spelled-out "Super Rare" because the printed SR code
// marks the premium finish in this game's data.
var gundamTiers = map[string]int{
	"SR":           5,
	"Special Rare": 5,
	"Super Rare":   4,
	"R":            3,
	"Rare":         3,
	"N":            1,
	"Normal":       1,
	"C":            1,
	"Common":       1,
	"P":            1,
	"Promo":        1,
}

// RarityTier converts a raw rarity label to the shared 1..5 tier for the
// given game. Returns nil for nil/unmapped labels; it never fails.
func RarityTier(game GameID, rarity *string) *int {
	if rarity == nil || *rarity == "" {
		return nil
	}
	var tier int
	var ok bool
	switch game {
	case GamePokemon:
		tier, ok = pokemonTiers[*rarity]
	case GameMTG:
		tier, ok = mtgTiers[strings.ToLower(*rarity)]
	case GameOnePiece:
		tier, ok = onePieceTiers[*rarity]
	case GameGundam:
		tier, ok = gundamTiers[*rarity]
	case GameYugioh:
		return yugiohRarityTier(*rarity)
	}
	if !ok {
		return nil
	}
	return &tier
}

// yugiohRarityTier classifies Yu-Gi-Oh! rarities by substring because the
// upstream vocabulary is open-ended ("Prismatic Secret Rare", "Ultra Rare
// (UTR)", ...). Match order is highest tier first so compound names land on
// their most specific component.
func yugiohRarityTier(rarity string) *int {
	r := strings.ToLower(rarity)
	tier := func(n int) *int { return &n }
	switch {
	case strings.Contains(r, "starlight"),
		strings.Contains(r, "ghost"),
		strings.Contains(r, "prismatic"),
		strings.Contains(r, "collector"):
		return tier(5)
	case strings.Contains(r, "secret"), strings.Contains(r, "ultimate"):
		return tier(4)
	case strings.Contains(r, "ultra"):
		return tier(3)
	case strings.Contains(r, "super"):
		return tier(2)
	case strings.Contains(r, "rare"),
		strings.Contains(r, "common"),
		strings.Contains(r, "short print"):
		return tier(1)
	}
	return nil
}
