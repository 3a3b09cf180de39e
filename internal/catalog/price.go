// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package catalog

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tcgatlas/tcgatlas/internal/models"
)

// PriceUSD extracts a representative market price from a card's raw price
// payload. Returns nil when no usable price exists; a missing or unparsable
// price is never reported as zero. The extraction never fails: malformed
// payloads degrade to nil.
func PriceUSD(game GameID, prices *models.CardPrices) *float64 {
	if prices == nil {
		return nil
	}
	switch game {
	case GameMTG:
		return scryfallUSD(prices.Scryfall)
	case GameOnePiece:
		return positive(prices.Market)
	case GameYugioh:
		return ygoprodeckUSD(prices.YGOProDeck)
	default:
		// Pokémon and any game without a dedicated branch read the
		// tcgplayer structure.
		return tcgplayerUSD(prices.TCGPlayer)
	}
}

// scryfallUSD reads prices.scryfall.prices.usd, a string-encoded dollar value.
func scryfallUSD(p *models.ScryfallPrices) *float64 {
	if p == nil {
		return nil
	}
	usd, ok := p.Prices["usd"]
	if !ok || usd == nil {
		return nil
	}
	return parsePositive(*usd)
}

// ygoprodeckUSD prefers the TCGplayer quote and falls back to Cardmarket.
// Cardmarket prices are EUR but serve as a rough stand-in when TCGplayer has
// no listing.
func ygoprodeckUSD(p map[string]string) *float64 {
	if p == nil {
		return nil
	}
	if v := parsePositive(p["tcgplayer_price"]); v != nil {
		return v
	}
	return parsePositive(p["cardmarket_price"])
}

// tcgplayerUSD reads the first listed price-variant object. The market price
// wins whenever the key is present, even at zero; mid is consulted only when
// market is absent. Variant order is significant, so the variants object is
// scanned as a token stream rather than decoded into a map.
func tcgplayerUSD(p *models.TCGPlayerPrices) *float64 {
	if p == nil || len(p.Prices) == 0 {
		return nil
	}
	variant, ok := firstVariant(p.Prices)
	if !ok {
		return nil
	}
	if v, ok := variant["market"]; ok {
		return positive(&v)
	}
	if v, ok := variant["mid"]; ok {
		return positive(&v)
	}
	return nil
}

// firstVariant decodes the first key's value from a JSON object of
// {variant: {priceKind: number}} without losing key order.
func firstVariant(raw json.RawMessage) (map[string]float64, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, false
	}
	if !dec.More() {
		return nil, false
	}
	// First key
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	var variant map[string]float64
	if err := dec.Decode(&variant); err != nil {
		return nil, false
	}
	return variant, true
}

// parsePositive parses a decimal string, returning nil unless it is a
// positive finite number.
func parsePositive(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return positive(&v)
}

// positive filters out nil, zero and negative values.
func positive(v *float64) *float64 {
	if v == nil || !(*v > 0) {
		return nil
	}
	out := *v
	return &out
}
