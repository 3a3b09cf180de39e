// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package catalog

import "github.com/tcgatlas/tcgatlas/internal/models"

// ApplyDerivedFields recomputes a card's ranking fields (rarity_tier,
// price_usd) from its game, rarity and prices. Called on every card before
// persistence so the derived values can never drift from their inputs.
func ApplyDerivedFields(card *models.Card) {
	game, ok := ParseGameID(card.GameID)
	if !ok {
		card.RarityTier = nil
		card.PriceUSD = nil
		return
	}
	card.RarityTier = RarityTier(game, card.Rarity)
	card.PriceUSD = PriceUSD(game, card.Prices)
}
