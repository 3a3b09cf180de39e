// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/tcgatlas/tcgatlas/internal/catalog"
	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/logging"
	"github.com/tcgatlas/tcgatlas/internal/models"
)

// PokemonPriceUpdater refreshes Pokémon card prices from pokemontcg.io
// without touching any other card data. The card data mirror carries no
// prices, so this pass is the only thing that populates them.
//
// The API is heavily rate limited: pages are fetched with a fixed delay, a
// failed page is retried once after a longer pause and then skipped. Skipped
// pages leave those cards' previous prices in place.
type PokemonPriceUpdater struct {
	store  Store
	client *client
	cfg    *config.PokemonIngestConfig
}

func NewPokemonPriceUpdater(store Store, cfg *config.IngestConfig) *PokemonPriceUpdater {
	headers := map[string]string{}
	if cfg.Pokemon.PriceAPIKey != "" {
		headers["X-Api-Key"] = cfg.Pokemon.PriceAPIKey
	}
	return &PokemonPriceUpdater{
		store:  store,
		client: newClient(cfg.HTTPTimeout, 0, headers),
		cfg:    &cfg.Pokemon,
	}
}

type pokemonPriceCard struct {
	ID         string                   `json:"id"`
	TCGPlayer  *models.TCGPlayerPrices  `json:"tcgplayer"`
	Cardmarket *models.CardmarketPrices `json:"cardmarket"`
}

type pokemonPricePage struct {
	Data       []pokemonPriceCard `json:"data"`
	TotalCount int                `json:"totalCount"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
}

// Run walks every page of the price API and updates stored cards that have
// at least one price branch. Cards unknown locally are counted as misses,
// not errors.
func (u *PokemonPriceUpdater) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Source: "pokemon/prices"}
	start := time.Now()

	pageSize := u.cfg.PricePageSize
	if pageSize <= 0 {
		pageSize = 250
	}

	page := 1
	totalPages := 1
	for page <= totalPages {
		data, err := u.fetchPage(ctx, page, pageSize)
		if err != nil {
			logging.Warn().Err(err).Int("page", page).Msg("Price page failed, retrying once")
			if err := sleepCtx(ctx, u.cfg.PriceRetryDelay); err != nil {
				return summary, err
			}
			data, err = u.fetchPage(ctx, page, pageSize)
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("page %d skipped: %v", page, err))
				page++
				continue
			}
		}

		totalPages = (data.TotalCount + pageSize - 1) / pageSize

		for _, pc := range data.Data {
			if pc.TCGPlayer == nil && pc.Cardmarket == nil {
				continue
			}
			prices := &models.CardPrices{TCGPlayer: pc.TCGPlayer, Cardmarket: pc.Cardmarket}
			priceUSD := catalog.PriceUSD(catalog.GamePokemon, prices)
			updated, err := u.store.UpdateCardPrices(ctx, pc.ID, prices, priceUSD)
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("card %s: %v", pc.ID, err))
				continue
			}
			if updated {
				summary.Updated++
			}
		}

		page++
		if page <= totalPages {
			if err := sleepCtx(ctx, u.cfg.PricePageDelay); err != nil {
				return summary, err
			}
		}
	}

	summary.Duration = time.Since(start).Round(time.Millisecond).String()
	logging.Info().Int("updated", summary.Updated).Int("errors", len(summary.Errors)).
		Str("duration", summary.Duration).Msg("Pokemon price update finished")
	return summary, nil
}

func (u *PokemonPriceUpdater) fetchPage(ctx context.Context, page, pageSize int) (*pokemonPricePage, error) {
	url := fmt.Sprintf("%s/cards?page=%d&pageSize=%d&select=id,tcgplayer,cardmarket",
		u.cfg.PriceAPIBaseURL, page, pageSize)
	var data pokemonPricePage
	if err := u.client.getJSON(ctx, url, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
