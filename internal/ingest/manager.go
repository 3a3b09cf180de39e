// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tcgatlas/tcgatlas/internal/catalog"
	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/logging"
	"github.com/tcgatlas/tcgatlas/internal/metrics"
)

// RunSummary is the operator-facing result of one ingest run.
type RunSummary struct {
	Source   string   `json:"source"`
	Sets     int      `json:"sets"`
	Cards    int      `json:"cards"`
	Links    int      `json:"links,omitempty"`
	Updated  int      `json:"updated,omitempty"`
	Skipped  bool     `json:"skipped,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Duration string   `json:"duration"`
}

// Source ingests one game's catalog from its upstream.
type Source interface {
	// Game identifies which catalog partition this source writes.
	Game() catalog.GameID
	// Run executes a full ingest. The returned summary is non-nil even on
	// error; the error marks a run that could not reach its upstream at all.
	Run(ctx context.Context) (*RunSummary, error)
}

// ErrRunInProgress is returned when a source is triggered while a previous
// run for the same source is still executing.
var ErrRunInProgress = fmt.Errorf("ingest run already in progress")

// ErrUnknownSource is returned for trigger names outside the game enum.
var ErrUnknownSource = fmt.Errorf("unknown ingest source")

// Manager owns the source registry and enforces single-flight per source.
type Manager struct {
	sources      map[catalog.GameID]Source
	priceUpdater *PokemonPriceUpdater
	parallelism  int

	mu           sync.Mutex
	running      map[catalog.GameID]bool
	priceRunning bool
}

// NewManager builds the source registry from configuration.
func NewManager(store Store, cfg *config.IngestConfig) *Manager {
	m := &Manager{
		sources:      make(map[catalog.GameID]Source),
		priceUpdater: NewPokemonPriceUpdater(store, cfg),
		parallelism:  cfg.Parallelism,
		running:      make(map[catalog.GameID]bool),
	}
	for _, src := range []Source{
		NewPokemonSource(store, cfg),
		NewMTGSource(store, cfg),
		NewYugiohSource(store, cfg),
		NewOnePieceSource(store, cfg),
		NewGundamSource(store, cfg),
	} {
		m.register(src)
	}
	return m
}

// NewManagerWithSources builds a manager over an explicit source list.
func NewManagerWithSources(parallelism int, sources ...Source) *Manager {
	m := &Manager{
		sources:     make(map[catalog.GameID]Source),
		parallelism: parallelism,
		running:     make(map[catalog.GameID]bool),
	}
	for _, src := range sources {
		m.register(src)
	}
	return m
}

func (m *Manager) register(src Source) {
	m.sources[src.Game()] = src
}

// Run executes a single source by name. Unknown names return
// ErrUnknownSource; concurrent triggers for the same source return
// ErrRunInProgress.
func (m *Manager) Run(ctx context.Context, name string) (*RunSummary, error) {
	game, ok := catalog.ParseGameID(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	src, ok := m.sources[game]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}

	if !m.tryAcquire(game) {
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, game)
	}
	defer m.release(game)

	return m.runSource(ctx, src)
}

// RunPokemonPrices executes the Pokémon price refresh pass. It holds its own
// single-flight slot, independent of the pokemon card source, since a price
// refresh and a card ingest do not conflict.
func (m *Manager) RunPokemonPrices(ctx context.Context) (*RunSummary, error) {
	if m.priceUpdater == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, "pokemon/prices")
	}

	m.mu.Lock()
	if m.priceRunning {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: pokemon/prices", ErrRunInProgress)
	}
	m.priceRunning = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.priceRunning = false
		m.mu.Unlock()
	}()

	return m.priceUpdater.Run(ctx)
}

// RunAll executes every registered source with bounded parallelism and
// returns all summaries sorted by source name. Individual source failures do
// not abort the others; they surface in their summaries.
func (m *Manager) RunAll(ctx context.Context) []*RunSummary {
	var (
		outMu     sync.Mutex
		summaries []*RunSummary
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)

	for game, src := range m.sources {
		game, src := game, src
		g.Go(func() error {
			if !m.tryAcquire(game) {
				outMu.Lock()
				summaries = append(summaries, &RunSummary{
					Source: game.String(),
					Errors: []string{ErrRunInProgress.Error()},
				})
				outMu.Unlock()
				return nil
			}
			defer m.release(game)

			summary, err := m.runSource(ctx, src)
			if err != nil && summary == nil {
				summary = &RunSummary{Source: game.String(), Errors: []string{err.Error()}}
			}
			outMu.Lock()
			summaries = append(summaries, summary)
			outMu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; failures are in summaries

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Source < summaries[j].Source })
	return summaries
}

// runSource executes one source with logging and timing.
func (m *Manager) runSource(ctx context.Context, src Source) (*RunSummary, error) {
	start := time.Now()
	log := logging.With().Str("source", src.Game().String()).Logger()
	log.Info().Msg("Ingest run started")

	summary, err := src.Run(ctx)
	if summary == nil {
		summary = &RunSummary{Source: src.Game().String()}
	}
	summary.Duration = time.Since(start).Round(time.Millisecond).String()

	source := src.Game().String()
	metrics.RecordIngestRows(source, "cards", summary.Cards)
	metrics.RecordIngestRows(source, "sets", summary.Sets)
	metrics.RecordIngestRows(source, "links", summary.Links)

	if err != nil {
		metrics.RecordIngestRun(source, "error", time.Since(start))
		summary.Errors = append(summary.Errors, err.Error())
		log.Error().Err(err).Str("duration", summary.Duration).Msg("Ingest run failed")
		return summary, err
	}
	outcome := "ok"
	if summary.Skipped {
		outcome = "skipped"
	}
	metrics.RecordIngestRun(source, outcome, time.Since(start))

	log.Info().
		Int("sets", summary.Sets).
		Int("cards", summary.Cards).
		Int("links", summary.Links).
		Bool("skipped", summary.Skipped).
		Int("errors", len(summary.Errors)).
		Str("duration", summary.Duration).
		Msg("Ingest run finished")
	return summary, nil
}

func (m *Manager) tryAcquire(game catalog.GameID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running[game] {
		return false
	}
	m.running[game] = true
	return true
}

func (m *Manager) release(game catalog.GameID) {
	m.mu.Lock()
	delete(m.running, game)
	m.mu.Unlock()
}
