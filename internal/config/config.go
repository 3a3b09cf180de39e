// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

// Package config provides centralized configuration for all TCG Atlas
// components: HTTP server, DuckDB storage, API pagination and search limits,
// security, logging, and the per-source ingestion clients.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all settings
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	Ingest   IngestConfig   `koanf:"ingest"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: listen port (default: 8080)
//   - HTTP_HOST: bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: read/write timeout (default: 30s)
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH: database file path, or :memory: (default: /data/tcgatlas.duckdb)
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 2GB)
//   - DUCKDB_THREADS: worker threads, 0 = runtime.NumCPU() (default: 0)
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// APIConfig holds pagination and search behavior for the query endpoints.
//
// DefaultSortBy/DefaultSortDir apply when the request names no sort column.
// MaxIDs bounds direct id lookups; excess ids are silently truncated.
// FuzzyCandidateLimit bounds how many name-similarity candidates a fuzzy
// search considers before filtering and pagination.
type APIConfig struct {
	DefaultPageSize     int    `koanf:"default_page_size"`
	MaxPageSize         int    `koanf:"max_page_size"`
	MaxIDs              int    `koanf:"max_ids"`
	DefaultSortBy       string `koanf:"default_sort_by"`
	DefaultSortDir      string `koanf:"default_sort_dir"`
	FuzzyCandidateLimit int    `koanf:"fuzzy_candidate_limit"`
}

// SecurityConfig holds the ingest trigger secret, rate limiting and CORS.
//
// IngestSecret protects the POST /api/v1/admin/ingest endpoints via
// "Authorization: Bearer <secret>". When empty, ingest triggers are rejected.
type SecurityConfig struct {
	IngestSecret      string        `koanf:"ingest_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// IngestConfig holds shared and per-source ingestion settings.
// Base URLs are overridable for testing against local fixtures.
type IngestConfig struct {
	// CardBatchSize is the upsert chunk size for cards and set links.
	CardBatchSize int `koanf:"card_batch_size"`
	// SetBatchSize is the upsert chunk size for sets.
	SetBatchSize int `koanf:"set_batch_size"`
	// HTTPTimeout bounds each upstream request.
	HTTPTimeout time.Duration `koanf:"http_timeout"`
	// Parallelism bounds concurrent sources in a run-all ingest.
	Parallelism int `koanf:"parallelism"`

	Pokemon  PokemonIngestConfig  `koanf:"pokemon"`
	MTG      MTGIngestConfig      `koanf:"mtg"`
	Yugioh   YugiohIngestConfig   `koanf:"yugioh"`
	OnePiece OnePieceIngestConfig `koanf:"onepiece"`
	Gundam   GundamIngestConfig   `koanf:"gundam"`
}

// PokemonIngestConfig covers both the card data mirror and the price API.
type PokemonIngestConfig struct {
	DataBaseURL string `koanf:"data_base_url"`
	// PriceAPIBaseURL is the pokemontcg.io v2 API used by the price-only pass.
	PriceAPIBaseURL string `koanf:"price_api_base_url"`
	// PriceAPIKey is optional; unauthenticated requests have lower limits.
	PriceAPIKey string `koanf:"price_api_key"`
	// PricePageDelay is the pause between price API pages.
	PricePageDelay time.Duration `koanf:"price_page_delay"`
	// PriceRetryDelay is the pause before the single retry of a failed page.
	PriceRetryDelay time.Duration `koanf:"price_retry_delay"`
	PricePageSize   int           `koanf:"price_page_size"`
}

// MTGIngestConfig holds Scryfall settings.
type MTGIngestConfig struct {
	BaseURL string `koanf:"base_url"`
	// PageDelay is the pause between search result pages.
	PageDelay time.Duration `koanf:"page_delay"`
}

// YugiohIngestConfig holds YGOPRODeck settings.
type YugiohIngestConfig struct {
	BaseURL string `koanf:"base_url"`
}

// OnePieceIngestConfig holds OPTCG API settings.
type OnePieceIngestConfig struct {
	BaseURL string `koanf:"base_url"`
}

// GundamIngestConfig holds the Gundam card data mirror settings.
type GundamIngestConfig struct {
	DataBaseURL string `koanf:"data_base_url"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Path:                   "/data/tcgatlas.duckdb",
			MaxMemory:              "2GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		API: APIConfig{
			DefaultPageSize:     24,
			MaxPageSize:         100,
			MaxIDs:              100,
			DefaultSortBy:       "name",
			DefaultSortDir:      "asc",
			FuzzyCandidateLimit: 500,
		},
		Security: SecurityConfig{
			IngestSecret:      "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Ingest: IngestConfig{
			CardBatchSize: 500,
			SetBatchSize:  200,
			HTTPTimeout:   60 * time.Second,
			Parallelism:   3,
			Pokemon: PokemonIngestConfig{
				DataBaseURL:     "https://raw.githubusercontent.com/PokemonTCG/pokemon-tcg-data/master",
				PriceAPIBaseURL: "https://api.pokemontcg.io/v2",
				PriceAPIKey:     "",
				PricePageDelay:  1500 * time.Millisecond,
				PriceRetryDelay: 5 * time.Second,
				PricePageSize:   250,
			},
			MTG: MTGIngestConfig{
				BaseURL:   "https://api.scryfall.com",
				PageDelay: 100 * time.Millisecond,
			},
			Yugioh: YugiohIngestConfig{
				BaseURL: "https://db.ygoprodeck.com/api/v7",
			},
			OnePiece: OnePieceIngestConfig{
				BaseURL: "https://optcgapi.com/api",
			},
			Gundam: GundamIngestConfig{
				DataBaseURL: "https://raw.githubusercontent.com/apitcg/gundam-tcg-data/main",
			},
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be positive, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size %d is below api.default_page_size %d",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.API.MaxIDs < 1 {
		return fmt.Errorf("api.max_ids must be positive, got %d", c.API.MaxIDs)
	}
	if dir := c.API.DefaultSortDir; dir != "asc" && dir != "desc" {
		return fmt.Errorf("api.default_sort_dir must be asc or desc, got %q", dir)
	}
	if c.API.FuzzyCandidateLimit < 1 {
		return fmt.Errorf("api.fuzzy_candidate_limit must be positive, got %d", c.API.FuzzyCandidateLimit)
	}
	if c.Ingest.CardBatchSize < 1 {
		return fmt.Errorf("ingest.card_batch_size must be positive, got %d", c.Ingest.CardBatchSize)
	}
	if c.Ingest.SetBatchSize < 1 {
		return fmt.Errorf("ingest.set_batch_size must be positive, got %d", c.Ingest.SetBatchSize)
	}
	if c.Ingest.Parallelism < 1 {
		return fmt.Errorf("ingest.parallelism must be positive, got %d", c.Ingest.Parallelism)
	}
	return nil
}
