// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package config

import (
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.API.DefaultPageSize != 24 {
		t.Errorf("DefaultPageSize = %d, want 24", cfg.API.DefaultPageSize)
	}
	if cfg.API.MaxPageSize != 100 {
		t.Errorf("MaxPageSize = %d, want 100", cfg.API.MaxPageSize)
	}
	if cfg.API.MaxIDs != 100 {
		t.Errorf("MaxIDs = %d, want 100", cfg.API.MaxIDs)
	}
	if cfg.Ingest.Pokemon.PricePageDelay != 1500*time.Millisecond {
		t.Errorf("PricePageDelay = %v, want 1.5s", cfg.Ingest.Pokemon.PricePageDelay)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero page size", func(c *Config) { c.API.DefaultPageSize = 0 }},
		{"max below default", func(c *Config) { c.API.MaxPageSize = 10 }},
		{"zero max ids", func(c *Config) { c.API.MaxIDs = 0 }},
		{"bad sort dir", func(c *Config) { c.API.DefaultSortDir = "sideways" }},
		{"zero candidate limit", func(c *Config) { c.API.FuzzyCandidateLimit = 0 }},
		{"zero card batch", func(c *Config) { c.Ingest.CardBatchSize = 0 }},
		{"zero set batch", func(c *Config) { c.Ingest.SetBatchSize = 0 }},
		{"zero parallelism", func(c *Config) { c.Ingest.Parallelism = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("API_DEFAULT_SORT_BY", "rarity_tier")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SCRYFALL_BASE_URL", "http://127.0.0.1:9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("Database.Path = %q, want :memory:", cfg.Database.Path)
	}
	if cfg.API.DefaultSortBy != "rarity_tier" {
		t.Errorf("DefaultSortBy = %q, want rarity_tier", cfg.API.DefaultSortBy)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://a.example" {
		t.Errorf("CORSOrigins = %v, want two trimmed origins", cfg.Security.CORSOrigins)
	}
	if cfg.Ingest.MTG.BaseURL != "http://127.0.0.1:9999" {
		t.Errorf("MTG.BaseURL = %q, want override", cfg.Ingest.MTG.BaseURL)
	}
}

func TestEnvTransformSkipsUnknownKeys(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("envTransformFunc(PATH) = %q, want empty", got)
	}
	if got := envTransformFunc("HTTP_PORT"); got != "server.port" {
		t.Errorf("envTransformFunc(HTTP_PORT) = %q, want server.port", got)
	}
}
