// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

// Package database provides the DuckDB-backed card catalog store: schema
// management, bulk upserts for the ingestion pipeline, and the filtered,
// sorted, paginated search queries behind the HTTP API.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/logging"
	"github.com/tcgatlas/tcgatlas/internal/metrics"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	jsonAvailable      bool // json extension loaded (types overlap filter)
	rapidfuzzAvailable bool // rapidfuzz extension loaded (fuzzy name search)

	// Prepared statement caching for hot upsert paths
	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex
}

// New creates a new database connection and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for the database file
	if dbDir := filepath.Dir(cfg.Path); cfg.Path != ":memory:" && dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Disable auto-install/auto-load to prevent hangs in restricted network
	// environments; extensions are explicitly loaded by installExtensions.
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:               conn,
		cfg:                cfg,
		jsonAvailable:      true,
		rapidfuzzAvailable: true,
		stmtCache:          make(map[string]*sql.Stmt),
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// configureConnectionPool tunes database/sql pooling. DuckDB is embedded, so
// connections are cheap, but writes serialize internally; a small pool keeps
// memory bounded.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(4)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
}

// initialize loads extensions, creates the schema and runs pending migrations.
func (db *DB) initialize() error {
	db.installExtensions()
	if err := db.createSchema(); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := db.runVersionedMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// installExtensions loads the json and rapidfuzz extensions. Both are
// optional: failures flip the availability flag and the affected query paths
// use their fallbacks (LIKE-based containment, ILIKE substring search).
func (db *DB) installExtensions() {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range []string{"INSTALL json", "LOAD json"} {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			logging.Warn().Err(err).Str("statement", stmt).
				Msg("JSON extension unavailable, using LIKE fallback for type filters")
			db.jsonAvailable = false
			break
		}
	}

	for _, stmt := range []string{"INSTALL rapidfuzz FROM community", "LOAD rapidfuzz"} {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			logging.Warn().Err(err).Str("statement", stmt).
				Msg("RapidFuzz extension unavailable, using ILIKE fallback for name search")
			db.rapidfuzzAvailable = false
			break
		}
	}
}

// IsRapidFuzzAvailable returns whether the rapidfuzz extension is loaded.
func (db *DB) IsRapidFuzzAvailable() bool {
	return db.rapidfuzzAvailable
}

// SetRapidFuzzAvailableForTesting overrides extension detection in tests.
func (db *DB) SetRapidFuzzAvailableForTesting(available bool) {
	db.rapidfuzzAvailable = available
}

// Conn exposes the underlying connection for advanced callers.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close releases cached statements and closes the connection.
func (db *DB) Close() error {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		closeQuietly(stmt)
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()

	return db.conn.Close()
}

// prepareCached returns a prepared statement, reusing one if already cached.
func (db *DB) prepareCached(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtCacheMu.RLock()
	stmt, ok := db.stmtCache[query]
	db.stmtCacheMu.RUnlock()
	if ok {
		return stmt, nil
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	db.stmtCacheMu.Lock()
	defer db.stmtCacheMu.Unlock()
	if cached, ok := db.stmtCache[query]; ok {
		closeQuietly(stmt)
		return cached, nil
	}
	db.stmtCache[query] = stmt
	return stmt, nil
}

// observeQuery feeds a finished storage operation into the Prometheus
// collectors. Callers defer it with a named error return so the outcome is
// captured after the method body runs.
func observeQuery(operation string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, time.Since(start), err)
}

// schemaContext returns a context for schema and migration operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
