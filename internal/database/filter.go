// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package database

import (
	"fmt"
	"strings"
)

// CardFilter contains filter parameters for card search queries.
//
// All fields are optional except GameID and combine using AND logic. Types
// uses set-overlap semantics: a card matches when it has at least one of the
// requested types. IDs restricts results to an explicit id set (direct
// lookups and fuzzy candidate filtering).
//
// SetID is resolved through the card_set_links junction table first; when no
// link rows exist for the set, it falls back to an equality match on the
// cards.set_id column.
type CardFilter struct {
	GameID      string
	IDs         []string
	SetID       string
	Types       []string
	Supertype   string
	Rarity      string
	HPMin       *int
	HPMax       *int
	RetreatCost *int
}

// buildFilterConditions generates a parameterized WHERE fragment for the
// filter. linkCardIDs carries the junction-table resolution of SetID: nil
// means "no links, use the set_id column", non-nil means "restrict to these
// card ids". jsonAvailable selects the types-overlap implementation.
//
// The returned clause always starts with "WHERE 1=1" so callers can append
// further conditions unconditionally.
func buildFilterConditions(f CardFilter, linkCardIDs []string, jsonAvailable bool) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	sb.WriteString("WHERE 1=1")

	sb.WriteString(" AND game_id = ?")
	args = append(args, f.GameID)

	if len(f.IDs) > 0 {
		sb.WriteString(" AND id IN (")
		sb.WriteString(placeholders(len(f.IDs)))
		sb.WriteString(")")
		for _, id := range f.IDs {
			args = append(args, id)
		}
	}

	if f.SetID != "" {
		if linkCardIDs != nil {
			sb.WriteString(" AND id IN (")
			sb.WriteString(placeholders(len(linkCardIDs)))
			sb.WriteString(")")
			for _, id := range linkCardIDs {
				args = append(args, id)
			}
		} else {
			sb.WriteString(" AND set_id = ?")
			args = append(args, f.SetID)
		}
	}

	if len(f.Types) > 0 {
		conds := make([]string, 0, len(f.Types))
		for _, typ := range f.Types {
			if jsonAvailable {
				conds = append(conds, "json_contains(types, ?)")
				args = append(args, fmt.Sprintf("%q", typ))
			} else {
				// LIKE on the JSON text; type names contain no quotes
				conds = append(conds, "types LIKE ?")
				args = append(args, "%"+fmt.Sprintf("%q", typ)+"%")
			}
		}
		sb.WriteString(" AND (")
		sb.WriteString(strings.Join(conds, " OR "))
		sb.WriteString(")")
	}

	if f.Supertype != "" {
		sb.WriteString(" AND supertype = ?")
		args = append(args, f.Supertype)
	}

	if f.Rarity != "" {
		sb.WriteString(" AND rarity = ?")
		args = append(args, f.Rarity)
	}

	if f.HPMin != nil {
		sb.WriteString(" AND hp >= ?")
		args = append(args, *f.HPMin)
	}
	if f.HPMax != nil {
		sb.WriteString(" AND hp <= ?")
		args = append(args, *f.HPMax)
	}

	if f.RetreatCost != nil {
		sb.WriteString(" AND retreat_cost = ?")
		args = append(args, *f.RetreatCost)
	}

	return sb.String(), args
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// sortColumns whitelists user-facing sort keys against real columns.
// Anything not listed here falls back to the featured ordering.
var sortColumns = map[string]string{
	"name":         "name",
	"number":       "number",
	"hp":           "hp",
	"rarity":       "rarity",
	"set":          "set_id",
	"artist":       "artist",
	"price":        "price_usd",
	"price_usd":    "price_usd",
	"rarity_tier":  "rarity_tier",
	"release_date": "updated_at",
}

// buildOrderBy generates the ORDER BY clause for a search.
//
// "featured" (and any unrecognized column) ranks by rarity tier, then USD
// price, then name; nulls sort after every known value so unknown rarities
// and unpriced cards land at the end. Explicit columns sort on that single
// column with no secondary tiebreak.
func buildOrderBy(sortBy, sortDir string) string {
	if col, ok := sortColumns[sortBy]; ok && sortBy != "" {
		dir := "ASC"
		if strings.EqualFold(sortDir, "desc") {
			dir = "DESC"
		}
		return fmt.Sprintf("ORDER BY %s %s", col, dir)
	}
	return "ORDER BY rarity_tier DESC NULLS LAST, price_usd DESC NULLS LAST, name ASC"
}
