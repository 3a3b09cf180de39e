// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

// Package catalog defines the closed set of supported games and the pure
// derivation rules (rarity tier, USD price) that the ingestion pipeline
// applies to every card before persistence.
package catalog

// GameID identifies one supported trading card game. The set is closed:
// adding a game means adding a constant here plus its derivation rules and
// ingestion source.
type GameID string

const (
	GamePokemon  GameID = "pokemon"
	GameMTG      GameID = "mtg"
	GameYugioh   GameID = "yugioh"
	GameOnePiece GameID = "onepiece"
	GameGundam   GameID = "gundam"
)

// DefaultGame is assumed when a request names no game.
const DefaultGame = GamePokemon

// AllGames returns every supported game in canonical order.
func AllGames() []GameID {
	return []GameID{GamePokemon, GameMTG, GameYugioh, GameOnePiece, GameGundam}
}

// ParseGameID validates a raw game identifier. Unknown values report ok=false;
// callers at the HTTP boundary substitute DefaultGame.
func ParseGameID(s string) (GameID, bool) {
	switch GameID(s) {
	case GamePokemon, GameMTG, GameYugioh, GameOnePiece, GameGundam:
		return GameID(s), true
	}
	return "", false
}

// GameIDOrDefault parses a raw game identifier, substituting DefaultGame for
// empty or unknown values. Requests never fail on a bad game id; they are
// served from the default game's catalog instead.
func GameIDOrDefault(s string) GameID {
	if g, ok := ParseGameID(s); ok {
		return g
	}
	return DefaultGame
}

// String returns the wire form of the game id.
func (g GameID) String() string { return string(g) }

// StatName names what the overloaded hp column means for this game.
func (g GameID) StatName() string {
	switch g {
	case GameMTG:
		return "Mana Value"
	case GameYugioh:
		return "Level"
	case GameOnePiece:
		return "Power"
	case GameGundam:
		return "Level"
	default:
		return "HP"
	}
}

// CostName names what the overloaded retreat_cost column means for this
// game, or "" when the game does not populate it.
func (g GameID) CostName() string {
	switch g {
	case GamePokemon:
		return "Retreat Cost"
	case GameOnePiece:
		return "Life"
	case GameGundam:
		return "Cost"
	default:
		return ""
	}
}
