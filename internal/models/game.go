// Package models defines the entities delivered by the upstream odds feed for one league.
// A payload is a list of games; each game carries the bookmakers quoting it, each bookmaker
// its markets, and each market its outcomes.
//
// Terminology (matching The Odds API's own naming):
//   - Game: a single fixture between a home and an away side.
//   - Bookmaker: one odds provider quoting the game.
//   - Market: a bet type (h2h, spreads, totals) offered by a bookmaker.
//   - Outcome: one side of a market with its decimal price and optional line.
//
// Every entity is rebuilt from scratch on each fetch and is never mutated afterwards.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Game represents one fixture as returned by the odds feed.
type Game struct {
	ID           string      `json:"id"` // Unique within one payload
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime Text        `json:"commence_time"` // RFC 3339 as sent; not parsed
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker represents one sportsbook's quotes for a game.
// Title is a display name and is not unique across a payload.
type Bookmaker struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate Text     `json:"last_update"`
	Markets    []Market `json:"markets"`
}

// Market represents one bet type offered by a bookmaker.
type Market struct {
	Key        string    `json:"key"` // "h2h", "spreads" or "totals"
	LastUpdate Text      `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Outcome is one selectable side of a market.
type Outcome struct {
	Name  string   `json:"name"`            // Team name, or "Over"/"Under" for totals
	Price Price    `json:"price"`           // Decimal odds; may be absent or non-numeric
	Point *float64 `json:"point,omitempty"` // Spread or total line; absent for moneyline
}

// Text is an informational field kept verbatim. Strings decode as usual; any other JSON value
// is kept as its raw text so an unexpected shape never fails the payload.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(data)
	}
	return nil
}

// UnmarshalJSON decodes an outcome leniently: a point that is not a finite number, numeric
// strings aside, is treated as absent instead of failing the whole payload.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	type plain Outcome
	var raw struct {
		plain
		Point json.RawMessage `json:"point"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = Outcome(raw.plain)
	o.Point = parsePoint(raw.Point)
	return nil
}

func parsePoint(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var p Price
	if err := p.UnmarshalJSON(raw); err != nil || !p.Valid {
		return nil
	}
	v := p.Value
	return &v
}

// Validate checks that the game can be addressed by a selection.
func (g *Game) Validate() error {
	if g.ID == "" {
		return errors.New("game ID must not be empty")
	}
	return nil
}

// Away returns the away team, or "Away" when the feed omitted it.
func (g *Game) Away() string {
	if g.AwayTeam == "" {
		return "Away"
	}
	return g.AwayTeam
}

// Home returns the home team, or "Home" when the feed omitted it.
func (g *Game) Home() string {
	if g.HomeTeam == "" {
		return "Home"
	}
	return g.HomeTeam
}

// Matchup renders the game as "away @ home".
func (g *Game) Matchup() string {
	return g.Away() + " @ " + g.Home()
}
