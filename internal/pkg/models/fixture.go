package models

import "time"

// Fixture is a scheduled, not yet started match selected for evaluation.
type Fixture struct {
	ID         int       `json:"fixture_id"`
	Kickoff    time.Time `json:"kickoff"`
	LeagueID   int       `json:"league_id"`
	LeagueName string    `json:"league_name"`
	Home       string    `json:"home"`
	Away       string    `json:"away"`
}

// Name returns "Home vs Away".
func (f Fixture) Name() string {
	return f.Home + " vs " + f.Away
}

// Started reports whether kickoff is at or before now.
func (f Fixture) Started(now time.Time) bool {
	return !f.Kickoff.After(now)
}

// Tip is one row of the public predictions list.
type Tip struct {
	League     string    `json:"league"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	Kickoff    time.Time `json:"kickoff"`
	Home       string    `json:"home"`
	Away       string    `json:"away"`
	Prediction string    `json:"prediction"`
	Link       string    `json:"link,omitempty"`
	// FixtureID is set when the same pairing is among the evaluated fixtures.
	FixtureID int `json:"fixture_id,omitempty"`
}
