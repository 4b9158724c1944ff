package models

// Side selects the home or away half of a fixture.
type Side string

const (
	Home Side = "home"
	Away Side = "away"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == Home {
		return Away
	}
	return Home
}

// PredictionPayload is one fixture's statistical payload (the "predictions" response item).
// It is never mutated by the engine.
type PredictionPayload struct {
	Predictions Predictions `json:"predictions"`
	League      LeagueInfo  `json:"league"`
	Teams       Teams       `json:"teams"`
	Comparison  *Comparison `json:"comparison"`
}

type Predictions struct {
	Advice  string   `json:"advice,omitempty"`
	Percent SidePair `json:"percent"`
}

type LeagueInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Season  int    `json:"season"`
}

// SidePair is a home/away couple of percent-like leaves.
type SidePair struct {
	Home Flex `json:"home"`
	Away Flex `json:"away"`
}

// Get returns the leaf of the given side.
func (p SidePair) Get(side Side) Flex {
	if side == Away {
		return p.Away
	}
	return p.Home
}

// IsNull reports whether both leaves are null.
func (p SidePair) IsNull() bool {
	return p.Home.IsNull() && p.Away.IsNull()
}

type Teams struct {
	Home Team `json:"home"`
	Away Team `json:"away"`
}

type Team struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Last5  Last5      `json:"last_5"`
	League TeamLeague `json:"league"`
}

// Last5 summarises the team's last five matches.
type Last5 struct {
	Form  Flex      `json:"form"`
	Att   Flex      `json:"att"`
	Def   Flex      `json:"def"`
	Goals GoalStats `json:"goals"`
}

type GoalStats struct {
	For     GoalAverage `json:"for"`
	Against GoalAverage `json:"against"`
}

type GoalAverage struct {
	Total   Flex `json:"total"`
	Average Flex `json:"average"`
}

// TeamLeague holds the team's season-long league figures.
type TeamLeague struct {
	Form  string      `json:"form"`
	Goals LeagueGoals `json:"goals"`
}

type LeagueGoals struct {
	For     VenueGoals `json:"for"`
	Against VenueGoals `json:"against"`
}

type VenueGoals struct {
	Average VenueAverage `json:"average"`
}

// VenueAverage splits a league goal average by venue.
type VenueAverage struct {
	Home  Flex `json:"home"`
	Away  Flex `json:"away"`
	Total Flex `json:"total"`
}

// Get returns the average for matches played at the given venue.
func (v VenueAverage) Get(side Side) Flex {
	if side == Away {
		return v.Away
	}
	return v.Home
}

// Comparison is the head-to-head comparison block; shares are percent-like per side.
type Comparison struct {
	Form  SidePair `json:"form"`
	Att   SidePair `json:"att"`
	Def   SidePair `json:"def"`
	H2H   SidePair `json:"h2h"`
	Goals SidePair `json:"goals"`
	Total SidePair `json:"total"`
}

// Team returns the team on the given side.
func (p *PredictionPayload) Team(side Side) Team {
	if side == Away {
		return p.Teams.Away
	}
	return p.Teams.Home
}

// H2H returns the head-to-head share of the given side, or a null leaf without a comparison block.
func (p *PredictionPayload) H2H(side Side) Flex {
	if p.Comparison == nil {
		return Flex{}
	}
	return p.Comparison.H2H.Get(side)
}
