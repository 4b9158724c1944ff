package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/parlaybot/internal/pkg/engine"
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

func testEntry() Entry {
	return Entry{
		Fixture: models.Fixture{
			ID:         11,
			Kickoff:    time.Date(2026, 10, 18, 11, 30, 0, 0, time.UTC),
			LeagueID:   39,
			LeagueName: "Premier League",
			Home:       "Arsenal",
			Away:       "Burnley",
		},
		Evaluation: engine.Evaluation{
			HomeFactors: engine.FactorScoreSet{Percent: 50, Attack: 60, Defense: 55, LeagueForm: 80, H2H: 85},
			AwayFactors: engine.FactorScoreSet{Percent: 20, Attack: 40, Defense: 50, LeagueForm: 40, H2H: 15},
			Decision: engine.Decision{
				HomeScore: 48.25, AwayScore: 37.5, Difference: 10.75,
				Pick: "Arsenal", PickSide: "home",
				Confidence: "high-risk (64%)", ConfidenceLabel: "high-risk", ConfidencePercent: 64,
				Note: "Arsenal has the sharper attack (+20)",
			},
			Hdp: engine.HdpSuggestion{
				Model: engine.ModelPrimary, HomeProb: 0.55, DrawProb: 0.25, AwayProb: 0.2,
				HdpHome: "-0.5", HdpAway: "+0.75", HomeXG: 1.8, AwayXG: 1,
				BestHdpSide: models.Home, BestHdp: "-0.5", CoverProb: 0.551,
			},
			HdpConfidence: engine.HdpConfidence{Score: 62, BestSide: models.Home, CoverProb: 0.551, Label: engine.HdpAcceptable},
			Sync:          engine.SyncResult{Tag: engine.SyncNoBet, Decision: "NO BET", Note: "no bet, insufficient value"},
		},
	}
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "Man\\_Utd \\*B\\* \\`x\\` \\[1]", EscapeMarkdown("Man_Utd *B* `x` [1]"))
	assert.Equal(t, "Brighton & Hove (U-21).", EscapeMarkdown("Brighton & Hove (U-21)."))
}

func TestSignals(t *testing.T) {
	tests := []struct {
		name       string
		home, away engine.FactorScoreSet
		want       []string
	}{
		{
			name: "level teams",
			home: engine.FactorScoreSet{Attack: 50, Defense: 50, LeagueForm: 60},
			away: engine.FactorScoreSet{Attack: 45, Defense: 52, LeagueForm: 58},
			want: []string{"⚖️ League form is nearly level"},
		},
		{
			name: "away leads",
			home: engine.FactorScoreSet{Attack: 40, Defense: 50, LeagueForm: 20, H2H: 10},
			away: engine.FactorScoreSet{Attack: 52, Defense: 50, LeagueForm: 70, H2H: 90},
			want: []string{
				"⚔️ B attack is sharper +12",
				"📈 B is steadier in the league +50",
				"📊 Head-to-head record favours B",
			},
		},
		{
			name: "capped at three",
			home: engine.FactorScoreSet{Attack: 70, Defense: 70, LeagueForm: 90, H2H: 85},
			away: engine.FactorScoreSet{Attack: 30, Defense: 30, LeagueForm: 10},
			want: []string{
				"⚔️ A attack is sharper +40",
				"🛡 A defence is more solid +40",
				"📈 A is steadier in the league +80",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Signals(tt.home, tt.away, "A", "B"))
		})
	}
}

func TestProfile(t *testing.T) {
	wita := time.FixedZone("WITA", 8*3600)
	text := Profile(testEntry(), wita)

	assert.True(t, strings.HasPrefix(text, "*STATISTICAL MATCH PROFILE*\n"))
	assert.Contains(t, text, "Match  : Arsenal vs Burnley\n")
	assert.Contains(t, text, "Kickoff: 19:30 WITA\n")
	assert.Contains(t, text, "HOME : 48.2\n")
	assert.Contains(t, text, "DELTA: +10.8\n")
	assert.Contains(t, text, "Attack Index          60.0  40.0\n")
	assert.Contains(t, text, "TOTAL SCORE           48.2  37.5\n")
	assert.Contains(t, text, "HDP    : HOME -0.5 | AWAY +0.75\n")
	assert.Contains(t, text, "Best   : HOME -0.5 (cover 55.1%)\n")
	assert.Contains(t, text, "HDP conf.: 62 (acceptable)\n")
	assert.Contains(t, text, "Head-to-head record favours Arsenal")
	assert.NotContains(t, text, "Fallback model")
}

func TestProfile_FactorRowsInEngineOrder(t *testing.T) {
	text := Profile(testEntry(), time.UTC)

	last := -1
	for _, name := range engine.FactorNames {
		label, ok := factorLabels[name]
		require.True(t, ok, name)
		idx := strings.Index(text, label)
		require.Greater(t, idx, last, label)
		last = idx
	}
}

func TestProfile_Degraded(t *testing.T) {
	e := testEntry()
	e.Evaluation.Hdp.Model = engine.ModelFallback
	e.Evaluation.Hdp.DegradedReason = "comparison block is missing"

	text := Profile(e, time.UTC)
	assert.Contains(t, text, "⚠️ _Fallback model: comparison block is missing_")
}

func TestRecommendations(t *testing.T) {
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	empty := Recommendations(day, nil)
	require.Len(t, empty, 1)
	assert.Contains(t, empty[0], "No upcoming fixtures")

	msgs := Recommendations(day, []Entry{testEntry()})
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "📅 18 October 2026")
	assert.Contains(t, msgs[0], "1. *Arsenal vs Burnley*\n🎯 PICK: Arsenal\n📈 Confidence: high-risk (64%)\n⚖️ HDP: HOME -0.5 | AWAY +0.75\n")
}

func TestRecommendations_Split(t *testing.T) {
	entries := make([]Entry, 60)
	for i := range entries {
		entries[i] = testEntry()
	}

	msgs := Recommendations(time.Now(), entries)
	require.Greater(t, len(msgs), 1)
	for _, m := range msgs {
		assert.LessOrEqual(t, len(m), MaxMessageLen)
		assert.Contains(t, m, "TODAY'S RECOMMENDATIONS")
	}
	assert.Contains(t, msgs[len(msgs)-1], "60. *Arsenal vs Burnley*")
}

func TestChunk(t *testing.T) {
	assert.Nil(t, Chunk("H\n", nil, 10))
	assert.Equal(t, []string{"H\naaaa", "H\nbbbb"}, Chunk("H\n", []string{"aaaa", "bbbb"}, 8))
	assert.Equal(t, []string{"H\naaaaaaaaaaaa"}, Chunk("H\n", []string{"aaaaaaaaaaaa"}, 8))
}

func TestTips(t *testing.T) {
	tips := []models.Tip{
		{League: "Premier League", Time: "15:00", Home: "Arsenal", Away: "Chelsea", Prediction: "Arsenal to win", Link: "https://x/1"},
		{League: "Premier League", Time: "17:30", Home: "Spurs", Away: "Leeds", Prediction: "BTTS", FixtureID: 11},
		{League: "La Liga", Time: "21:00", Home: "Sevilla", Away: "Betis", Prediction: "N/A"},
	}

	msgs := Tips("Today", tips)
	require.Len(t, msgs, 1)
	assert.Equal(t, "📊 *Predictions: Today*\n\n"+
		"*Premier League*\n15:00 Arsenal vs Chelsea: Arsenal to win [open](https://x/1)\n"+
		"17:30 Spurs vs Leeds: BTTS 🧠\n"+
		"*La Liga*\n21:00 Sevilla vs Betis: N/A\n", msgs[0])

	assert.Equal(t, []string{"⚠️ No matches found for Tomorrow."}, Tips("Tomorrow", nil))
}

func TestAlert(t *testing.T) {
	e := testEntry()
	e.Evaluation.Sync = engine.SyncResult{Tag: engine.SyncIdealHandicap, Decision: "HANDICAP", Note: "ideal handicap, favor the handicap bet"}

	text := Alert(e, time.UTC)
	assert.Contains(t, text, "*Arsenal vs Burnley*")
	assert.Contains(t, text, "Kick-off: 11:30 UTC")
	assert.Contains(t, text, "Verdict: *HANDICAP*")
	assert.Contains(t, text, "_ideal handicap, favor the handicap bet_")
}

func TestNewUser(t *testing.T) {
	assert.Equal(t, "👤 *NEW USER*\nID: `42`\n@john\\_doe", NewUser(42, "john_doe"))
	assert.Equal(t, "👤 *NEW USER*\nID: `7`\n(no username)", NewUser(7, ""))
}
