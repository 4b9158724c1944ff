package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlex_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{"null", `null`, nil},
		{"number", `75`, 75.0},
		{"float", `1.45`, 1.45},
		{"percent string", `"50%"`, "50%"},
		{"empty string", `""`, ""},
		{"object", `{"a":1}`, nil},
		{"bool", `true`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Flex
			require.NoError(t, json.Unmarshal([]byte(tt.in), &f))
			assert.Equal(t, tt.want, f.Value)
		})
	}
}

func TestPredictionPayload_DecodeAPIShape(t *testing.T) {
	raw := `{
		"predictions": {"advice": "Double chance : Arsenal or draw", "percent": {"home": "45%", "away": "10%"}},
		"league": {"id": 39, "name": "Premier League"},
		"teams": {
			"home": {
				"name": "Arsenal",
				"last_5": {"form": "60%", "att": "70%", "def": "50%",
					"goals": {"for": {"total": 8, "average": "1.6"}, "against": {"total": 4, "average": "0.8"}}},
				"league": {"form": "WWDLW", "goals": {"for": {"average": {"home": "2.1", "away": "1.4", "total": "1.8"}}}}
			},
			"away": {"name": "Fulham", "last_5": {"form": null}}
		},
		"comparison": {"goals": {"home": "60%", "away": "40%"}, "h2h": {"home": "55%", "away": "45%"}}
	}`

	var p PredictionPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "Arsenal", p.Team(Home).Name)
	assert.Equal(t, "Fulham", p.Team(Away).Name)
	assert.Equal(t, "2.1", p.Team(Home).League.Goals.For.Average.Get(Home).Value)
	assert.Equal(t, 8.0, p.Team(Home).Last5.Goals.For.Total.Value)
	assert.True(t, p.Team(Away).Last5.Form.IsNull())
	require.NotNil(t, p.Comparison)
	assert.Equal(t, "45%", p.H2H(Away).Value)
	assert.True(t, p.Comparison.Att.IsNull())
}

func TestPredictionPayload_MissingComparison(t *testing.T) {
	var p PredictionPayload
	require.NoError(t, json.Unmarshal([]byte(`{"teams": {}}`), &p))
	assert.Nil(t, p.Comparison)
	assert.True(t, p.H2H(Home).IsNull())
	assert.Equal(t, Away, Home.Opponent())
}
