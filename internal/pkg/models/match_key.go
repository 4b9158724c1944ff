package models

import (
	"strings"
	"unicode"
)

// clubAffixes are dropped from team names before keys are compared.
var clubAffixes = map[string]bool{
	"fc": true, "afc": true, "cf": true, "sc": true, "ac": true,
	"fk": true, "sk": true, "cd": true, "ssc": true, "club": true,
}

// MatchKey builds a source-independent identifier for a home/away pairing, so a fixture from
// the prediction API and a row from the tips page can be joined.
// Format: home|away
func MatchKey(homeTeam, awayTeam string) string {
	return normalizeTeamName(homeTeam) + "|" + normalizeTeamName(awayTeam)
}

func normalizeTeamName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '-' || r == '/' || r == '\\' || r == '|' || r == '_':
			return ' '
		case r == '.' || r == '\'':
			return -1
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, s)

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if clubAffixes[w] {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return strings.Join(words, " ")
	}
	return strings.Join(kept, " ")
}
