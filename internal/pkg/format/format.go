// Package format renders evaluations, tips and service notices as Telegram Markdown messages.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Vodeneev/parlaybot/internal/pkg/engine"
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// MaxMessageLen keeps messages below Telegram's 4096 character limit.
const MaxMessageLen = 4000

// Entry is one evaluated fixture.
type Entry struct {
	Fixture    models.Fixture    `json:"fixture"`
	Evaluation engine.Evaluation `json:"evaluation"`
}

// EscapeMarkdown escapes the characters that legacy Telegram Markdown treats as markup.
func EscapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"`", "\\`",
		"[", "\\[",
	)
	return replacer.Replace(text)
}

// Chunk joins items under header into messages no longer than max.
// An item longer than max still gets a message of its own.
func Chunk(header string, items []string, max int) []string {
	var (
		messages []string
		builder  strings.Builder
	)
	builder.WriteString(header)
	for _, item := range items {
		if builder.Len() > len(header) && builder.Len()+len(item) > max {
			messages = append(messages, builder.String())
			builder.Reset()
			builder.WriteString(header)
		}
		builder.WriteString(item)
	}
	if builder.Len() > len(header) {
		messages = append(messages, builder.String())
	}
	return messages
}

// factorLabels are the profile table rows, printed in engine.FactorNames order.
var factorLabels = map[string]string{
	engine.FactorPercent:      "Win Probability %",
	engine.FactorLast5Form:    "Recent Form",
	engine.FactorAttack:       "Attack Index",
	engine.FactorDefense:      "Defense Index",
	engine.FactorGoalsFor:     "Goals Scored Avg",
	engine.FactorGoalsAgainst: "Goals Conceded Adj",
	engine.FactorLeagueForm:   "League Form Index",
	engine.FactorH2H:          "H2H Index",
}

const (
	signalGap      = 8
	leagueLevelGap = 5
	h2hDominance   = 80
	maxSignals     = 3
)

// Signals lists up to three headline differences between the sides.
func Signals(home, away engine.FactorScoreSet, homeName, awayName string) []string {
	var notes []string
	leader := func(d float64) string {
		if d > 0 {
			return homeName
		}
		return awayName
	}

	if d := math.Round(home.Attack - away.Attack); math.Abs(d) >= signalGap {
		notes = append(notes, fmt.Sprintf("⚔️ %s attack is sharper +%.0f", leader(d), math.Abs(d)))
	}
	if d := math.Round(home.Defense - away.Defense); math.Abs(d) >= signalGap {
		notes = append(notes, fmt.Sprintf("🛡 %s defence is more solid +%.0f", leader(d), math.Abs(d)))
	}
	if d := math.Round(home.LeagueForm - away.LeagueForm); math.Abs(d) < leagueLevelGap {
		notes = append(notes, "⚖️ League form is nearly level")
	} else {
		notes = append(notes, fmt.Sprintf("📈 %s is steadier in the league +%.0f", leader(d), math.Abs(d)))
	}
	switch {
	case home.H2H >= h2hDominance:
		notes = append(notes, fmt.Sprintf("📊 Head-to-head record favours %s", homeName))
	case away.H2H >= h2hDominance:
		notes = append(notes, fmt.Sprintf("📊 Head-to-head record favours %s", awayName))
	}

	if len(notes) > maxSignals {
		notes = notes[:maxSignals]
	}
	return notes
}

// Profile renders the statistical profile of one fixture.
func Profile(e Entry, loc *time.Location) string {
	f, ev := e.Fixture, e.Evaluation
	d := ev.Decision
	var b strings.Builder

	b.WriteString("*STATISTICAL MATCH PROFILE*\n")
	fmt.Fprintf(&b, "League : %s\n", EscapeMarkdown(f.LeagueName))
	fmt.Fprintf(&b, "Match  : %s\n", EscapeMarkdown(f.Name()))
	fmt.Fprintf(&b, "Kickoff: %s\n\n", kickoff(f.Kickoff, loc))

	b.WriteString("*AGGREGATED POWER INDEX*\n")
	fmt.Fprintf(&b, "HOME : %.1f\n", d.HomeScore)
	fmt.Fprintf(&b, "AWAY : %.1f\n", d.AwayScore)
	fmt.Fprintf(&b, "DELTA: %+.1f\n\n", engine.Round(d.HomeScore-d.AwayScore, 2))

	if signals := Signals(ev.HomeFactors, ev.AwayFactors, f.Home, f.Away); len(signals) > 0 {
		b.WriteString("*KEY PERFORMANCE SIGNALS*\n")
		for _, s := range signals {
			fmt.Fprintf(&b, "- %s\n", EscapeMarkdown(s))
		}
		b.WriteString("\n")
	}

	b.WriteString("*DETAILED FACTOR COMPARISON*\n")
	b.WriteString("```\n")
	fmt.Fprintf(&b, "%-20s%7s%7s\n", "FACTOR", "HOME", "AWAY")
	b.WriteString(strings.Repeat("-", 34) + "\n")
	for _, name := range engine.FactorNames {
		fmt.Fprintf(&b, "%-20s%6.1f%6.1f\n", factorLabels[name], ev.HomeFactors.Get(name), ev.AwayFactors.Get(name))
	}
	b.WriteString(strings.Repeat("-", 34) + "\n")
	fmt.Fprintf(&b, "%-20s%6.1f%6.1f\n", "TOTAL SCORE", d.HomeScore, d.AwayScore)
	b.WriteString("```\n\n")

	b.WriteString("*HANDICAP VIEW*\n")
	fmt.Fprintf(&b, "Pick   : %s\n", EscapeMarkdown(d.Pick))
	fmt.Fprintf(&b, "Conf.  : %s\n", d.Confidence)
	if d.Note != "" {
		fmt.Fprintf(&b, "Note   : %s\n", EscapeMarkdown(d.Note))
	}
	b.WriteString(hdpLines(ev))
	b.WriteString("\n")

	b.WriteString("Note:\nAggregated index derived from weighted multi-factor model. " +
		"Lower delta implies higher outcome variance.")
	return b.String()
}

func hdpLines(ev engine.Evaluation) string {
	var b strings.Builder
	h := ev.Hdp
	fmt.Fprintf(&b, "HDP    : HOME %s | AWAY %s\n", h.HdpHome, h.HdpAway)
	fmt.Fprintf(&b, "xG     : %.2f - %.2f\n", h.HomeXG, h.AwayXG)
	fmt.Fprintf(&b, "Best   : %s %s (cover %.1f%%)\n", sideLabel(h.BestHdpSide), h.BestHdp, h.CoverProb*100)
	fmt.Fprintf(&b, "HDP conf.: %d (%s)\n", ev.HdpConfidence.Score, ev.HdpConfidence.Label)
	fmt.Fprintf(&b, "Verdict: *%s*\n", EscapeMarkdown(ev.Sync.Decision))
	if h.Degraded() {
		fmt.Fprintf(&b, "⚠️ _Fallback model: %s_\n", EscapeMarkdown(h.DegradedReason))
	}
	return b.String()
}

// Recommendations renders the pick list of a day, split into messages.
func Recommendations(day time.Time, entries []Entry) []string {
	header := fmt.Sprintf("🧠 *TODAY'S RECOMMENDATIONS*\n📅 %s\n%s\n", day.Format("02 January 2006"), strings.Repeat("━", 20))
	if len(entries) == 0 {
		return []string{header + "No upcoming fixtures to recommend."}
	}

	items := make([]string, 0, len(entries))
	for i, e := range entries {
		d, h := e.Evaluation.Decision, e.Evaluation.Hdp
		items = append(items, fmt.Sprintf("%d. *%s*\n🎯 PICK: %s\n📈 Confidence: %s\n⚖️ HDP: HOME %s | AWAY %s\n\n",
			i+1, EscapeMarkdown(e.Fixture.Name()), EscapeMarkdown(d.Pick), d.Confidence, h.HdpHome, h.HdpAway))
	}
	return Chunk(header, items, MaxMessageLen)
}

// Alert renders the push notice of a fixture with an ideal handicap verdict.
func Alert(e Entry, loc *time.Location) string {
	f, ev := e.Fixture, e.Evaluation
	var b strings.Builder
	b.WriteString("🚨 *Ideal handicap*\n\n")
	fmt.Fprintf(&b, "*%s*\n", EscapeMarkdown(f.Name()))
	if f.LeagueName != "" {
		fmt.Fprintf(&b, "🏆 %s\n", EscapeMarkdown(f.LeagueName))
	}
	fmt.Fprintf(&b, "🕐 Kick-off: %s\n\n", kickoff(f.Kickoff, loc))
	fmt.Fprintf(&b, "🎯 %s (%s)\n", EscapeMarkdown(ev.Decision.Pick), ev.Decision.Confidence)
	b.WriteString(hdpLines(ev))
	if ev.Sync.Note != "" {
		fmt.Fprintf(&b, "_%s_\n", EscapeMarkdown(ev.Sync.Note))
	}
	return b.String()
}

// Tips renders scraped tips grouped by league, split into messages.
// Tips of evaluated fixtures are marked with 🧠.
func Tips(label string, tips []models.Tip) []string {
	header := fmt.Sprintf("📊 *Predictions: %s*\n\n", EscapeMarkdown(label))
	if len(tips) == 0 {
		return []string{fmt.Sprintf("⚠️ No matches found for %s.", EscapeMarkdown(label))}
	}

	var items []string
	league := ""
	for i, t := range tips {
		var b strings.Builder
		if i == 0 || t.League != league {
			league = t.League
			fmt.Fprintf(&b, "*%s*\n", EscapeMarkdown(league))
		}
		fmt.Fprintf(&b, "%s %s vs %s: %s", t.Time, EscapeMarkdown(t.Home), EscapeMarkdown(t.Away), EscapeMarkdown(t.Prediction))
		if t.Link != "" {
			fmt.Fprintf(&b, " [open](%s)", t.Link)
		}
		if t.FixtureID != 0 {
			b.WriteString(" 🧠")
		}
		b.WriteString("\n")
		items = append(items, b.String())
	}
	return Chunk(header, items, MaxMessageLen)
}

// NewUser renders the admin notice about a chat that started the bot.
func NewUser(chatID int64, username string) string {
	name := "(no username)"
	if username != "" {
		name = "@" + EscapeMarkdown(username)
	}
	return fmt.Sprintf("👤 *NEW USER*\nID: `%d`\n%s", chatID, name)
}

func kickoff(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "N/A"
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("15:04 MST")
}

func sideLabel(s models.Side) string {
	return strings.ToUpper(string(s))
}
