package engine

// Synchronizer verdict tags.
const (
	SyncIdealHandicap = "ideal_handicap"
	SyncWinOnly       = "win_only"
	SyncValueUnderdog = "value_underdog"
	SyncNoBet         = "no_bet"
)

// SyncResult reconciles the win confidence with the handicap confidence.
type SyncResult struct {
	Tag      string `json:"tag"`
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

// Synchronize applies the first matching rule to the winner confidence percent and the
// handicap confidence score.
func (e *Engine) Synchronize(winnerConf, hdpScore int) SyncResult {
	cfg := e.cfg.Sync
	switch {
	case winnerConf >= cfg.WinnerHigh && hdpScore >= cfg.HdpHigh:
		return SyncResult{
			Tag:      SyncIdealHandicap,
			Decision: "HANDICAP",
			Note:     "Winner and handicap agree: ideal handicap, favor the handicap bet",
		}
	case winnerConf >= cfg.WinnerHigh && hdpScore < cfg.HdpLow:
		return SyncResult{
			Tag:      SyncWinOnly,
			Decision: "WIN ONLY",
			Note:     "Winner is clear but the line is too steep: win-only, skip the handicap",
		}
	case winnerConf < cfg.WinnerLow && hdpScore >= cfg.HdpHigh:
		return SyncResult{
			Tag:      SyncValueUnderdog,
			Decision: "UNDERDOG HANDICAP",
			Note:     "Winner is uncertain but the line holds: value handicap on the underdog",
		}
	default:
		return SyncResult{
			Tag:      SyncNoBet,
			Decision: "NO BET",
			Note:     "Confidence signals disagree: no bet, insufficient value",
		}
	}
}
