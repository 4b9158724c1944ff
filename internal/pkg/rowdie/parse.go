// Package rowdie reads the public predictions list of rowdie.co.uk.
package rowdie

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// Page selectors.
const (
	selDate        = ".match__date-formatted"
	selTime        = ".match__time-formatted"
	selLoadMore    = ".anwp-fl-btn__load-more"
	selSpinner     = ".anwp-fl-spinner"
	selList        = ".match-list--shortcode"
	selHome        = ".match-slim__team-home-title"
	selAway        = ".match-slim__team-away-title"
	selPrediction  = ".match-slim__prediction-value"
	selLink        = ".anwp-link-cover"
	classHeader    = "anwp-fl-block-header"
	classGame      = "anwp-fl-game"
	noLeague       = "No league"
	noPrediction   = "N/A"
	dateLayout     = "02 January 2006"
	dateTimeLayout = "2 January 2006 15:04"
)

// DateLabel renders a day the way the page prints match dates.
func DateLabel(day time.Time) string {
	return day.Format(dateLayout)
}

// ParseTips extracts the matches of day from the predictions page HTML.
// Kickoff times are read in day's location; matches kicking off before now are skipped,
// as are rows without a parsable date and time.
func ParseTips(html string, day, now time.Time) ([]models.Tip, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse predictions page: %w", err)
	}

	container := doc.Find(selList).First()
	if container.Length() == 0 {
		return nil, nil
	}

	loc := day.Location()
	y, m, d := day.Date()
	league := noLeague
	var tips []models.Tip

	container.Children().Each(func(_ int, s *goquery.Selection) {
		switch {
		case s.HasClass(classHeader):
			league = text(s)
		case s.HasClass(classGame):
			dateText := text(s.Find(selDate).First())
			timeText := text(s.Find(selTime).First())
			if dateText == "" || timeText == "" {
				return
			}
			kickoff, err := time.ParseInLocation(dateTimeLayout, dateText+" "+timeText, loc)
			if err != nil {
				return
			}
			if ky, km, kd := kickoff.Date(); ky != y || km != m || kd != d {
				return
			}
			if kickoff.Before(now) {
				return
			}

			prediction := text(s.Find(selPrediction).First())
			if prediction == "" {
				prediction = noPrediction
			}
			link, _ := s.Find(selLink).First().Attr("href")

			tips = append(tips, models.Tip{
				League:     league,
				Date:       dateText,
				Time:       timeText,
				Kickoff:    kickoff,
				Home:       text(s.Find(selHome).First()),
				Away:       text(s.Find(selAway).First()),
				Prediction: prediction,
				Link:       link,
			})
		}
	})

	return tips, nil
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
