package features

import (
	"math"
	"sort"
	"time"
)

const (
	// decayRate is the per-day exponential decay applied to recent games.
	decayRate = 0.15
	// decayClampDays caps days_ago before weighting. Off-season gaps would
	// otherwise weight a team's entire window to near zero.
	decayClampDays = 10
)

// Profile is a team's recency-weighted performance snapshot as of a
// reference date, covering at most the team's last N completed games.
type Profile struct {
	Team  string  `json:"team"`
	Pts   float64 `json:"rpts"`
	Opp   float64 `json:"ropp"`
	Win   float64 `json:"rwin"`
	Games int     `json:"games"`
}

// RecentProfiles computes one Profile per team from the unpivoted records,
// using only games strictly before the reference date. Weight is
// exp(-0.15 * days_ago) with days_ago clamped to [0, 10]. Teams with no
// qualifying records are absent from the result; callers must treat a
// missing team as "no prediction possible", never as zeros.
func RecentProfiles(records []TeamGameRecord, window int, today time.Time) map[string]Profile {
	if window <= 0 {
		window = DefaultWindow
	}
	refDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	byTeam := make(map[string][]TeamGameRecord)
	for _, rec := range records {
		if !rec.Date.Before(refDay) {
			continue
		}
		byTeam[rec.Team] = append(byTeam[rec.Team], rec)
	}

	profiles := make(map[string]Profile, len(byTeam))
	for team, recs := range byTeam {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
		if len(recs) > window {
			recs = recs[len(recs)-window:]
		}

		var wsum, pts, opp, win float64
		for _, rec := range recs {
			daysAgo := int(refDay.Sub(rec.Date).Hours() / 24)
			if daysAgo < 0 {
				daysAgo = 0
			}
			if daysAgo > decayClampDays {
				daysAgo = decayClampDays
			}
			w := math.Exp(-decayRate * float64(daysAgo))
			wsum += w
			pts += w * rec.Points
			opp += w * rec.Allowed
			if rec.Win {
				win += w
			}
		}
		if wsum == 0 {
			continue
		}
		profiles[team] = Profile{
			Team:  team,
			Pts:   pts / wsum,
			Opp:   opp / wsum,
			Win:   win / wsum,
			Games: len(recs),
		}
	}
	return profiles
}
