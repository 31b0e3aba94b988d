package features

import (
	"sort"

	"github.com/rmfonseca/scorebet/internal/models"
)

// Unpivot expands each completed game into two TeamGameRecords, one per
// perspective. Record dates are truncated to calendar days.
func Unpivot(games []models.Game) []TeamGameRecord {
	records := make([]TeamGameRecord, 0, 2*len(games))
	for _, g := range games {
		day := g.Day()
		records = append(records, TeamGameRecord{
			GameID:  g.GameID,
			Date:    day,
			Team:    g.HomeTeam,
			Points:  float64(g.HomeScore),
			Allowed: float64(g.AwayScore),
			IsHome:  true,
			Win:     g.HomeScore > g.AwayScore,
		})
		records = append(records, TeamGameRecord{
			GameID:  g.GameID,
			Date:    day,
			Team:    g.AwayTeam,
			Points:  float64(g.AwayScore),
			Allowed: float64(g.HomeScore),
			IsHome:  false,
			Win:     g.AwayScore > g.HomeScore,
		})
	}
	return records
}

type rollingStat struct {
	pts, opp, win float64
	ok            bool
}

type teamGame struct {
	team   string
	gameID int
}

// rollingByTeamGame computes, for every (team, game), the trailing mean of
// points scored, points allowed and win flag over that team's previous
// `window` games. The window is shifted back one position: a game's own
// result never contributes to its own stats, even when a team plays twice
// on the same day. A team's first game has no prior history and stays
// unmarked.
func rollingByTeamGame(records []TeamGameRecord, window int) map[teamGame]rollingStat {
	byTeam := make(map[string][]TeamGameRecord)
	for _, rec := range records {
		byTeam[rec.Team] = append(byTeam[rec.Team], rec)
	}

	stats := make(map[teamGame]rollingStat, len(records))
	for team, recs := range byTeam {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
		for i, rec := range recs {
			if i == 0 {
				continue
			}
			start := i - window
			if start < 0 {
				start = 0
			}
			var pts, opp, win float64
			for _, prior := range recs[start:i] {
				pts += prior.Points
				opp += prior.Allowed
				if prior.Win {
					win++
				}
			}
			n := float64(i - start)
			stats[teamGame{team, rec.GameID}] = rollingStat{
				pts: pts / n,
				opp: opp / n,
				win: win / n,
				ok:  true,
			}
		}
	}
	return stats
}

// BuildFeatureTable converts completed games into the supervised training
// table: one labeled FeatureRow per game whose both sides have at least one
// prior game in the rolling window. The second return value is the number of
// games dropped for insufficient history; early-season games carry no usable
// signal and are skipped.
func BuildFeatureTable(games []models.Game, window int) ([]FeatureRow, int) {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(games) == 0 {
		return nil, 0
	}

	stats := rollingByTeamGame(Unpivot(games), window)

	ordered := make([]models.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	rows := make([]FeatureRow, 0, len(ordered))
	skipped := 0
	for _, g := range ordered {
		day := g.Day()
		home, hok := stats[teamGame{g.HomeTeam, g.GameID}]
		away, aok := stats[teamGame{g.AwayTeam, g.GameID}]
		if !hok || !home.ok || !aok || !away.ok {
			skipped++
			continue
		}
		row := FeatureRow{
			GameID:   g.GameID,
			Date:     day,
			Season:   g.Season,
			HomeTeam: g.HomeTeam,
			AwayTeam: g.AwayTeam,
			HomeRPts: home.pts,
			HomeROpp: home.opp,
			HomeRWin: home.win,
			AwayRPts: away.pts,
			AwayROpp: away.opp,
			AwayRWin: away.win,
			HomeWin:  g.HomeScore > g.AwayScore,
		}
		row.computeDiffs()
		rows = append(rows, row)
	}
	return rows, skipped
}
