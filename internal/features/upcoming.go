package features

import "sort"

// Power index weights. Hand-tuned; the index only matters as the fallback
// ranking signal when no trained model is available.
const (
	powerPtsWeight = 0.6
	powerOppWeight = 0.4
	powerWinWeight = 0.8
)

// AssembleUpcoming joins fixtures against recency-weighted team profiles to
// build feature rows for games not yet played. Fixtures where either side
// has no profile are skipped, not zero-filled; the second return value
// counts them. Team names must already be canonical (see internal/teams);
// the lookup is an exact match.
func AssembleUpcoming(fixtures []Fixture, profiles map[string]Profile) ([]FeatureRow, int) {
	rows := make([]FeatureRow, 0, len(fixtures))
	skipped := 0
	for _, fx := range fixtures {
		home, hok := profiles[fx.HomeTeam]
		away, aok := profiles[fx.AwayTeam]
		if !hok || !aok {
			skipped++
			continue
		}
		row := FeatureRow{
			GameID:   fx.GameID,
			Date:     fx.Date,
			Season:   fx.Season,
			HomeTeam: fx.HomeTeam,
			AwayTeam: fx.AwayTeam,
			HomeRPts: home.Pts,
			HomeROpp: home.Opp,
			HomeRWin: home.Win,
			AwayRPts: away.Pts,
			AwayROpp: away.Opp,
			AwayRWin: away.Win,
		}
		row.computeDiffs()
		row.PowerIndex = powerPtsWeight*row.DiffRPts - powerOppWeight*row.DiffROpp + powerWinWeight*row.DiffRWin
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, skipped
}
