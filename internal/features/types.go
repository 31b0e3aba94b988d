// Package features turns stored game results into the flat numeric rows the
// classifier consumes. Two related but intentionally distinct notions of
// "recent form" live here: a plain trailing rolling mean used to build the
// training table, and an exponentially decayed profile used when scoring
// games that have not been played yet.
package features

import "time"

// DefaultWindow is the rolling window size N when callers pass zero.
const DefaultWindow = 5

// FeatureNames is the canonical model input ordering. The trained artifact
// carries its own copy; serving refuses a model whose list disagrees.
var FeatureNames = []string{
	"home_rpts", "home_ropp", "home_rwin",
	"away_rpts", "away_ropp", "away_rwin",
	"diff_rpts", "diff_ropp", "diff_rwin",
}

// TeamGameRecord is one team's view of one completed game. Games are
// unpivoted into two of these (home and away perspective) before any
// per-team statistics are computed. Transient, never persisted.
type TeamGameRecord struct {
	GameID  int
	Date    time.Time
	Team    string
	Points  float64
	Allowed float64
	IsHome  bool
	Win     bool
}

// Fixture is a scheduled game from the upcoming feed. Scores do not exist
// yet, so only identity and scheduling fields are present.
type Fixture struct {
	GameID   int       `json:"game_id"`
	Date     time.Time `json:"date"`
	Season   int       `json:"season"`
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
}

// FeatureRow is one model-ready row, for either a historical game (HomeWin
// is the label) or an upcoming one (PowerIndex is the fallback signal).
type FeatureRow struct {
	GameID   int       `json:"game_id"`
	Date     time.Time `json:"date"`
	Season   int       `json:"season"`
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`

	HomeRPts float64 `json:"home_rpts"`
	HomeROpp float64 `json:"home_ropp"`
	HomeRWin float64 `json:"home_rwin"`
	AwayRPts float64 `json:"away_rpts"`
	AwayROpp float64 `json:"away_ropp"`
	AwayRWin float64 `json:"away_rwin"`

	DiffRPts float64 `json:"diff_rpts"`
	DiffROpp float64 `json:"diff_ropp"`
	DiffRWin float64 `json:"diff_rwin"`

	// Historical rows only.
	HomeWin bool `json:"home_win,omitempty"`

	// Upcoming rows only.
	PowerIndex float64 `json:"power_index,omitempty"`
}

// Vector returns the row's features in FeatureNames order.
func (r *FeatureRow) Vector() []float64 {
	return []float64{
		r.HomeRPts, r.HomeROpp, r.HomeRWin,
		r.AwayRPts, r.AwayROpp, r.AwayRWin,
		r.DiffRPts, r.DiffROpp, r.DiffRWin,
	}
}

func (r *FeatureRow) computeDiffs() {
	r.DiffRPts = r.HomeRPts - r.AwayRPts
	r.DiffROpp = r.HomeROpp - r.AwayROpp
	r.DiffRWin = r.HomeRWin - r.AwayRWin
}
