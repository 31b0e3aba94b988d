package predictor

import (
	"math"
	"sort"

	"github.com/rmfonseca/scorebet/internal/features"
)

// PickThreshold is the fixed probability gate for recommending a side. It is
// a policy constant, not a learned parameter.
const PickThreshold = 0.55

const (
	PickHome = "home"
	PickAway = "away"
	PickNone = "none"

	SourceModel     = "model"
	SourceHeuristic = "heuristic"
)

// Prediction is one scored upcoming game.
type Prediction struct {
	features.FeatureRow

	PHomeWin   float64 `json:"p_home_win"`
	PAwayWin   float64 `json:"p_away_win"`
	Pick       string  `json:"pick"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Predict scores assembled upcoming rows. With a trained source, each row is
// scored through the artifact; a row whose feature vector is malformed gets
// a *FeatureContractError in the second return value and the batch carries
// on. Without a trained source every row goes through the logistic transform
// of its power index, which cannot fail. An incompatible artifact aborts the
// whole batch with a contract error before any row is scored.
func Predict(rows []features.FeatureRow, src ModelSource) ([]Prediction, []error, error) {
	if src.Available() {
		if err := src.Artifact().Compatible(); err != nil {
			return nil, nil, err
		}
	}

	preds := make([]Prediction, 0, len(rows))
	var rowErrs []error
	for _, row := range rows {
		var pHome float64
		source := SourceHeuristic
		if src.Available() {
			vec := row.Vector()
			if bad := malformed(vec); bad != "" {
				rowErrs = append(rowErrs, &FeatureContractError{GameID: row.GameID, Reason: bad})
				continue
			}
			pHome = src.Artifact().PredictProbability(vec)
			source = SourceModel
		} else {
			pHome = sigmoid(row.PowerIndex)
		}

		pred := Prediction{
			FeatureRow: row,
			PHomeWin:   pHome,
			PAwayWin:   1 - pHome,
			Pick:       pickSide(pHome),
			Confidence: math.Abs(pHome-0.5) * 200,
			Source:     source,
		}
		preds = append(preds, pred)
	}

	sort.SliceStable(preds, func(i, j int) bool { return preds[i].Date.Before(preds[j].Date) })
	return preds, rowErrs, nil
}

func pickSide(pHome float64) string {
	switch {
	case pHome >= PickThreshold:
		return PickHome
	case 1-pHome >= PickThreshold:
		return PickAway
	default:
		return PickNone
	}
}

func malformed(vec []float64) string {
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "feature " + features.FeatureNames[i] + " is not finite"
		}
	}
	return ""
}
