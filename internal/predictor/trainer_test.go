package predictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmfonseca/scorebet/internal/features"
)

// separableRows builds a training table where the sign of the rolling
// differentials fully determines the label.
func separableRows(n int) []features.FeatureRow {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]features.FeatureRow, 0, 2*n)
	for i := 0; i < n; i++ {
		margin := 4.0 + float64(i%7)
		win := features.FeatureRow{
			GameID:   2*i + 1,
			Date:     base.AddDate(0, 0, i),
			HomeTeam: "Boston Celtics",
			AwayTeam: "New York Knicks",
			HomeRPts: 108 + margin, HomeROpp: 100 - margin/2, HomeRWin: 0.7,
			AwayRPts: 104, AwayROpp: 106, AwayRWin: 0.35,
			HomeWin: true,
		}
		win.DiffRPts = win.HomeRPts - win.AwayRPts
		win.DiffROpp = win.HomeROpp - win.AwayROpp
		win.DiffRWin = win.HomeRWin - win.AwayRWin

		loss := features.FeatureRow{
			GameID:   2*i + 2,
			Date:     base.AddDate(0, 0, i),
			HomeTeam: "Utah Jazz",
			AwayTeam: "Denver Nuggets",
			HomeRPts: 100 - margin, HomeROpp: 108 + margin/2, HomeRWin: 0.3,
			AwayRPts: 110, AwayROpp: 98, AwayRWin: 0.75,
			HomeWin: false,
		}
		loss.DiffRPts = loss.HomeRPts - loss.AwayRPts
		loss.DiffROpp = loss.HomeROpp - loss.AwayROpp
		loss.DiffRWin = loss.HomeRWin - loss.AwayRWin

		rows = append(rows, win, loss)
	}
	return rows
}

func TestTrainOnSeparableData(t *testing.T) {
	rows := separableRows(24)

	artifact, report, err := Train(rows, 5)
	require.NoError(t, err)
	require.NotNil(t, artifact)
	require.NotNil(t, report)

	assert.Equal(t, len(rows), report.Samples)
	assert.Equal(t, report.TrainSamples+report.TestSamples, report.Samples)
	assert.GreaterOrEqual(t, report.Accuracy, 0.9)
	assert.GreaterOrEqual(t, report.ROCAUC, 0.9)

	assert.Equal(t, 5, artifact.WindowSize)
	assert.Equal(t, features.FeatureNames, artifact.FeatureNames)
	assert.NoError(t, artifact.Compatible())
	assert.False(t, artifact.TrainedAt.IsZero())
}

func TestTrainDeterministic(t *testing.T) {
	rows := separableRows(20)

	first, firstReport, err := Train(rows, 5)
	require.NoError(t, err)
	second, secondReport, err := Train(rows, 5)
	require.NoError(t, err)

	assert.Equal(t, first.Weights, second.Weights)
	assert.Equal(t, first.Intercept, second.Intercept)
	assert.Equal(t, first.Means, second.Means)
	assert.Equal(t, first.Stds, second.Stds)
	assert.Equal(t, firstReport, secondReport)
}

func TestTrainRejectsInsufficientData(t *testing.T) {
	rows := separableRows(3) // 3 per class, below the minimum

	artifact, report, err := Train(rows, 5)
	assert.Nil(t, artifact)
	assert.Nil(t, report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient training data")
}

func TestTrainRejectsSingleClass(t *testing.T) {
	rows := separableRows(20)
	for i := range rows {
		rows[i].HomeWin = true
	}

	_, _, err := Train(rows, 5)
	require.Error(t, err)
}

func TestROCAUCOrdering(t *testing.T) {
	// Perfect ranking: every positive scores above every negative.
	perfect := rocAUC(
		[]float64{0.9, 0.8, 0.2, 0.1, 0.7, 0.3},
		[]bool{true, true, false, false, true, false},
	)
	assert.InDelta(t, 1.0, perfect, 1e-9)

	// Inverted ranking collapses to zero.
	inverted := rocAUC(
		[]float64{0.1, 0.2, 0.8, 0.9},
		[]bool{true, true, false, false},
	)
	assert.InDelta(t, 0.0, inverted, 1e-9)

	// Interleaved scores land strictly between.
	mixed := rocAUC(
		[]float64{0.9, 0.6, 0.4, 0.7, 0.3, 0.1},
		[]bool{true, false, true, false, true, false},
	)
	assert.Greater(t, mixed, 0.0)
	assert.Less(t, mixed, 1.0)
}

func TestTrainedArtifactScoresHeldOutDirectionally(t *testing.T) {
	rows := separableRows(24)
	artifact, _, err := Train(rows, 5)
	require.NoError(t, err)

	// A fresh row shaped like the winning class should score above 0.5,
	// its mirror below.
	win := rows[0]
	loss := rows[1]
	assert.Greater(t, artifact.PredictProbability(win.Vector()), 0.5)
	assert.Less(t, artifact.PredictProbability(loss.Vector()), 0.5)
}
