// Package predictor scores assembled feature rows into win probabilities and
// pick recommendations, either through a trained logistic baseline or a
// closed-form heuristic when no model is available.
package predictor

import (
	"fmt"
	"math"
	"time"

	"github.com/rmfonseca/scorebet/internal/features"
)

// Artifact is a trained classifier bundle: weights, the exact ordered
// feature list and the window size used at training time all travel
// together so serving can refuse an incompatible model.
type Artifact struct {
	Weights      []float64 `json:"weights"`
	Intercept    float64   `json:"intercept"`
	Means        []float64 `json:"means"`
	Stds         []float64 `json:"stds"`
	FeatureNames []string  `json:"feature_names"`
	WindowSize   int       `json:"window_size"`
	Samples      int       `json:"samples"`
	Accuracy     float64   `json:"accuracy"`
	ROCAUC       float64   `json:"roc_auc"`
	TrainedAt    time.Time `json:"trained_at"`
}

// Compatible checks the artifact against the feature contract compiled into
// this binary. A mismatch means training-time and serving-time feature
// construction have diverged.
func (a *Artifact) Compatible() error {
	if len(a.FeatureNames) != len(features.FeatureNames) {
		return &FeatureContractError{
			Reason: fmt.Sprintf("artifact has %d features, serving builds %d",
				len(a.FeatureNames), len(features.FeatureNames)),
		}
	}
	for i, name := range a.FeatureNames {
		if name != features.FeatureNames[i] {
			return &FeatureContractError{
				Reason: fmt.Sprintf("feature %d is %q in artifact, %q at serving time",
					i, name, features.FeatureNames[i]),
			}
		}
	}
	if len(a.Weights) != len(a.FeatureNames) {
		return &FeatureContractError{
			Reason: fmt.Sprintf("artifact has %d weights for %d features",
				len(a.Weights), len(a.FeatureNames)),
		}
	}
	if len(a.Means) != len(a.Weights) || len(a.Stds) != len(a.Weights) {
		return &FeatureContractError{Reason: "artifact scaling vectors do not match weight count"}
	}
	return nil
}

// PredictProbability returns P(home win) for a feature vector in
// FeatureNames order. Inputs are standardized with the training-time
// moments before the linear term is applied.
func (a *Artifact) PredictProbability(x []float64) float64 {
	z := a.Intercept
	for i, w := range a.Weights {
		std := a.Stds[i]
		if std == 0 {
			std = 1
		}
		z += w * (x[i] - a.Means[i]) / std
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// ModelSource is the explicit capability handed to the predictor: either a
// trained artifact or nothing. Selecting the variant once per batch keeps
// the heuristic fallback a first-class branch instead of an exception path.
type ModelSource struct {
	artifact *Artifact
}

// Trained wraps a loaded artifact.
func Trained(a *Artifact) ModelSource {
	return ModelSource{artifact: a}
}

// Unavailable is the designed degradation path: no model was ever trained,
// or loading it failed.
func Unavailable() ModelSource {
	return ModelSource{}
}

func (s ModelSource) Available() bool {
	return s.artifact != nil
}

func (s ModelSource) Artifact() *Artifact {
	return s.artifact
}

// FeatureContractError signals a schema mismatch between training-time and
// serving-time feature construction. It is fatal for the affected row (or
// batch, when the artifact itself is incompatible) but never triggers the
// heuristic fallback: a broken contract is a defect, not a missing model.
type FeatureContractError struct {
	GameID int
	Reason string
}

func (e *FeatureContractError) Error() string {
	if e.GameID != 0 {
		return fmt.Sprintf("feature contract violated for game %d: %s", e.GameID, e.Reason)
	}
	return fmt.Sprintf("feature contract violated: %s", e.Reason)
}
