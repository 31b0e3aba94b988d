package predictor

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/rmfonseca/scorebet/internal/features"
)

const (
	trainSeed      = 42
	testFraction   = 0.25
	minClassCount  = 8
	gdIterations   = 2000
	gdLearningRate = 0.1
)

// TrainingReport summarizes an offline training run.
type TrainingReport struct {
	Samples      int     `json:"samples"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
	Accuracy     float64 `json:"accuracy"`
	ROCAUC       float64 `json:"roc_auc"`
}

// Train fits the logistic-regression baseline on the historical feature
// table. The split is stratified on the label with a fixed seed, so repeated
// runs over the same table produce the same artifact and metrics. Accuracy
// and ROC-AUC are reported on the held-out quarter.
func Train(rows []features.FeatureRow, window int) (*Artifact, *TrainingReport, error) {
	if window <= 0 {
		window = features.DefaultWindow
	}

	var pos, neg []int
	for i, row := range rows {
		if row.HomeWin {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	if len(pos) < minClassCount || len(neg) < minClassCount {
		return nil, nil, fmt.Errorf("insufficient training data: %d home wins, %d home losses (need %d each)",
			len(pos), len(neg), minClassCount)
	}

	rng := rand.New(rand.NewSource(trainSeed))
	trainIdx, testIdx := stratifiedSplit(pos, neg, rng)

	nFeat := len(features.FeatureNames)
	means, stds := columnMoments(rows, trainIdx, nFeat)

	x := mat.NewDense(len(trainIdx), nFeat, nil)
	y := make([]float64, len(trainIdx))
	for r, idx := range trainIdx {
		vec := rows[idx].Vector()
		for c := 0; c < nFeat; c++ {
			x.Set(r, c, (vec[c]-means[c])/stds[c])
		}
		if rows[idx].HomeWin {
			y[r] = 1
		}
	}

	weights, intercept := fitLogistic(x, y)

	artifact := &Artifact{
		Weights:      weights,
		Intercept:    intercept,
		Means:        means,
		Stds:         stds,
		FeatureNames: append([]string(nil), features.FeatureNames...),
		WindowSize:   window,
		Samples:      len(rows),
		TrainedAt:    time.Now().UTC(),
	}

	scores := make([]float64, len(testIdx))
	classes := make([]bool, len(testIdx))
	correct := 0
	for i, idx := range testIdx {
		p := artifact.PredictProbability(rows[idx].Vector())
		scores[i] = p
		classes[i] = rows[idx].HomeWin
		if (p >= 0.5) == rows[idx].HomeWin {
			correct++
		}
	}
	artifact.Accuracy = float64(correct) / float64(len(testIdx))
	artifact.ROCAUC = rocAUC(scores, classes)

	report := &TrainingReport{
		Samples:      len(rows),
		TrainSamples: len(trainIdx),
		TestSamples:  len(testIdx),
		Accuracy:     artifact.Accuracy,
		ROCAUC:       artifact.ROCAUC,
	}
	return artifact, report, nil
}

// stratifiedSplit holds out testFraction of each class.
func stratifiedSplit(pos, neg []int, rng *rand.Rand) (train, test []int) {
	for _, class := range [][]int{pos, neg} {
		shuffled := append([]int(nil), class...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		cut := int(float64(len(shuffled)) * testFraction)
		if cut < 1 {
			cut = 1
		}
		test = append(test, shuffled[:cut]...)
		train = append(train, shuffled[cut:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// columnMoments computes per-feature mean and stddev over the training rows.
// Constant columns get unit scale so standardization stays well defined.
func columnMoments(rows []features.FeatureRow, idx []int, nFeat int) (means, stds []float64) {
	means = make([]float64, nFeat)
	stds = make([]float64, nFeat)
	col := make([]float64, len(idx))
	for c := 0; c < nFeat; c++ {
		for r, i := range idx {
			col[r] = rows[i].Vector()[c]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		means[c] = mean
		stds[c] = std
	}
	return means, stds
}

// fitLogistic runs full-batch gradient descent on the log loss. Inputs are
// already standardized, so a single fixed learning rate converges fine at
// this scale.
func fitLogistic(x *mat.Dense, y []float64) (weights []float64, intercept float64) {
	n, nFeat := x.Dims()
	w := mat.NewVecDense(nFeat, nil)
	z := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(nFeat, nil)
	residual := mat.NewVecDense(n, nil)

	for iter := 0; iter < gdIterations; iter++ {
		z.MulVec(x, w)
		var interceptGrad float64
		for i := 0; i < n; i++ {
			p := sigmoid(z.AtVec(i) + intercept)
			r := p - y[i]
			residual.SetVec(i, r)
			interceptGrad += r
		}
		grad.MulVec(x.T(), residual)
		step := gdLearningRate / float64(n)
		for j := 0; j < nFeat; j++ {
			w.SetVec(j, w.AtVec(j)-step*grad.AtVec(j))
		}
		intercept -= step * interceptGrad
	}

	weights = make([]float64, nFeat)
	for j := 0; j < nFeat; j++ {
		weights[j] = w.AtVec(j)
	}
	return weights, intercept
}

// rocAUC integrates the ROC curve over the held-out scores.
func rocAUC(scores []float64, classes []bool) float64 {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] < scores[order[j]] })

	sortedScores := make([]float64, len(scores))
	sortedClasses := make([]bool, len(scores))
	for i, idx := range order {
		sortedScores[i] = scores[idx]
		sortedClasses[i] = classes[idx]
	}

	// stat.ROC wants scores ascending and returns the curve from (0,0) to
	// (1,1) with fpr already sorted for integration.
	tpr, fpr, _ := stat.ROC(nil, sortedScores, sortedClasses, nil)
	return integrate.Trapezoidal(fpr, tpr)
}
