package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/predictor"
	"github.com/rmfonseca/scorebet/pkg/database"
)

// ErrNoModel means no artifact has ever been saved. Callers degrade to the
// heuristic predictor; this is not a failure.
var ErrNoModel = errors.New("no trained model artifact available")

// ModelStore persists trained classifier artifacts. Every Save appends a new
// row; Latest serves the most recent one, so a bad training run can be
// rolled back by deleting its row.
type ModelStore struct {
	db     *database.DB
	logger *logrus.Logger
}

func NewModelStore(db *database.DB, logger *logrus.Logger) *ModelStore {
	return &ModelStore{
		db:     db,
		logger: logger,
	}
}

func (s *ModelStore) Save(artifact *predictor.Artifact) error {
	row := models.ModelArtifact{
		WindowSize: artifact.WindowSize,
		Intercept:  artifact.Intercept,
		Samples:    artifact.Samples,
		Accuracy:   artifact.Accuracy,
		ROCAUC:     artifact.ROCAUC,
		TrainedAt:  artifact.TrainedAt,
	}

	var err error
	if row.FeatureNames, err = json.Marshal(artifact.FeatureNames); err != nil {
		return fmt.Errorf("failed to encode feature names: %w", err)
	}
	if row.Weights, err = json.Marshal(artifact.Weights); err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	if row.Means, err = json.Marshal(artifact.Means); err != nil {
		return fmt.Errorf("failed to encode means: %w", err)
	}
	if row.Stds, err = json.Marshal(artifact.Stds); err != nil {
		return fmt.Errorf("failed to encode stds: %w", err)
	}

	if err := s.db.Create(&row).Error; err != nil {
		return &StorageError{Op: "save model artifact", Err: err}
	}
	s.logger.WithFields(logrus.Fields{
		"component": "model_store",
		"samples":   artifact.Samples,
		"accuracy":  artifact.Accuracy,
		"roc_auc":   artifact.ROCAUC,
	}).Info("Saved model artifact")
	return nil
}

// Latest loads the newest artifact. Returns ErrNoModel when the table is
// empty; a row that fails to decode is an error the caller may still choose
// to absorb into the heuristic path.
func (s *ModelStore) Latest() (*predictor.Artifact, error) {
	var row models.ModelArtifact
	err := s.db.Order("trained_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoModel
	}
	if err != nil {
		return nil, &StorageError{Op: "load model artifact", Err: err}
	}

	artifact := &predictor.Artifact{
		WindowSize: row.WindowSize,
		Intercept:  row.Intercept,
		Samples:    row.Samples,
		Accuracy:   row.Accuracy,
		ROCAUC:     row.ROCAUC,
		TrainedAt:  row.TrainedAt,
	}
	if err := json.Unmarshal(row.FeatureNames, &artifact.FeatureNames); err != nil {
		return nil, fmt.Errorf("corrupt feature names on artifact %d: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Weights, &artifact.Weights); err != nil {
		return nil, fmt.Errorf("corrupt weights on artifact %d: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Means, &artifact.Means); err != nil {
		return nil, fmt.Errorf("corrupt means on artifact %d: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Stds, &artifact.Stds); err != nil {
		return nil, fmt.Errorf("corrupt stds on artifact %d: %w", row.ID, err)
	}
	return artifact, nil
}
