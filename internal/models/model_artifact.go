package models

import (
	"time"

	"gorm.io/datatypes"
)

// ModelArtifact is a persisted trained classifier. The weights, the ordered
// feature name list and the rolling window size travel together so the
// serving side can check compatibility before trusting the model.
type ModelArtifact struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	WindowSize   int            `gorm:"not null" json:"window_size"`
	FeatureNames datatypes.JSON `gorm:"not null" json:"feature_names"`
	Weights      datatypes.JSON `gorm:"not null" json:"weights"`
	Intercept    float64        `json:"intercept"`
	Means        datatypes.JSON `json:"means"`
	Stds         datatypes.JSON `json:"stds"`
	Samples      int            `json:"samples"`
	Accuracy     float64        `json:"accuracy"`
	ROCAUC       float64        `json:"roc_auc"`
	TrainedAt    time.Time      `gorm:"index" json:"trained_at"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM
func (ModelArtifact) TableName() string {
	return "model_artifacts"
}
