package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/rmfonseca/scorebet/internal/services"
	"github.com/rmfonseca/scorebet/pkg/config"
	"github.com/rmfonseca/scorebet/pkg/utils"
)

type ModelHandler struct {
	svc   *services.PredictionService
	store *services.ModelStore
	cfg   *config.Config
}

func NewModelHandler(svc *services.PredictionService, store *services.ModelStore, cfg *config.Config) *ModelHandler {
	return &ModelHandler{
		svc:   svc,
		store: store,
		cfg:   cfg,
	}
}

type trainRequest struct {
	Window int `json:"window"`
}

// Train rebuilds the feature table from stored games, fits the baseline
// classifier and persists the artifact. Synchronous: the dataset is small
// enough that training completes well within a request.
func (h *ModelHandler) Train(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	window := req.Window
	if window == 0 {
		window = h.cfg.RollingWindow
	}
	if window < 0 {
		utils.SendValidationError(c, "Invalid window", "must be a positive integer")
		return
	}

	report, err := h.svc.TrainModel(window)
	if err != nil {
		var storageErr *services.StorageError
		if errors.As(err, &storageErr) {
			utils.SendInternalError(c, "Failed to persist model artifact")
			return
		}
		utils.SendValidationError(c, "Training failed", err.Error())
		return
	}
	utils.SendSuccess(c, report)
}

// GetModel returns the most recent trained artifact, weights included.
func (h *ModelHandler) GetModel(c *gin.Context) {
	artifact, err := h.store.Latest()
	if err != nil {
		if errors.Is(err, services.ErrNoModel) {
			utils.SendNotFound(c, "No trained model available")
			return
		}
		utils.SendInternalError(c, "Failed to load model artifact")
		return
	}
	utils.SendSuccess(c, artifact)
}
