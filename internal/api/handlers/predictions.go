package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rmfonseca/scorebet/internal/predictor"
	"github.com/rmfonseca/scorebet/internal/services"
	"github.com/rmfonseca/scorebet/pkg/config"
	"github.com/rmfonseca/scorebet/pkg/utils"
)

type PredictionHandler struct {
	svc *services.PredictionService
	cfg *config.Config
}

func NewPredictionHandler(svc *services.PredictionService, cfg *config.Config) *PredictionHandler {
	return &PredictionHandler{
		svc: svc,
		cfg: cfg,
	}
}

func (h *PredictionHandler) queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		utils.SendValidationError(c, "Invalid "+key, "must be a positive integer")
		return 0, false
	}
	return v, true
}

// GetUpcoming serves the current prediction batch for the next N days.
func (h *PredictionHandler) GetUpcoming(c *gin.Context) {
	days, ok := h.queryInt(c, "days", h.cfg.DaysAhead)
	if !ok {
		return
	}
	window, ok := h.queryInt(c, "window", h.cfg.RollingWindow)
	if !ok {
		return
	}

	batch, err := h.svc.PredictUpcoming(c.Request.Context(), days, window)
	if err != nil {
		h.sendPipelineError(c, err)
		return
	}
	utils.SendSuccess(c, batch)
}

// GetPicks serves predictions merged with stored odds and expected values.
func (h *PredictionHandler) GetPicks(c *gin.Context) {
	days, ok := h.queryInt(c, "days", h.cfg.DaysAhead)
	if !ok {
		return
	}
	window, ok := h.queryInt(c, "window", h.cfg.RollingWindow)
	if !ok {
		return
	}

	picks, err := h.svc.Picks(c.Request.Context(), days, window)
	if err != nil {
		h.sendPipelineError(c, err)
		return
	}
	utils.SendSuccess(c, picks)
}

func (h *PredictionHandler) sendPipelineError(c *gin.Context, err error) {
	var contractErr *predictor.FeatureContractError
	var storageErr *services.StorageError
	var feedErr *services.FeedError
	switch {
	case errors.As(err, &contractErr):
		utils.SendInternalError(c, "Model artifact incompatible with serving features")
	case errors.As(err, &feedErr):
		utils.SendServiceUnavailable(c, "Fixtures feed unavailable")
	case errors.As(err, &storageErr):
		utils.SendInternalError(c, "Storage unavailable")
	default:
		utils.SendInternalError(c, "Failed to generate predictions")
	}
}
