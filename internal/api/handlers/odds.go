package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/services"
	"github.com/rmfonseca/scorebet/internal/teams"
	"github.com/rmfonseca/scorebet/pkg/utils"
)

type OddsHandler struct {
	store *services.OddsStore
}

func NewOddsHandler(store *services.OddsStore) *OddsHandler {
	return &OddsHandler{store: store}
}

type ingestOddsRequest struct {
	Odds []oddsInput `json:"odds" binding:"required"`
}

type oddsInput struct {
	Date     string  `json:"date" binding:"required"`
	HomeTeam string  `json:"home_team" binding:"required"`
	AwayTeam string  `json:"away_team" binding:"required"`
	Book     string  `json:"book" binding:"required"`
	HomeOdds float64 `json:"home_odds" binding:"required"`
	AwayOdds float64 `json:"away_odds" binding:"required"`
}

// IngestOdds accepts decimal head-to-head quotes keyed by matchup day and
// bookmaker. Re-sending a quote overwrites the previous one.
func (h *OddsHandler) IngestOdds(c *gin.Context) {
	var req ingestOddsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	rows := make([]models.GameOdds, 0, len(req.Odds))
	for _, in := range req.Odds {
		date, err := parseDate(in.Date)
		if err != nil {
			utils.SendValidationError(c, "Invalid odds row", err.Error())
			return
		}
		rows = append(rows, models.GameOdds{
			Date:     date,
			HomeTeam: in.HomeTeam,
			AwayTeam: in.AwayTeam,
			Book:     in.Book,
			HomeOdds: in.HomeOdds,
			AwayOdds: in.AwayOdds,
		})
	}

	processed, err := h.store.Upsert(rows)
	if err != nil {
		var unresolved *teams.UnresolvedTeamError
		var storageErr *services.StorageError
		switch {
		case errors.As(err, &unresolved):
			utils.SendValidationError(c, "Unknown team name", unresolved.Error())
		case errors.As(err, &storageErr):
			utils.SendInternalError(c, "Failed to store odds")
		default:
			utils.SendValidationError(c, "Invalid odds row", err.Error())
		}
		return
	}

	utils.SendSuccess(c, gin.H{"processed": processed})
}

// ListOdds returns quotes for today and later.
func (h *OddsHandler) ListOdds(c *gin.Context) {
	rows, err := h.store.Upcoming(time.Now().UTC())
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch odds")
		return
	}
	utils.SendSuccess(c, rows)
}
