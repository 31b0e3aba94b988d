package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/services"
	"github.com/rmfonseca/scorebet/internal/teams"
	"github.com/rmfonseca/scorebet/pkg/utils"
)

type GameHandler struct {
	store   *services.GameStore
	fetcher *services.DataFetcherService
}

func NewGameHandler(store *services.GameStore, fetcher *services.DataFetcherService) *GameHandler {
	return &GameHandler{
		store:   store,
		fetcher: fetcher,
	}
}

type ingestGamesRequest struct {
	Games []gameInput `json:"games" binding:"required"`
}

type gameInput struct {
	GameID    int    `json:"game_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Season    int    `json:"season"`
	HomeTeam  string `json:"home_team" binding:"required"`
	AwayTeam  string `json:"away_team" binding:"required"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// IngestGames accepts a batch of completed games and upserts them by id.
// The whole batch is rejected on the first invalid or unresolvable row.
func (h *GameHandler) IngestGames(c *gin.Context) {
	var req ingestGamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	games, err := parseGameInputs(req.Games)
	if err != nil {
		utils.SendValidationError(c, "Invalid game row", err.Error())
		return
	}

	processed, err := h.store.Upsert(games)
	if err != nil {
		var unresolved *teams.UnresolvedTeamError
		var storageErr *services.StorageError
		switch {
		case errors.As(err, &unresolved):
			utils.SendValidationError(c, "Unknown team name", unresolved.Error())
		case errors.As(err, &storageErr):
			utils.SendInternalError(c, "Failed to store games")
		default:
			utils.SendValidationError(c, "Invalid game row", err.Error())
		}
		return
	}

	utils.SendSuccess(c, gin.H{"processed": processed})
}

func parseGameInputs(inputs []gameInput) ([]models.Game, error) {
	games := make([]models.Game, 0, len(inputs))
	for _, in := range inputs {
		date, err := parseDate(in.Date)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", in.GameID, err)
		}
		games = append(games, models.Game{
			GameID:    in.GameID,
			Date:      date,
			Season:    in.Season,
			HomeTeam:  in.HomeTeam,
			AwayTeam:  in.AwayTeam,
			HomeScore: in.HomeScore,
			AwayScore: in.AwayScore,
		})
	}
	return games, nil
}

// parseDate accepts a plain ISO day or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q", s)
	}
	return t.UTC(), nil
}

// ListGames returns stored games, optionally filtered by season.
func (h *GameHandler) ListGames(c *gin.Context) {
	seasonStr := c.Query("season")
	if seasonStr != "" {
		season, err := strconv.Atoi(seasonStr)
		if err != nil {
			utils.SendValidationError(c, "Invalid season", err.Error())
			return
		}
		games, err := h.store.GamesBySeason(season)
		if err != nil {
			utils.SendInternalError(c, "Failed to fetch games")
			return
		}
		utils.SendSuccess(c, games)
		return
	}

	games, err := h.store.AllGames()
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch games")
		return
	}
	utils.SendSuccess(c, games)
}

// RefreshGames triggers an immediate fetch from the games feed instead of
// waiting for the next scheduled run.
func (h *GameHandler) RefreshGames(c *gin.Context) {
	processed, err := h.fetcher.FetchNow(c.Request.Context())
	if err != nil {
		var feedErr *services.FeedError
		if errors.As(err, &feedErr) {
			utils.SendServiceUnavailable(c, "Games feed unavailable")
			return
		}
		utils.SendInternalError(c, "Failed to refresh games")
		return
	}
	utils.SendSuccess(c, gin.H{"processed": processed})
}
