package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmfonseca/scorebet/internal/features"
	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/services"
	"github.com/rmfonseca/scorebet/internal/teams"
	"github.com/rmfonseca/scorebet/pkg/config"
	"github.com/rmfonseca/scorebet/pkg/database"
)

type stubProvider struct {
	games    []models.Game
	fixtures []features.Fixture
	err      error
}

func (s *stubProvider) HistoricalGames(ctx context.Context, lastNDays int) ([]models.Game, error) {
	return s.games, s.err
}

func (s *stubProvider) UpcomingFixtures(ctx context.Context, daysAhead int) ([]features.Fixture, error) {
	return s.fixtures, s.err
}

func newTestRouter(t *testing.T, provider *stubProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.NewConnection(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Game{}, &models.GameOdds{}, &models.TeamAlias{}, &models.ModelArtifact{},
	))
	t.Cleanup(func() { _ = db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	resolver := teams.NewResolver()
	cfg := &config.Config{DaysAhead: 3, RollingWindow: 5}

	gameStore := services.NewGameStore(db, resolver, logger)
	oddsStore := services.NewOddsStore(db, resolver, logger)
	modelStore := services.NewModelStore(db, logger)
	predictions := services.NewPredictionService(gameStore, oddsStore, modelStore, provider, resolver, nil, logger)
	fetcher := services.NewDataFetcherService(gameStore, oddsStore, provider, logger, time.Hour, 3, 14*24*time.Hour)

	router := gin.New()
	SetupRoutes(router, Deps{
		DB:          db,
		Config:      cfg,
		GameStore:   gameStore,
		OddsStore:   oddsStore,
		ModelStore:  modelStore,
		Predictions: predictions,
		DataFetcher: fetcher,
	})
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestIngestAndListGames(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})

	body := map[string]interface{}{
		"games": []map[string]interface{}{
			{
				"game_id": 1, "date": "2026-01-10", "season": 2025,
				"home_team": "Boston Celtics", "away_team": "NY Knicks",
				"home_score": 110, "away_score": 100,
			},
		},
	}
	w := doJSON(t, router, http.MethodPost, "/api/v1/games/ingest", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"processed":1`)

	w = doJSON(t, router, http.MethodGet, "/api/v1/games", nil)
	require.Equal(t, http.StatusOK, w.Code)
	// The alias is resolved before storage.
	assert.Contains(t, w.Body.String(), "New York Knicks")
}

func TestIngestGamesRejectsUnknownTeam(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})

	body := map[string]interface{}{
		"games": []map[string]interface{}{
			{
				"game_id": 1, "date": "2026-01-10",
				"home_team": "Springfield Isotopes", "away_team": "Boston Celtics",
				"home_score": 110, "away_score": 100,
			},
		},
	}
	w := doJSON(t, router, http.MethodPost, "/api/v1/games/ingest", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Springfield Isotopes")
}

func TestIngestGamesRejectsBadDate(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})

	body := map[string]interface{}{
		"games": []map[string]interface{}{
			{
				"game_id": 1, "date": "January 10th",
				"home_team": "Boston Celtics", "away_team": "New York Knicks",
			},
		},
	}
	w := doJSON(t, router, http.MethodPost, "/api/v1/games/ingest", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestAndListOdds(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	body := map[string]interface{}{
		"odds": []map[string]interface{}{
			{
				"date": tomorrow, "home_team": "Boston Celtics", "away_team": "New York Knicks",
				"book": "pinnacle", "home_odds": 1.8, "away_odds": 2.1,
			},
		},
	}
	w := doJSON(t, router, http.MethodPost, "/api/v1/odds", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/odds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pinnacle")
}

func TestIngestOddsRejectsSubUnity(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})

	body := map[string]interface{}{
		"odds": []map[string]interface{}{
			{
				"date": "2026-01-10", "home_team": "Boston Celtics", "away_team": "New York Knicks",
				"book": "pinnacle", "home_odds": 0.9, "away_odds": 2.1,
			},
		},
	}
	w := doJSON(t, router, http.MethodPost, "/api/v1/odds", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetModelWithoutTraining(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})
	w := doJSON(t, router, http.MethodGet, "/api/v1/model", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpcomingPredictionsEmptySchedule(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})
	w := doJSON(t, router, http.MethodGet, "/api/v1/predictions/upcoming", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"source":"heuristic"`)
}

func TestUpcomingPredictionsFeedDown(t *testing.T) {
	router := newTestRouter(t, &stubProvider{err: assert.AnError})
	w := doJSON(t, router, http.MethodGet, "/api/v1/predictions/upcoming", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUpcomingPredictionsRejectsBadQuery(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})
	w := doJSON(t, router, http.MethodGet, "/api/v1/predictions/upcoming?days=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshGamesPullsProvider(t *testing.T) {
	router := newTestRouter(t, &stubProvider{games: []models.Game{
		{
			GameID: 7, Date: time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC), Season: 2025,
			HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks", HomeScore: 104, AwayScore: 99,
		},
	}})

	w := doJSON(t, router, http.MethodPost, "/api/v1/games/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"processed":1`)

	w = doJSON(t, router, http.MethodGet, "/api/v1/games?season=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"game_id":7`)
}

func TestPicksWithoutOdds(t *testing.T) {
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	provider := &stubProvider{fixtures: []features.Fixture{
		{GameID: 1, Date: tomorrow, HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks"},
	}}
	router := newTestRouter(t, provider)

	// Seed history through the ingest endpoint.
	rows := make([]map[string]interface{}, 0, 4)
	for i := 0; i < 4; i++ {
		rows = append(rows, map[string]interface{}{
			"game_id": 100 + i,
			"date":    time.Now().UTC().AddDate(0, 0, -(i + 1)).Format("2006-01-02"),
			"season":  2025, "home_team": "Boston Celtics", "away_team": "New York Knicks",
			"home_score": 112, "away_score": 101,
		})
	}
	w := doJSON(t, router, http.MethodPost, "/api/v1/games/ingest", map[string]interface{}{"games": rows})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/picks", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	require.Len(t, envelope.Data, 1)
	assert.NotContains(t, string(envelope.Data[0]), "ev_home")
}
