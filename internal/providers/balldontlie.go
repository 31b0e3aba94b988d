package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/rmfonseca/scorebet/internal/features"
	"github.com/rmfonseca/scorebet/internal/models"
)

// Cache is the small caching capability providers need; satisfied by
// services.CacheService. A nil cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// BallDontLieClient fetches NBA games from the balldontlie API. It serves
// both feeds the pipeline consumes: finished games for the store and
// scheduled fixtures for upcoming predictions.
type BallDontLieClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      Cache
	logger     *logrus.Logger
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// NewBallDontLieClient creates a new balldontlie API client. The free tier
// allows 5 requests per minute, hence the limiter.
func NewBallDontLieClient(baseURL, apiKey string, timeout time.Duration, cache Cache, logger *logrus.Logger) *BallDontLieClient {
	settings := gobreaker.Settings{
		Name: "balldontlie",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}
	return &BallDontLieClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      cache,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Every(12*time.Second), 1),
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

// balldontlie API response structures
type bdlGamesResponse struct {
	Data []bdlGame `json:"data"`
	Meta bdlMeta   `json:"meta"`
}

type bdlGame struct {
	ID       int     `json:"id"`
	Date     string  `json:"date"`
	Season   int     `json:"season"`
	Status   string  `json:"status"`
	Period   int     `json:"period"`
	HomeTeam bdlTeam `json:"home_team"`
	AwayTeam bdlTeam `json:"visitor_team"`
	HomeScore int    `json:"home_team_score"`
	AwayScore int    `json:"visitor_team_score"`
}

type bdlTeam struct {
	ID           int    `json:"id"`
	City         string `json:"city"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Abbreviation string `json:"abbreviation"`
}

type bdlMeta struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

// gamesForDates pulls every game for the given ISO dates, following
// pagination. The dates[] parameter is repeated once per date.
func (c *BallDontLieClient) gamesForDates(ctx context.Context, dates []string) ([]bdlGame, error) {
	var all []bdlGame
	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		params := url.Values{}
		params.Set("per_page", "100")
		params.Set("page", strconv.Itoa(page))
		for _, d := range dates {
			params.Add("dates[]", d)
		}
		reqURL := fmt.Sprintf("%s/games?%s", c.baseURL, params.Encode())

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.fetchPage(ctx, reqURL)
		})
		if err != nil {
			return nil, err
		}
		resp := result.(*bdlGamesResponse)

		all = append(all, resp.Data...)
		if len(resp.Data) == 0 || page >= resp.Meta.TotalPages {
			break
		}
	}
	return all, nil
}

func (c *BallDontLieClient) fetchPage(ctx context.Context, reqURL string) (*bdlGamesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.apiKey != "" {
		// The API has accepted both header forms across versions.
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("balldontlie request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 400))
		c.logger.WithFields(logrus.Fields{
			"provider": "balldontlie",
			"status":   resp.StatusCode,
			"body":     string(body),
		}).Error("Unexpected response from balldontlie")
		return nil, fmt.Errorf("balldontlie returned status %d", resp.StatusCode)
	}

	var payload bdlGamesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode balldontlie response: %w", err)
	}
	return &payload, nil
}

// HistoricalGames returns finished games from the last `lastNDays` days
// (today included). Games still in progress are excluded; the store only
// accepts final scores.
func (c *BallDontLieClient) HistoricalGames(ctx context.Context, lastNDays int) ([]models.Game, error) {
	dates := isoDateRange(time.Now().UTC().AddDate(0, 0, -lastNDays), time.Now().UTC())

	cacheKey := "bdl:hist:" + dates[0] + ":" + dates[len(dates)-1]
	var cached []models.Game
	if c.cache != nil {
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	raw, err := c.gamesForDates(ctx, dates)
	if err != nil {
		return nil, err
	}

	games := make([]models.Game, 0, len(raw))
	for _, g := range raw {
		if g.Status != "Final" {
			continue
		}
		game, err := mapGame(g)
		if err != nil {
			c.logger.WithField("game_id", g.ID).Warnf("Skipping malformed game row: %v", err)
			continue
		}
		games = append(games, game)
	}
	c.logger.WithFields(logrus.Fields{
		"provider": "balldontlie",
		"fetched":  len(raw),
		"final":    len(games),
	}).Info("Fetched historical games")

	if c.cache != nil && len(games) > 0 {
		_ = c.cache.Set(ctx, cacheKey, games, 10*time.Minute)
	}
	return games, nil
}

// UpcomingFixtures returns scheduled games for the next `daysAhead` days
// (today included). Finished games in the window are left out.
func (c *BallDontLieClient) UpcomingFixtures(ctx context.Context, daysAhead int) ([]features.Fixture, error) {
	now := time.Now().UTC()
	dates := isoDateRange(now, now.AddDate(0, 0, daysAhead))

	raw, err := c.gamesForDates(ctx, dates)
	if err != nil {
		return nil, err
	}

	fixtures := make([]features.Fixture, 0, len(raw))
	for _, g := range raw {
		if g.Status == "Final" {
			continue
		}
		date, err := parseGameDate(g.Date)
		if err != nil {
			c.logger.WithField("game_id", g.ID).Warnf("Skipping fixture with bad date: %v", err)
			continue
		}
		fixtures = append(fixtures, features.Fixture{
			GameID:   g.ID,
			Date:     date,
			Season:   g.Season,
			HomeTeam: g.HomeTeam.FullName,
			AwayTeam: g.AwayTeam.FullName,
		})
	}
	c.logger.WithFields(logrus.Fields{
		"provider": "balldontlie",
		"fixtures": len(fixtures),
	}).Info("Fetched upcoming fixtures")
	return fixtures, nil
}

func mapGame(g bdlGame) (models.Game, error) {
	date, err := parseGameDate(g.Date)
	if err != nil {
		return models.Game{}, err
	}
	game := models.Game{
		GameID:    g.ID,
		Date:      date,
		Season:    g.Season,
		HomeTeam:  g.HomeTeam.FullName,
		AwayTeam:  g.AwayTeam.FullName,
		HomeScore: g.HomeScore,
		AwayScore: g.AwayScore,
	}
	return game, game.Validate()
}

// parseGameDate handles the two formats balldontlie has shipped: a plain
// ISO day and a full RFC3339 timestamp.
func parseGameDate(s string) (time.Time, error) {
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable game date %q", s)
	}
	return t.Truncate(24 * time.Hour), nil
}

func isoDateRange(start, end time.Time) []string {
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates
}
