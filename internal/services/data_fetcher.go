package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/rmfonseca/scorebet/internal/models"
)

// GamesProvider is the completed-games feed used by the scheduled fetcher.
type GamesProvider interface {
	HistoricalGames(ctx context.Context, lastNDays int) ([]models.Game, error)
}

// DataFetcherService keeps the games table fresh on a schedule and expires
// stale odds quotes.
type DataFetcherService struct {
	games         *GameStore
	odds          *OddsStore
	provider      GamesProvider
	logger        *logrus.Logger
	cron          *cron.Cron
	mu            sync.Mutex
	isRunning     bool
	fetchInterval time.Duration
	historyDays   int
	oddsMaxAge    time.Duration
}

func NewDataFetcherService(
	games *GameStore,
	odds *OddsStore,
	provider GamesProvider,
	logger *logrus.Logger,
	fetchInterval time.Duration,
	historyDays int,
	oddsMaxAge time.Duration,
) *DataFetcherService {
	return &DataFetcherService{
		games:         games,
		odds:          odds,
		provider:      provider,
		logger:        logger,
		cron:          cron.New(),
		fetchInterval: fetchInterval,
		historyDays:   historyDays,
		oddsMaxAge:    oddsMaxAge,
	}
}

// Start begins the scheduled fetching. runInitialFetch controls whether a
// fetch fires immediately in the background on startup.
func (s *DataFetcherService) Start(runInitialFetch bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("data fetcher is already running")
	}

	schedule := fmt.Sprintf("@every %s", s.fetchInterval.String())
	_, err := s.cron.AddFunc(schedule, s.fetchRecentGames)
	if err != nil {
		return fmt.Errorf("failed to schedule games fetcher: %w", err)
	}

	// Daily cleanup of stale odds quotes
	_, err = s.cron.AddFunc("0 3 * * *", s.cleanupStaleOdds)
	if err != nil {
		return fmt.Errorf("failed to schedule odds cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	if runInitialFetch {
		go s.fetchRecentGames()
	}

	s.logger.Info("Data fetcher service started")
	return nil
}

// Stop halts the schedule and waits for in-flight jobs to finish.
func (s *DataFetcherService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Data fetcher service stopped")
}

// FetchNow runs a single fetch cycle synchronously, outside the schedule.
// Used by the manual refresh endpoint.
func (s *DataFetcherService) FetchNow(ctx context.Context) (int, error) {
	games, err := s.provider.HistoricalGames(ctx, s.historyDays)
	if err != nil {
		return 0, &FeedError{Feed: "games", Err: err}
	}
	return s.games.Upsert(games)
}

func (s *DataFetcherService) fetchRecentGames() {
	s.logger.Infof("Starting scheduled games fetch (last %d days)", s.historyDays)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	processed, err := s.FetchNow(ctx)
	if err != nil {
		s.logger.Errorf("Scheduled games fetch failed: %v", err)
		return
	}
	s.logger.Infof("Completed scheduled games fetch, upserted %d games", processed)
}

func (s *DataFetcherService) cleanupStaleOdds() {
	cutoff := time.Now().UTC().Add(-s.oddsMaxAge)
	deleted, err := s.odds.DeleteOlderThan(cutoff)
	if err != nil {
		s.logger.Errorf("Odds cleanup failed: %v", err)
		return
	}
	if deleted > 0 {
		s.logger.Infof("Deleted %d stale odds quotes", deleted)
	}
}
