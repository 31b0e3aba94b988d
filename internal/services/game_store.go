package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/teams"
	"github.com/rmfonseca/scorebet/pkg/database"
)

// GameStore owns the completed-games table. It is the single writer;
// ingestion upserts by game id and never partially updates a row.
type GameStore struct {
	db       *database.DB
	resolver *teams.Resolver
	logger   *logrus.Logger
}

func NewGameStore(db *database.DB, resolver *teams.Resolver, logger *logrus.Logger) *GameStore {
	return &GameStore{
		db:       db,
		resolver: resolver,
		logger:   logger,
	}
}

// Upsert validates, canonicalizes and merges games into storage keyed by
// game id; on conflict every mutable field is overwritten with the incoming
// values, so re-ingesting the same feed window is idempotent. Rows that fail
// validation or name resolution reject the whole batch: a feed sending
// garbage is a configuration problem, not something to paper over. Returns
// the number of rows processed; empty input is a no-op returning 0.
func (s *GameStore) Upsert(games []models.Game) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}

	// De-duplicate by id, last occurrence wins.
	deduped := make(map[int]models.Game, len(games))
	order := make([]int, 0, len(games))
	for _, g := range games {
		if err := g.Validate(); err != nil {
			return 0, fmt.Errorf("invalid game: %w", err)
		}
		home, err := s.resolver.Resolve(g.HomeTeam)
		if err != nil {
			return 0, fmt.Errorf("game %d: %w", g.GameID, err)
		}
		away, err := s.resolver.Resolve(g.AwayTeam)
		if err != nil {
			return 0, fmt.Errorf("game %d: %w", g.GameID, err)
		}
		g.HomeTeam = home
		g.AwayTeam = away
		g.Date = g.Day()
		if _, seen := deduped[g.GameID]; !seen {
			order = append(order, g.GameID)
		}
		deduped[g.GameID] = g
	}

	rows := make([]models.Game, 0, len(deduped))
	for _, id := range order {
		rows = append(rows, deduped[id])
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "game_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"date", "season", "home_team", "away_team", "home_score", "away_score", "updated_at",
		}),
	}).Create(&rows).Error
	if err != nil {
		return 0, &StorageError{Op: "upsert games", Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"component": "game_store",
		"received":  len(games),
		"processed": len(rows),
	}).Info("Upserted games")
	return len(rows), nil
}

// AllGames returns every stored game in arbitrary order; callers sort.
// An empty store yields an empty slice, not an error.
func (s *GameStore) AllGames() ([]models.Game, error) {
	var games []models.Game
	if err := s.db.Find(&games).Error; err != nil {
		return nil, &StorageError{Op: "read games", Err: err}
	}
	return games, nil
}

// GamesBySeason returns stored games for one season, newest first.
func (s *GameStore) GamesBySeason(season int) ([]models.Game, error) {
	var games []models.Game
	if err := s.db.Where("season = ?", season).Order("date DESC").Find(&games).Error; err != nil {
		return nil, &StorageError{Op: "read games by season", Err: err}
	}
	return games, nil
}

// Count returns the number of stored games.
func (s *GameStore) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&models.Game{}).Count(&count).Error; err != nil {
		return 0, &StorageError{Op: "count games", Err: err}
	}
	return count, nil
}
