package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/teams"
	"github.com/rmfonseca/scorebet/pkg/database"
)

// OddsStore holds head-to-head quotes ingested through the API. The picks
// endpoint joins these against predictions; how the quotes got here (which
// bookmaker scraper, which schedule) is somebody else's problem.
type OddsStore struct {
	db       *database.DB
	resolver *teams.Resolver
	logger   *logrus.Logger
}

func NewOddsStore(db *database.DB, resolver *teams.Resolver, logger *logrus.Logger) *OddsStore {
	return &OddsStore{
		db:       db,
		resolver: resolver,
		logger:   logger,
	}
}

// Upsert merges odds rows keyed by (date, matchup, book). Team names are
// canonicalized first so the later join against predictions is exact.
func (s *OddsStore) Upsert(rows []models.GameOdds) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return 0, fmt.Errorf("invalid odds: %w", err)
		}
		home, err := s.resolver.Resolve(rows[i].HomeTeam)
		if err != nil {
			return 0, fmt.Errorf("odds row: %w", err)
		}
		away, err := s.resolver.Resolve(rows[i].AwayTeam)
		if err != nil {
			return 0, fmt.Errorf("odds row: %w", err)
		}
		rows[i].HomeTeam = home
		rows[i].AwayTeam = away
		rows[i].Date = rows[i].Date.Truncate(24 * time.Hour)
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "home_team"}, {Name: "away_team"}, {Name: "book"}},
		DoUpdates: clause.AssignmentColumns([]string{"home_odds", "away_odds", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return 0, &StorageError{Op: "upsert odds", Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"component": "odds_store",
		"processed": len(rows),
	}).Info("Upserted odds")
	return len(rows), nil
}

// Upcoming returns quotes dated today or later, oldest first.
func (s *OddsStore) Upcoming(now time.Time) ([]models.GameOdds, error) {
	day := now.Truncate(24 * time.Hour)
	var rows []models.GameOdds
	if err := s.db.Where("date >= ?", day).Order("date ASC").Find(&rows).Error; err != nil {
		return nil, &StorageError{Op: "read upcoming odds", Err: err}
	}
	return rows, nil
}

// DeleteOlderThan drops stale quotes; run from the scheduled cleanup job.
func (s *OddsStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := s.db.Where("date < ?", cutoff).Delete(&models.GameOdds{})
	if res.Error != nil {
		return 0, &StorageError{Op: "delete old odds", Err: res.Error}
	}
	return res.RowsAffected, nil
}
