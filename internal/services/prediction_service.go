package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rmfonseca/scorebet/internal/features"
	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/predictor"
	"github.com/rmfonseca/scorebet/internal/teams"
)

// FixtureProvider is the upcoming-fixtures feed. Satisfied by
// providers.BallDontLieClient.
type FixtureProvider interface {
	UpcomingFixtures(ctx context.Context, daysAhead int) ([]features.Fixture, error)
}

// PredictionBatch is one serving of upcoming-game predictions plus the
// observability counters tests and dashboards rely on.
type PredictionBatch struct {
	BatchID          string                 `json:"batch_id"`
	GeneratedAt      time.Time              `json:"generated_at"`
	Window           int                    `json:"window"`
	DaysAhead        int                    `json:"days_ahead"`
	Source           string                 `json:"source"`
	Predictions      []predictor.Prediction `json:"predictions"`
	SkippedNoProfile int                    `json:"skipped_no_profile"`
	SkippedUnresolved int                   `json:"skipped_unresolved"`
	ContractErrors   int                    `json:"contract_errors"`
}

// Pick is a prediction merged with the best available odds quote. EV fields
// are absent when no quote was stored for the game; the pick is still
// served.
type Pick struct {
	predictor.Prediction

	Book     string   `json:"book,omitempty"`
	HomeOdds *float64 `json:"home_odds,omitempty"`
	AwayOdds *float64 `json:"away_odds,omitempty"`
	EVHome   *float64 `json:"ev_home,omitempty"`
	EVAway   *float64 `json:"ev_away,omitempty"`
	EVBest   *float64 `json:"ev_best,omitempty"`
}

// PredictionService runs the serving pipeline: stored games in, scored
// upcoming games out. Everything in between is pure computation; the only
// blocking external call is the fixtures feed.
type PredictionService struct {
	games    *GameStore
	odds     *OddsStore
	model    *ModelStore
	fixtures FixtureProvider
	resolver *teams.Resolver
	cache    *CacheService
	logger   *logrus.Logger
}

func NewPredictionService(
	games *GameStore,
	odds *OddsStore,
	model *ModelStore,
	fixtures FixtureProvider,
	resolver *teams.Resolver,
	cache *CacheService,
	logger *logrus.Logger,
) *PredictionService {
	return &PredictionService{
		games:    games,
		odds:     odds,
		model:    model,
		fixtures: fixtures,
		resolver: resolver,
		cache:    cache,
		logger:   logger,
	}
}

// selectModelSource picks the variant once per batch. Absence and load
// failures both degrade to the heuristic; an artifact trained with a
// different window would feed the model features it has never seen, so it
// counts as unavailable too.
func (s *PredictionService) selectModelSource(window int) predictor.ModelSource {
	artifact, err := s.model.Latest()
	if err != nil {
		if !errors.Is(err, ErrNoModel) {
			s.logger.Warnf("Model artifact unavailable, using heuristic: %v", err)
		}
		return predictor.Unavailable()
	}
	if artifact.WindowSize != window {
		s.logger.WithFields(logrus.Fields{
			"artifact_window": artifact.WindowSize,
			"serving_window":  window,
		}).Warn("Model trained with different rolling window, using heuristic")
		return predictor.Unavailable()
	}
	return predictor.Trained(artifact)
}

// PredictUpcoming builds and scores feature rows for fixtures in the next
// daysAhead days. Storage and contract errors propagate; missing history,
// unresolved fixture names and model absence are absorbed and counted.
func (s *PredictionService) PredictUpcoming(ctx context.Context, daysAhead, window int) (*PredictionBatch, error) {
	if window <= 0 {
		window = features.DefaultWindow
	}

	cacheKey := PredictionsCacheKey(daysAhead, window)
	if s.cache != nil {
		var cached PredictionBatch
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	games, err := s.games.AllGames()
	if err != nil {
		return nil, err
	}

	fixtures, err := s.fixtures.UpcomingFixtures(ctx, daysAhead)
	if err != nil {
		return nil, &FeedError{Feed: "fixtures", Err: err}
	}

	resolved := make([]features.Fixture, 0, len(fixtures))
	unresolved := 0
	for _, fx := range fixtures {
		home, herr := s.resolver.Resolve(fx.HomeTeam)
		away, aerr := s.resolver.Resolve(fx.AwayTeam)
		if herr != nil || aerr != nil {
			unresolved++
			s.logger.WithFields(logrus.Fields{
				"home": fx.HomeTeam,
				"away": fx.AwayTeam,
			}).Warn("Skipping fixture with unresolved team name")
			continue
		}
		fx.HomeTeam = home
		fx.AwayTeam = away
		resolved = append(resolved, fx)
	}

	profiles := features.RecentProfiles(features.Unpivot(games), window, time.Now().UTC())
	rows, skipped := features.AssembleUpcoming(resolved, profiles)

	src := s.selectModelSource(window)
	preds, rowErrs, err := predictor.Predict(rows, src)
	if err != nil {
		return nil, err
	}
	for _, rerr := range rowErrs {
		s.logger.Warnf("Dropped prediction: %v", rerr)
	}

	source := predictor.SourceHeuristic
	if src.Available() {
		source = predictor.SourceModel
	}
	batch := &PredictionBatch{
		BatchID:           uuid.New().String(),
		GeneratedAt:       time.Now().UTC(),
		Window:            window,
		DaysAhead:         daysAhead,
		Source:            source,
		Predictions:       preds,
		SkippedNoProfile:  skipped,
		SkippedUnresolved: unresolved,
		ContractErrors:    len(rowErrs),
	}

	s.logger.WithFields(logrus.Fields{
		"batch_id":           batch.BatchID,
		"predictions":        len(preds),
		"skipped_no_profile": skipped,
		"skipped_unresolved": unresolved,
		"contract_errors":    len(rowErrs),
		"source":             source,
	}).Info("Generated prediction batch")

	if s.cache != nil {
		_ = s.cache.SetWithRetry(ctx, cacheKey, batch, 5*time.Minute, 3)
	}
	return batch, nil
}

// Picks merges the current prediction batch with stored odds quotes and
// attaches expected values: ev_side = p_side - 1/odds_side. Games without a
// stored quote keep their prediction but carry no EV.
func (s *PredictionService) Picks(ctx context.Context, daysAhead, window int) ([]Pick, error) {
	batch, err := s.PredictUpcoming(ctx, daysAhead, window)
	if err != nil {
		return nil, err
	}

	quotes, err := s.odds.Upcoming(time.Now().UTC())
	if err != nil {
		return nil, err
	}
	type oddsKey struct {
		day        string
		home, away string
	}
	byGame := make(map[oddsKey]models.GameOdds, len(quotes))
	for _, q := range quotes {
		key := oddsKey{q.Date.UTC().Format("2006-01-02"), q.HomeTeam, q.AwayTeam}
		if _, seen := byGame[key]; !seen {
			byGame[key] = q
		}
	}

	picks := make([]Pick, 0, len(batch.Predictions))
	for _, pred := range batch.Predictions {
		pick := Pick{Prediction: pred}
		key := oddsKey{pred.Date.UTC().Format("2006-01-02"), pred.HomeTeam, pred.AwayTeam}
		if q, ok := byGame[key]; ok {
			pick.Book = q.Book
			pick.HomeOdds = &q.HomeOdds
			pick.AwayOdds = &q.AwayOdds
			evHome := pred.PHomeWin - 1/q.HomeOdds
			evAway := pred.PAwayWin - 1/q.AwayOdds
			pick.EVHome = &evHome
			pick.EVAway = &evAway
			switch pred.Pick {
			case predictor.PickHome:
				pick.EVBest = &evHome
			case predictor.PickAway:
				pick.EVBest = &evAway
			}
		}
		picks = append(picks, pick)
	}
	return picks, nil
}

// TrainModel runs the offline training step over all stored games and
// persists the resulting artifact.
func (s *PredictionService) TrainModel(window int) (*predictor.TrainingReport, error) {
	if window <= 0 {
		window = features.DefaultWindow
	}
	games, err := s.games.AllGames()
	if err != nil {
		return nil, err
	}

	rows, skipped := features.BuildFeatureTable(games, window)
	s.logger.WithFields(logrus.Fields{
		"games":   len(games),
		"rows":    len(rows),
		"skipped": skipped,
	}).Info("Built training feature table")

	artifact, report, err := predictor.Train(rows, window)
	if err != nil {
		return nil, err
	}
	if err := s.model.Save(artifact); err != nil {
		return nil, err
	}
	if s.cache != nil {
		// A fresh artifact must reach every cached batch, whatever horizon
		// and window it was served under.
		if err := s.cache.DeletePattern(context.Background(), PredictionsCachePattern()); err != nil {
			s.logger.Warnf("Failed to invalidate cached predictions: %v", err)
		}
	}
	return report, nil
}
