package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmfonseca/scorebet/internal/features"
	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/predictor"
)

type stubFixtureProvider struct {
	fixtures []features.Fixture
	err      error
}

func (s *stubFixtureProvider) UpcomingFixtures(ctx context.Context, daysAhead int) ([]features.Fixture, error) {
	return s.fixtures, s.err
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// seedHistory stores alternating meetings of two teams over the past days so
// both have recent profiles.
func seedHistory(t *testing.T, store *GameStore, home, away string, n int) {
	t.Helper()
	games := make([]models.Game, 0, n)
	for i := 0; i < n; i++ {
		games = append(games, models.Game{
			GameID:    1000 + i,
			Date:      today().AddDate(0, 0, -(i + 1)),
			Season:    2025,
			HomeTeam:  home,
			AwayTeam:  away,
			HomeScore: 112,
			AwayScore: 101,
		})
	}
	_, err := store.Upsert(games)
	require.NoError(t, err)
}

func newServiceUnderTest(t *testing.T, provider FixtureProvider) (*PredictionService, *GameStore, *OddsStore, *ModelStore) {
	t.Helper()
	db := newTestDB(t)
	resolver := newTestResolver()
	logger := newTestLogger()
	games := NewGameStore(db, resolver, logger)
	odds := NewOddsStore(db, resolver, logger)
	model := NewModelStore(db, logger)
	svc := NewPredictionService(games, odds, model, provider, resolver, nil, logger)
	return svc, games, odds, model
}

func TestPredictUpcomingHeuristicBatch(t *testing.T) {
	tomorrow := today().AddDate(0, 0, 1)
	provider := &stubFixtureProvider{fixtures: []features.Fixture{
		{GameID: 1, Date: tomorrow, HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks"},
		{GameID: 2, Date: tomorrow, HomeTeam: "Springfield Isotopes", AwayTeam: "Boston Celtics"},
		{GameID: 3, Date: tomorrow, HomeTeam: "Utah Jazz", AwayTeam: "Boston Celtics"},
	}}

	svc, games, _, _ := newServiceUnderTest(t, provider)
	seedHistory(t, games, "Boston Celtics", "New York Knicks", 4)

	batch, err := svc.PredictUpcoming(context.Background(), 3, 5)
	require.NoError(t, err)

	assert.NotEmpty(t, batch.BatchID)
	assert.Equal(t, predictor.SourceHeuristic, batch.Source)
	assert.Equal(t, 1, batch.SkippedUnresolved) // Springfield Isotopes
	assert.Equal(t, 1, batch.SkippedNoProfile)  // Utah Jazz has no games
	assert.Zero(t, batch.ContractErrors)

	require.Len(t, batch.Predictions, 1)
	pred := batch.Predictions[0]
	assert.Equal(t, 1, pred.GameID)
	assert.Equal(t, predictor.SourceHeuristic, pred.Source)
	// The home side won every seeded meeting, so the heuristic must favor it.
	assert.Greater(t, pred.PHomeWin, 0.5)
	assert.InDelta(t, 1.0, pred.PHomeWin+pred.PAwayWin, 1e-12)
}

func TestPredictUpcomingFeedFailure(t *testing.T) {
	provider := &stubFixtureProvider{err: assert.AnError}
	svc, games, _, _ := newServiceUnderTest(t, provider)
	seedHistory(t, games, "Boston Celtics", "New York Knicks", 3)

	_, err := svc.PredictUpcoming(context.Background(), 3, 5)
	require.Error(t, err)

	var feedErr *FeedError
	assert.ErrorAs(t, err, &feedErr)
}

func TestPicksMergeOddsAndComputeEV(t *testing.T) {
	tomorrow := today().AddDate(0, 0, 1)
	provider := &stubFixtureProvider{fixtures: []features.Fixture{
		{GameID: 1, Date: tomorrow, HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks"},
		{GameID: 2, Date: tomorrow, HomeTeam: "New York Knicks", AwayTeam: "Boston Celtics"},
	}}

	svc, games, odds, _ := newServiceUnderTest(t, provider)
	seedHistory(t, games, "Boston Celtics", "New York Knicks", 4)

	_, err := odds.Upsert([]models.GameOdds{
		{Date: tomorrow, HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks", Book: "pinnacle", HomeOdds: 1.80, AwayOdds: 2.10},
	})
	require.NoError(t, err)

	picks, err := svc.Picks(context.Background(), 3, 5)
	require.NoError(t, err)
	require.Len(t, picks, 2)

	var quoted, unquoted *Pick
	for i := range picks {
		if picks[i].GameID == 1 {
			quoted = &picks[i]
		} else {
			unquoted = &picks[i]
		}
	}
	require.NotNil(t, quoted)
	require.NotNil(t, unquoted)

	require.NotNil(t, quoted.EVHome)
	require.NotNil(t, quoted.EVAway)
	assert.Equal(t, "pinnacle", quoted.Book)
	assert.InDelta(t, quoted.PHomeWin-1/1.80, *quoted.EVHome, 1e-12)
	assert.InDelta(t, quoted.PAwayWin-1/2.10, *quoted.EVAway, 1e-12)
	if quoted.Pick == predictor.PickHome {
		require.NotNil(t, quoted.EVBest)
		assert.Equal(t, *quoted.EVHome, *quoted.EVBest)
	}

	// A game without a stored quote is still served, just without EV.
	assert.Nil(t, unquoted.EVHome)
	assert.Nil(t, unquoted.EVAway)
	assert.Nil(t, unquoted.EVBest)
	assert.Empty(t, unquoted.Book)
}

func TestTrainModelInsufficientData(t *testing.T) {
	svc, games, _, _ := newServiceUnderTest(t, &stubFixtureProvider{})
	seedHistory(t, games, "Boston Celtics", "New York Knicks", 3)

	_, err := svc.TrainModel(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient training data")
}

// seedTrainingSlate stores enough mixed-outcome games for a full training
// run: one pairing the home side always wins, another it always loses.
func seedTrainingSlate(t *testing.T, store *GameStore) {
	t.Helper()
	games := make([]models.Game, 0, 40)
	id := 1
	for i := 0; i < 20; i++ {
		date := today().AddDate(0, 0, -(40 - 2*i))
		games = append(games, models.Game{
			GameID: id, Date: date, Season: 2025,
			HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks",
			HomeScore: 115 + i%4, AwayScore: 98,
		})
		id++
		games = append(games, models.Game{
			GameID: id, Date: date, Season: 2025,
			HomeTeam: "Utah Jazz", AwayTeam: "Denver Nuggets",
			HomeScore: 95, AwayScore: 117 - i%4,
		})
		id++
	}
	_, err := store.Upsert(games)
	require.NoError(t, err)
}

func TestTrainModelThenPredictWithModel(t *testing.T) {
	tomorrow := today().AddDate(0, 0, 1)
	provider := &stubFixtureProvider{fixtures: []features.Fixture{
		{GameID: 1, Date: tomorrow, HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks"},
	}}

	svc, games, _, model := newServiceUnderTest(t, provider)
	seedTrainingSlate(t, games)

	report, err := svc.TrainModel(5)
	require.NoError(t, err)
	assert.Greater(t, report.Samples, 30)
	assert.GreaterOrEqual(t, report.Accuracy, 0.5)

	artifact, err := model.Latest()
	require.NoError(t, err)
	assert.Equal(t, 5, artifact.WindowSize)

	batch, err := svc.PredictUpcoming(context.Background(), 3, 5)
	require.NoError(t, err)
	assert.Equal(t, predictor.SourceModel, batch.Source)
	require.Len(t, batch.Predictions, 1)
	assert.Equal(t, predictor.SourceModel, batch.Predictions[0].Source)
}

func TestPredictFallsBackOnWindowMismatch(t *testing.T) {
	tomorrow := today().AddDate(0, 0, 1)
	provider := &stubFixtureProvider{fixtures: []features.Fixture{
		{GameID: 1, Date: tomorrow, HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks"},
	}}

	svc, games, _, _ := newServiceUnderTest(t, provider)
	seedTrainingSlate(t, games)

	_, err := svc.TrainModel(5)
	require.NoError(t, err)

	// Serving with a different window must not feed the window-5 model.
	batch, err := svc.PredictUpcoming(context.Background(), 3, 4)
	require.NoError(t, err)
	assert.Equal(t, predictor.SourceHeuristic, batch.Source)
}
