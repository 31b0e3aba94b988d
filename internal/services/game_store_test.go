package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/teams"
)

func testGame(id int, date time.Time, home, away string, homeScore, awayScore int) models.Game {
	return models.Game{
		GameID:    id,
		Date:      date,
		Season:    2025,
		HomeTeam:  home,
		AwayTeam:  away,
		HomeScore: homeScore,
		AwayScore: awayScore,
	}
}

func gameDay(offset int) time.Time {
	return time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestGameStoreUpsertIdempotent(t *testing.T) {
	store := NewGameStore(newTestDB(t), newTestResolver(), newTestLogger())

	games := []models.Game{
		testGame(1, gameDay(0), "Boston Celtics", "New York Knicks", 110, 100),
		testGame(2, gameDay(1), "Denver Nuggets", "Phoenix Suns", 121, 118),
	}

	processed, err := store.Upsert(games)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	// Re-ingesting the same window with a corrected score must not add rows.
	games[0].HomeScore = 112
	processed, err = store.Upsert(games)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	all, err := store.AllGames()
	require.NoError(t, err)
	for _, g := range all {
		if g.GameID == 1 {
			assert.Equal(t, 112, g.HomeScore)
		}
	}
}

func TestGameStoreUpsertCanonicalizesNames(t *testing.T) {
	store := NewGameStore(newTestDB(t), newTestResolver(), newTestLogger())

	_, err := store.Upsert([]models.Game{
		testGame(1, gameDay(0), "Los Angeles Clippers", "OKC", 100, 95),
	})
	require.NoError(t, err)

	all, err := store.AllGames()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "LA Clippers", all[0].HomeTeam)
	assert.Equal(t, "Oklahoma City Thunder", all[0].AwayTeam)
}

func TestGameStoreUpsertDeduplicatesBatch(t *testing.T) {
	store := NewGameStore(newTestDB(t), newTestResolver(), newTestLogger())

	processed, err := store.Upsert([]models.Game{
		testGame(1, gameDay(0), "Boston Celtics", "New York Knicks", 110, 100),
		testGame(1, gameDay(0), "Boston Celtics", "New York Knicks", 111, 100),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	all, err := store.AllGames()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 111, all[0].HomeScore)
}

func TestGameStoreUpsertRejectsInvalidRow(t *testing.T) {
	store := NewGameStore(newTestDB(t), newTestResolver(), newTestLogger())

	_, err := store.Upsert([]models.Game{
		testGame(1, gameDay(0), "Boston Celtics", "Boston Celtics", 110, 100),
	})
	require.Error(t, err)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGameStoreUpsertRejectsUnknownTeam(t *testing.T) {
	store := NewGameStore(newTestDB(t), newTestResolver(), newTestLogger())

	_, err := store.Upsert([]models.Game{
		testGame(1, gameDay(0), "Springfield Isotopes", "Boston Celtics", 110, 100),
	})
	require.Error(t, err)

	var unresolved *teams.UnresolvedTeamError
	assert.ErrorAs(t, err, &unresolved)
}

func TestGameStoreUpsertEmptyInput(t *testing.T) {
	store := NewGameStore(newTestDB(t), newTestResolver(), newTestLogger())

	processed, err := store.Upsert(nil)
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestGameStoreAllGamesEmpty(t *testing.T) {
	store := NewGameStore(newTestDB(t), newTestResolver(), newTestLogger())

	all, err := store.AllGames()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGameStoreGamesBySeason(t *testing.T) {
	store := NewGameStore(newTestDB(t), newTestResolver(), newTestLogger())

	_, err := store.Upsert([]models.Game{
		testGame(1, gameDay(0), "Boston Celtics", "New York Knicks", 110, 100),
	})
	require.NoError(t, err)

	games, err := store.GamesBySeason(2025)
	require.NoError(t, err)
	assert.Len(t, games, 1)

	games, err = store.GamesBySeason(2010)
	require.NoError(t, err)
	assert.Empty(t, games)
}
