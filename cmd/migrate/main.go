package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rmfonseca/scorebet/internal/models"
	"github.com/rmfonseca/scorebet/internal/teams"
	"github.com/rmfonseca/scorebet/pkg/config"
	"github.com/rmfonseca/scorebet/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	if err := db.AutoMigrate(
		&models.Game{},
		&models.GameOdds{},
		&models.TeamAlias{},
		&models.ModelArtifact{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_games_date ON games(date)",
		"CREATE INDEX IF NOT EXISTS idx_games_season ON games(season)",
		"CREATE INDEX IF NOT EXISTS idx_games_home_team ON games(home_team)",
		"CREATE INDEX IF NOT EXISTS idx_games_away_team ON games(away_team)",
		"CREATE INDEX IF NOT EXISTS idx_game_odds_date ON game_odds(date)",
		"CREATE INDEX IF NOT EXISTS idx_model_artifacts_trained_at ON model_artifacts(trained_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	tables := []string{
		"model_artifacts",
		"team_aliases",
		"game_odds",
		"games",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

func seedData(db *database.DB) error {
	// Alias rows for feed spellings the built-in table does not cover.
	aliases := []models.TeamAlias{
		{Alias: teams.Normalize("Los Angeles Clippers"), Canonical: "LA Clippers"},
		{Alias: teams.Normalize("L.A. Clippers"), Canonical: "LA Clippers"},
		{Alias: teams.Normalize("L.A. Lakers"), Canonical: "Los Angeles Lakers"},
		{Alias: teams.Normalize("NY Knicks"), Canonical: "New York Knicks"},
		{Alias: teams.Normalize("GS Warriors"), Canonical: "Golden State Warriors"},
		{Alias: teams.Normalize("SA Spurs"), Canonical: "San Antonio Spurs"},
		{Alias: teams.Normalize("NO Pelicans"), Canonical: "New Orleans Pelicans"},
		{Alias: teams.Normalize("OKC Thunder"), Canonical: "Oklahoma City Thunder"},
		{Alias: teams.Normalize("Portland Trailblazers"), Canonical: "Portland Trail Blazers"},
	}
	for _, a := range aliases {
		if err := db.Where(models.TeamAlias{Alias: a.Alias}).FirstOrCreate(&a).Error; err != nil {
			return fmt.Errorf("failed to seed alias %q: %w", a.Alias, err)
		}
	}
	logrus.Infof("Seeded %d team aliases", len(aliases))

	// A small slate of completed games so the pipeline has history to work
	// with in development.
	day := func(offset int) time.Time {
		return time.Now().UTC().AddDate(0, 0, -offset).Truncate(24 * time.Hour)
	}
	games := []models.Game{
		{GameID: 900001, Date: day(9), Season: 2025, HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks", HomeScore: 112, AwayScore: 104},
		{GameID: 900002, Date: day(9), Season: 2025, HomeTeam: "Denver Nuggets", AwayTeam: "Phoenix Suns", HomeScore: 121, AwayScore: 118},
		{GameID: 900003, Date: day(8), Season: 2025, HomeTeam: "Milwaukee Bucks", AwayTeam: "Chicago Bulls", HomeScore: 109, AwayScore: 97},
		{GameID: 900004, Date: day(8), Season: 2025, HomeTeam: "New York Knicks", AwayTeam: "Brooklyn Nets", HomeScore: 101, AwayScore: 99},
		{GameID: 900005, Date: day(7), Season: 2025, HomeTeam: "Phoenix Suns", AwayTeam: "Boston Celtics", HomeScore: 95, AwayScore: 108},
		{GameID: 900006, Date: day(6), Season: 2025, HomeTeam: "Chicago Bulls", AwayTeam: "Denver Nuggets", HomeScore: 102, AwayScore: 115},
		{GameID: 900007, Date: day(5), Season: 2025, HomeTeam: "Brooklyn Nets", AwayTeam: "Milwaukee Bucks", HomeScore: 96, AwayScore: 110},
		{GameID: 900008, Date: day(4), Season: 2025, HomeTeam: "Boston Celtics", AwayTeam: "Chicago Bulls", HomeScore: 118, AwayScore: 100},
		{GameID: 900009, Date: day(3), Season: 2025, HomeTeam: "Denver Nuggets", AwayTeam: "Brooklyn Nets", HomeScore: 124, AwayScore: 107},
		{GameID: 900010, Date: day(2), Season: 2025, HomeTeam: "Milwaukee Bucks", AwayTeam: "Phoenix Suns", HomeScore: 105, AwayScore: 111},
		{GameID: 900011, Date: day(1), Season: 2025, HomeTeam: "New York Knicks", AwayTeam: "Denver Nuggets", HomeScore: 99, AwayScore: 103},
	}
	for _, g := range games {
		if err := db.Where(models.Game{GameID: g.GameID}).FirstOrCreate(&g).Error; err != nil {
			return fmt.Errorf("failed to seed game %d: %w", g.GameID, err)
		}
	}
	logrus.Infof("Seeded %d games", len(games))

	return nil
}
