package models

import (
	"fmt"
	"time"
)

// GameOdds is a head-to-head decimal odds quote for an upcoming game,
// ingested through the API by whatever process talks to the bookmakers.
// One row per (date, matchup, book); re-ingestion overwrites the quote.
type GameOdds struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"index;not null;uniqueIndex:idx_odds_game_book" json:"date"`
	HomeTeam  string    `gorm:"size:80;not null;uniqueIndex:idx_odds_game_book" json:"home_team"`
	AwayTeam  string    `gorm:"size:80;not null;uniqueIndex:idx_odds_game_book" json:"away_team"`
	Book      string    `gorm:"size:40;not null;uniqueIndex:idx_odds_game_book" json:"book"`
	HomeOdds  float64   `json:"home_odds"`
	AwayOdds  float64   `json:"away_odds"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (GameOdds) TableName() string {
	return "game_odds"
}

func (o *GameOdds) Validate() error {
	if o.Date.IsZero() {
		return fmt.Errorf("odds row: date is required")
	}
	if o.HomeTeam == "" || o.AwayTeam == "" {
		return fmt.Errorf("odds row: home and away team are required")
	}
	if o.Book == "" {
		return fmt.Errorf("odds row: book is required")
	}
	// Decimal odds below 1.0 imply a negative implied margin; reject them.
	if o.HomeOdds < 1.0 || o.AwayOdds < 1.0 {
		return fmt.Errorf("odds row %s vs %s: decimal odds must be >= 1.0", o.HomeTeam, o.AwayTeam)
	}
	return nil
}
