package models

import (
	"fmt"
	"time"
)

// Game is a completed NBA game as reported by the results feed. Rows are
// keyed by the feed's game id and upserted idempotently; all mutable fields
// are overwritten on conflict.
type Game struct {
	GameID    int       `gorm:"primaryKey" json:"game_id"`
	Date      time.Time `gorm:"index;not null" json:"date"`
	Season    int       `gorm:"index" json:"season"`
	HomeTeam  string    `gorm:"size:80;index;not null" json:"home_team"`
	AwayTeam  string    `gorm:"size:80;index;not null" json:"away_team"`
	HomeScore int       `gorm:"not null" json:"home_score"`
	AwayScore int       `gorm:"not null" json:"away_score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Game) TableName() string {
	return "games"
}

// Validate rejects rows that would corrupt the feature pipeline. Scores must
// be final, so partially reported games (negative or missing fields) are
// refused at the boundary instead of propagating as zeros.
func (g *Game) Validate() error {
	if g.GameID <= 0 {
		return fmt.Errorf("game_id must be positive, got %d", g.GameID)
	}
	if g.Date.IsZero() {
		return fmt.Errorf("game %d: date is required", g.GameID)
	}
	if g.HomeTeam == "" || g.AwayTeam == "" {
		return fmt.Errorf("game %d: home and away team are required", g.GameID)
	}
	if g.HomeTeam == g.AwayTeam {
		return fmt.Errorf("game %d: home and away team are identical (%s)", g.GameID, g.HomeTeam)
	}
	if g.HomeScore < 0 || g.AwayScore < 0 {
		return fmt.Errorf("game %d: scores must be non-negative", g.GameID)
	}
	return nil
}

// Day truncates the game date to calendar-day granularity in UTC.
func (g *Game) Day() time.Time {
	return time.Date(g.Date.Year(), g.Date.Month(), g.Date.Day(), 0, 0, 0, 0, time.UTC)
}
