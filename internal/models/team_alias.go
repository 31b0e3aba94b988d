package models

import "time"

// TeamAlias maps a normalized source-specific team name to the canonical
// full name used everywhere inside the pipeline. Every join boundary goes
// through this table; the feeds disagree on naming ("LA Clippers" vs
// "Los Angeles Clippers") and an unresolved name is an error, not a miss.
type TeamAlias struct {
	Alias     string    `gorm:"primaryKey;size:80" json:"alias"`
	Canonical string    `gorm:"size:80;index;not null" json:"canonical"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (TeamAlias) TableName() string {
	return "team_aliases"
}
