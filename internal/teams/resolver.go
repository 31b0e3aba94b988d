// Package teams resolves the inconsistent team naming used by the various
// data feeds into one canonical full name per franchise. Every join in the
// prediction pipeline (games x games, fixtures x profiles, picks x odds)
// keys on the canonical name, so resolution happens once at each boundary.
package teams

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Canonical full names, as balldontlie reports them.
var canonicalTeams = []string{
	"Atlanta Hawks", "Boston Celtics", "Brooklyn Nets", "Charlotte Hornets",
	"Chicago Bulls", "Cleveland Cavaliers", "Dallas Mavericks", "Denver Nuggets",
	"Detroit Pistons", "Golden State Warriors", "Houston Rockets", "Indiana Pacers",
	"LA Clippers", "Los Angeles Lakers", "Memphis Grizzlies", "Miami Heat",
	"Milwaukee Bucks", "Minnesota Timberwolves", "New Orleans Pelicans", "New York Knicks",
	"Oklahoma City Thunder", "Orlando Magic", "Philadelphia 76ers", "Phoenix Suns",
	"Portland Trail Blazers", "Sacramento Kings", "San Antonio Spurs", "Toronto Raptors",
	"Utah Jazz", "Washington Wizards",
}

// Aliases seen in the odds and scoreboard feeds, keyed by normalized form.
var defaultAliases = map[string]string{
	"la clippers":           "LA Clippers",
	"los angeles clippers":  "LA Clippers",
	"lac":                   "LA Clippers",
	"la lakers":             "Los Angeles Lakers",
	"lal":                   "Los Angeles Lakers",
	"ny knicks":             "New York Knicks",
	"nyk":                   "New York Knicks",
	"gs warriors":           "Golden State Warriors",
	"gsw":                   "Golden State Warriors",
	"okc thunder":           "Oklahoma City Thunder",
	"okc":                   "Oklahoma City Thunder",
	"no pelicans":           "New Orleans Pelicans",
	"sa spurs":              "San Antonio Spurs",
	"philadelphia sixers":   "Philadelphia 76ers",
	"portland trailblazers": "Portland Trail Blazers",
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9 ]+`)
var multiSpace = regexp.MustCompile(`\s+`)

// Normalize lowercases, strips punctuation and collapses whitespace so that
// feed spellings like "L.A. Clippers" and "la clippers" compare equal.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	return s
}

// UnresolvedTeamError reports a team name no alias covers. It is a distinct
// type so ingestion can reject the row while feature assembly counts and
// skips it.
type UnresolvedTeamError struct {
	Name string
}

func (e *UnresolvedTeamError) Error() string {
	return fmt.Sprintf("unresolved team name: %q", e.Name)
}

// Resolver maps raw feed names to canonical team names. The built-in
// canonical list and aliases are always present; rows from the team_aliases
// table are layered on top so operators can patch new feed spellings without
// a deploy.
type Resolver struct {
	mu      sync.RWMutex
	aliases map[string]string
}

func NewResolver() *Resolver {
	aliases := make(map[string]string, len(canonicalTeams)+len(defaultAliases))
	for _, team := range canonicalTeams {
		aliases[Normalize(team)] = team
	}
	for alias, team := range defaultAliases {
		aliases[alias] = team
	}
	return &Resolver{aliases: aliases}
}

// AddAlias registers an extra alias -> canonical mapping. The canonical side
// must itself resolve, otherwise the table would silently introduce a team
// the pipeline has never seen.
func (r *Resolver) AddAlias(alias, canonical string) error {
	target, err := r.Resolve(canonical)
	if err != nil {
		return fmt.Errorf("alias %q: canonical side: %w", alias, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[Normalize(alias)] = target
	return nil
}

// Resolve returns the canonical name for a raw feed name, or an
// *UnresolvedTeamError when no alias matches.
func (r *Resolver) Resolve(name string) (string, error) {
	key := Normalize(name)
	if key == "" {
		return "", &UnresolvedTeamError{Name: name}
	}
	r.mu.RLock()
	canonical, ok := r.aliases[key]
	r.mu.RUnlock()
	if !ok {
		return "", &UnresolvedTeamError{Name: name}
	}
	return canonical, nil
}

// Known reports whether the name resolves without returning the mapping.
func (r *Resolver) Known(name string) bool {
	_, err := r.Resolve(name)
	return err == nil
}

// Canonical returns the full canonical team list, for seeding and tests.
func Canonical() []string {
	out := make([]string, len(canonicalTeams))
	copy(out, canonicalTeams)
	return out
}
