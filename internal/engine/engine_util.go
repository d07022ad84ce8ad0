package engine

import (
	"fmt"
	"strings"
)

func validTeam(t Team) bool {
	return t == TeamKiller || t == TeamSurvivor
}

func validStrategy(s Strategy) bool {
	return s == StrategyCycling || s == StrategyRandom
}

// Dedupe trims names, drops blanks and keeps the first occurrence of each.
// Rosters are normalised this way before the size floor is checked.
func Dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func ParseTeam(s string) (Team, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "killer", "killers", "0":
		return TeamKiller, nil
	case "survivor", "survivors", "1":
		return TeamSurvivor, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTeam, s)
	}
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cycling", "cycle", "rotating", "0":
		return StrategyCycling, nil
	case "random", "normal", "1":
		return StrategyRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// TeamFromBool maps the settings file flag: false is killer, true is survivor.
func TeamFromBool(survivor bool) Team {
	if survivor {
		return TeamSurvivor
	}
	return TeamKiller
}

// StrategyFromBool maps the settings file flag: false is cycling, true is random.
func StrategyFromBool(random bool) Strategy {
	if random {
		return StrategyRandom
	}
	return StrategyCycling
}

// Label is the capitalised team name used in output.
func (t Team) Label() string {
	switch t {
	case TeamKiller:
		return "Killer"
	case TeamSurvivor:
		return "Survivor"
	default:
		return string(t)
	}
}

// View is a read-only copy of an engine's state.
type View struct {
	ActiveTeam Team              `json:"active_team"`
	Strategy   Strategy          `json:"strategy"`
	Eligible   map[Team][]string `json:"eligible"`
	Excluded   map[Team][]string `json:"excluded"`
	Previous   map[Team]string   `json:"previous,omitempty"`
}

func (e *Engine) View() View {
	v := View{
		ActiveTeam: e.team,
		Strategy:   e.strategy,
		Eligible:   map[Team][]string{},
		Excluded:   map[Team][]string{},
		Previous:   map[Team]string{},
	}
	for _, team := range Teams {
		v.Eligible[team] = e.Eligible(team)
		v.Excluded[team] = e.Excluded(team)
		if name, ok := e.previous[team]; ok {
			v.Previous[team] = name
		}
	}
	return v
}
