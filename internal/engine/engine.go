package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/multierr"
)

var ErrInvalidExclusion = errors.New("invalid exclusion")
var ErrNotExcluded = errors.New("character is not excluded")
var ErrNoEligibleCharacters = errors.New("no eligible characters")
var ErrRosterTooSmall = errors.New("roster too small")
var ErrUnknownTeam = errors.New("unknown team")
var ErrUnknownStrategy = errors.New("unknown strategy")

// MinEligible is the number of characters that must stay choosable per team.
const MinEligible = 3

type Team string

const (
	TeamKiller   Team = "killer"
	TeamSurvivor Team = "survivor"
)

var Teams = []Team{TeamKiller, TeamSurvivor}

type Strategy string

const (
	StrategyCycling Strategy = "cycling"
	StrategyRandom  Strategy = "random"
)

// Pick is the result of a successful draw.
type Pick struct {
	Team Team   `json:"team"`
	Name string `json:"name"`
}

// Source is the randomness used for draws. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Config is everything needed to build an engine.
type Config struct {
	ActiveTeam Team
	Strategy   Strategy
	Killers    []string
	Survivors  []string
}

// deck is one cycling pass for a team.
type deck struct {
	unselected []string
	selected   map[string]struct{}
}

// Engine picks characters for two teams. It owns all of its state and is not
// safe for concurrent use; each session gets its own instance.
type Engine struct {
	store    *rosterStore
	team     Team
	strategy Strategy
	previous map[Team]string
	decks    map[Team]*deck
	src      Source
}

type Option func(*Engine)

// WithSource replaces the default global random source.
func WithSource(src Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.src = src
		}
	}
}

func New(cfg Config, opts ...Option) (*Engine, error) {
	var err error
	if !validTeam(cfg.ActiveTeam) {
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrUnknownTeam, cfg.ActiveTeam))
	}
	if !validStrategy(cfg.Strategy) {
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy))
	}

	rosters := map[Team][]string{
		TeamKiller:   Dedupe(cfg.Killers),
		TeamSurvivor: Dedupe(cfg.Survivors),
	}
	for _, team := range Teams {
		if n := len(rosters[team]); n < MinEligible {
			err = multierr.Append(err, fmt.Errorf("%w: %s roster has %d distinct names, need at least %d",
				ErrRosterTooSmall, team, n, MinEligible))
		}
	}
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:    newRosterStore(rosters),
		team:     cfg.ActiveTeam,
		strategy: cfg.Strategy,
		previous: map[Team]string{},
		decks: map[Team]*deck{
			TeamKiller:   {selected: map[string]struct{}{}},
			TeamSurvivor: {selected: map[string]struct{}{}},
		},
		src: globalSource{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) ActiveTeam() Team   { return e.team }
func (e *Engine) Strategy() Strategy { return e.strategy }

// Previous returns the last character picked for team, if any.
func (e *Engine) Previous(team Team) (string, bool) {
	name, ok := e.previous[team]
	return name, ok
}

func (e *Engine) SetActiveTeam(team Team) error {
	if !validTeam(team) {
		return fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	e.team = team
	return nil
}

// SetStrategy takes effect on the next pick. Decks and previous picks are kept.
func (e *Engine) SetStrategy(s Strategy) error {
	if !validStrategy(s) {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
	e.strategy = s
	return nil
}

func (e *Engine) ToggleStrategy() Strategy {
	if e.strategy == StrategyRandom {
		e.strategy = StrategyCycling
	} else {
		e.strategy = StrategyRandom
	}
	return e.strategy
}

// Pick draws for the active team using the current strategy.
func (e *Engine) Pick() (Pick, error) {
	if e.strategy == StrategyRandom {
		return e.PickRandom(e.team)
	}
	return e.PickCycling(e.team)
}

// PickRandom draws uniformly from the eligible set, never repeating the
// previous pick for the team.
func (e *Engine) PickRandom(team Team) (Pick, error) {
	if !validTeam(team) {
		return Pick{}, fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	prev, hasPrev := e.previous[team]
	pool := make([]string, 0)
	for _, name := range e.store.eligible(team) {
		if hasPrev && name == prev {
			continue
		}
		pool = append(pool, name)
	}
	if len(pool) == 0 {
		return Pick{}, fmt.Errorf("%w: %s", ErrNoEligibleCharacters, team)
	}
	return e.record(team, pool[e.src.IntN(len(pool))]), nil
}

// PickCycling draws every eligible character once per pass before any
// repeats, and never returns the previous pick, even across a pass boundary.
func (e *Engine) PickCycling(team Team) (Pick, error) {
	if !validTeam(team) {
		return Pick{}, fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	eligible := e.store.eligible(team)
	if len(eligible) == 0 {
		return Pick{}, fmt.Errorf("%w: %s", ErrNoEligibleCharacters, team)
	}

	d := e.decks[team]
	if !d.covers(eligible) {
		d.reset(eligible)
	}

	pool := e.cyclePool(team, d)
	if len(pool) == 0 {
		d.reset(eligible)
		pool = e.cyclePool(team, d)
	}
	if len(pool) == 0 {
		// Only reachable with a single eligible character.
		pool = d.unselected
	}

	name := pool[e.src.IntN(len(pool))]
	d.draw(name)
	return e.record(team, name), nil
}

func (e *Engine) cyclePool(team Team, d *deck) []string {
	prev, hasPrev := e.previous[team]
	pool := make([]string, 0, len(d.unselected))
	for _, name := range d.unselected {
		if hasPrev && name == prev {
			continue
		}
		if _, ok := d.selected[name]; ok {
			continue
		}
		if e.store.isExcluded(team, name) {
			continue
		}
		pool = append(pool, name)
	}
	return pool
}

func (e *Engine) record(team Team, name string) Pick {
	e.previous[team] = name
	return Pick{Team: team, Name: name}
}

// covers reports whether unselected ∪ selected is exactly the eligible set.
func (d *deck) covers(eligible []string) bool {
	if len(d.unselected)+len(d.selected) != len(eligible) {
		return false
	}
	want := make(map[string]struct{}, len(eligible))
	for _, name := range eligible {
		want[name] = struct{}{}
	}
	for _, name := range d.unselected {
		if _, ok := want[name]; !ok {
			return false
		}
		delete(want, name)
	}
	for name := range d.selected {
		if _, ok := want[name]; !ok {
			return false
		}
		delete(want, name)
	}
	return len(want) == 0
}

func (d *deck) reset(eligible []string) {
	d.unselected = append(d.unselected[:0], eligible...)
	clear(d.selected)
}

func (d *deck) draw(name string) {
	for i, n := range d.unselected {
		if n == name {
			d.unselected = append(d.unselected[:i], d.unselected[i+1:]...)
			break
		}
	}
	d.selected[name] = struct{}{}
}

// Eligible returns the team's roster minus exclusions, sorted for display.
func (e *Engine) Eligible(team Team) []string {
	return e.store.eligible(team)
}

// Excluded returns the team's excluded characters, sorted for display.
func (e *Engine) Excluded(team Team) []string {
	return e.store.excludedNames(team)
}

// Roster returns the configured characters for team, sorted for display.
func (e *Engine) Roster(team Team) []string {
	return e.store.roster(team)
}

// Exclude makes name ineligible. The team's deck is rebuilt on its next draw.
func (e *Engine) Exclude(team Team, name string) error {
	if !validTeam(team) {
		return fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	return e.store.exclude(team, name)
}

// Include makes an excluded character eligible again. It joins the deck when
// the deck is next rebuilt.
func (e *Engine) Include(team Team, name string) error {
	if !validTeam(team) {
		return fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	return e.store.include(team, name)
}

func (e *Engine) ClearExclusions(team Team) error {
	if !validTeam(team) {
		return fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	e.store.clearExclusions(team)
	return nil
}
