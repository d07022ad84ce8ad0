package engine

import (
	"fmt"
	"slices"
	"strings"
)

// rosterStore holds the configured characters and exclusions per team. It
// never draws and never does I/O.
type rosterStore struct {
	rosters  map[Team][]string
	members  map[Team]map[string]struct{}
	excluded map[Team]map[string]struct{}
}

func newRosterStore(rosters map[Team][]string) *rosterStore {
	s := &rosterStore{
		rosters:  map[Team][]string{},
		members:  map[Team]map[string]struct{}{},
		excluded: map[Team]map[string]struct{}{},
	}
	for _, team := range Teams {
		names := slices.Clone(rosters[team])
		sortNames(names)
		s.rosters[team] = names
		s.members[team] = make(map[string]struct{}, len(names))
		for _, name := range names {
			s.members[team][name] = struct{}{}
		}
		s.excluded[team] = map[string]struct{}{}
	}
	return s
}

func (s *rosterStore) roster(team Team) []string {
	return slices.Clone(s.rosters[team])
}

func (s *rosterStore) eligible(team Team) []string {
	out := make([]string, 0, len(s.rosters[team]))
	for _, name := range s.rosters[team] {
		if _, ok := s.excluded[team][name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

func (s *rosterStore) isExcluded(team Team, name string) bool {
	_, ok := s.excluded[team][name]
	return ok
}

func (s *rosterStore) excludedNames(team Team) []string {
	out := make([]string, 0, len(s.excluded[team]))
	for name := range s.excluded[team] {
		out = append(out, name)
	}
	sortNames(out)
	return out
}

func (s *rosterStore) exclude(team Team, name string) error {
	if _, ok := s.members[team][name]; !ok {
		return fmt.Errorf("%w: %q is not in the %s roster", ErrInvalidExclusion, name, team)
	}
	if s.isExcluded(team, name) {
		return fmt.Errorf("%w: %q is already excluded", ErrInvalidExclusion, name)
	}
	if left := len(s.rosters[team]) - len(s.excluded[team]) - 1; left < MinEligible {
		return fmt.Errorf("%w: %s must keep at least %d eligible characters", ErrInvalidExclusion, team, MinEligible)
	}
	s.excluded[team][name] = struct{}{}
	return nil
}

func (s *rosterStore) include(team Team, name string) error {
	if !s.isExcluded(team, name) {
		return fmt.Errorf("%w: %q", ErrNotExcluded, name)
	}
	delete(s.excluded[team], name)
	return nil
}

func (s *rosterStore) clearExclusions(team Team) {
	clear(s.excluded[team])
}

// sortNames orders names case-insensitively, falling back to byte order so
// the result is total.
func sortNames(names []string) {
	slices.SortFunc(names, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}
