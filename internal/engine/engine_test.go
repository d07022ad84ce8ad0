package engine

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// firstSource always draws the first candidate, which is the
// alphabetically smallest since pools are built from sorted rosters.
type firstSource struct{}

func (firstSource) IntN(int) int { return 0 }

func seeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newTestEngine(t *testing.T, strategy Strategy, killers []string, opts ...Option) *Engine {
	t.Helper()
	e, err := New(Config{
		ActiveTeam: TeamKiller,
		Strategy:   strategy,
		Killers:    killers,
		Survivors:  []string{"Dwight", "Meg", "Claudette", "Jake"},
	}, opts...)
	require.NoError(t, err)
	return e
}

func TestNew_RejectsSmallRosters(t *testing.T) {
	_, err := New(Config{
		ActiveTeam: TeamKiller,
		Strategy:   StrategyCycling,
		Killers:    []string{"Nurse", "Nurse", " ", "Hag"},
		Survivors:  []string{"Meg"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRosterTooSmall)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestNew_RejectsUnknownEnums(t *testing.T) {
	_, err := New(Config{
		ActiveTeam: "spectator",
		Strategy:   "weighted",
		Killers:    []string{"A", "B", "C"},
		Survivors:  []string{"X", "Y", "Z"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTeam)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestNew_DedupesAndSortsRoster(t *testing.T) {
	e := newTestEngine(t, StrategyCycling, []string{"wraith", "Nurse", "Hag", "Nurse", " Hag "})
	assert.Equal(t, []string{"Hag", "Nurse", "wraith"}, e.Roster(TeamKiller))
}

func TestExclude(t *testing.T) {
	cases := []struct {
		name    string
		roster  []string
		exclude []string
		wantErr []error
	}{
		{
			name:    "unknown name",
			roster:  []string{"A", "B", "C"},
			exclude: []string{"D"},
			wantErr: []error{ErrInvalidExclusion},
		},
		{
			name:    "floor of three",
			roster:  []string{"A", "B", "C"},
			exclude: []string{"A"},
			wantErr: []error{ErrInvalidExclusion},
		},
		{
			name:    "down to the floor then one more",
			roster:  []string{"A", "B", "C", "D", "E"},
			exclude: []string{"A", "B", "C"},
			wantErr: []error{nil, nil, ErrInvalidExclusion},
		},
		{
			name:    "already excluded",
			roster:  []string{"A", "B", "C", "D", "E"},
			exclude: []string{"A", "A"},
			wantErr: []error{nil, ErrInvalidExclusion},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, StrategyRandom, tc.roster)
			for i, name := range tc.exclude {
				before := e.Eligible(TeamKiller)
				err := e.Exclude(TeamKiller, name)
				if tc.wantErr[i] == nil {
					require.NoError(t, err)
					continue
				}
				require.ErrorIs(t, err, tc.wantErr[i])
				assert.Equal(t, before, e.Eligible(TeamKiller), "failed exclusion must not change state")
			}
			assert.GreaterOrEqual(t, len(e.Eligible(TeamKiller)), MinEligible)
		})
	}
}

func TestExcludeThenIncludeRestoresEligible(t *testing.T) {
	e := newTestEngine(t, StrategyRandom, []string{"A", "B", "C", "D"})
	before := e.Eligible(TeamKiller)

	require.NoError(t, e.Exclude(TeamKiller, "B"))
	assert.Equal(t, []string{"A", "C", "D"}, e.Eligible(TeamKiller))
	assert.Equal(t, []string{"B"}, e.Excluded(TeamKiller))

	require.NoError(t, e.Include(TeamKiller, "B"))
	assert.Equal(t, before, e.Eligible(TeamKiller))
	assert.Empty(t, e.Excluded(TeamKiller))
}

func TestIncludeRejectsNonExcluded(t *testing.T) {
	e := newTestEngine(t, StrategyRandom, []string{"A", "B", "C", "D"})
	assert.ErrorIs(t, e.Include(TeamKiller, "A"), ErrNotExcluded)
	assert.ErrorIs(t, e.Include(TeamKiller, "Nobody"), ErrNotExcluded)
}

func TestClearExclusions(t *testing.T) {
	e := newTestEngine(t, StrategyRandom, []string{"A", "B", "C", "D", "E"})
	require.NoError(t, e.Exclude(TeamKiller, "A"))
	require.NoError(t, e.Exclude(TeamKiller, "E"))
	require.NoError(t, e.Exclude(TeamSurvivor, "Meg"))

	require.NoError(t, e.ClearExclusions(TeamKiller))
	assert.Len(t, e.Eligible(TeamKiller), 5)
	assert.Equal(t, []string{"Meg"}, e.Excluded(TeamSurvivor), "other team is untouched")
}

func TestPickRandom_NeverRepeatsPrevious(t *testing.T) {
	e := newTestEngine(t, StrategyRandom, []string{"A", "B", "C", "D"}, WithSource(seeded(7)))

	prev := ""
	for i := 0; i < 500; i++ {
		p, err := e.PickRandom(TeamKiller)
		require.NoError(t, err)
		require.NotEqual(t, prev, p.Name, "draw %d repeated %q", i, prev)
		require.Equal(t, TeamKiller, p.Team)
		prev = p.Name
	}
}

func TestPickRandom_SkipsPreviousSelection(t *testing.T) {
	e := newTestEngine(t, StrategyRandom, []string{"A", "B", "C"}, WithSource(firstSource{}))
	p, err := e.PickRandom(TeamKiller)
	require.NoError(t, err)
	require.Equal(t, "A", p.Name)

	e.src = seeded(3)
	for i := 0; i < 50; i++ {
		prev, _ := e.Previous(TeamKiller)
		p, err := e.PickRandom(TeamKiller)
		require.NoError(t, err)
		assert.NotEqual(t, prev, p.Name)
	}
}

func TestPickRandom_HonoursExclusions(t *testing.T) {
	e := newTestEngine(t, StrategyRandom, []string{"A", "B", "C", "D", "E"}, WithSource(seeded(11)))
	require.NoError(t, e.Exclude(TeamKiller, "C"))
	for i := 0; i < 200; i++ {
		p, err := e.PickRandom(TeamKiller)
		require.NoError(t, err)
		require.NotEqual(t, "C", p.Name)
	}
}

func TestPickCycling_CoversEachPass(t *testing.T) {
	roster := []string{"Hag", "Nurse", "Oni", "Pig", "Spirit", "Trapper", "Wraith"}
	e := newTestEngine(t, StrategyCycling, roster, WithSource(seeded(42)))

	prev := ""
	for pass := 0; pass < 25; pass++ {
		var got []string
		for range roster {
			p, err := e.PickCycling(TeamKiller)
			require.NoError(t, err)
			require.NotEqual(t, prev, p.Name, "pass %d repeated across draws", pass)
			prev = p.Name
			got = append(got, p.Name)
		}
		slices.Sort(got)
		require.Equal(t, e.Eligible(TeamKiller), got, "pass %d is not a permutation", pass)
	}
}

func TestPickCycling_FourCharacterScenario(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		e := newTestEngine(t, StrategyCycling, []string{"A", "B", "C", "D"}, WithSource(seeded(seed)))

		var got []string
		for i := 0; i < 4; i++ {
			p, err := e.Pick()
			require.NoError(t, err)
			got = append(got, p.Name)
		}
		fourth := got[3]
		slices.Sort(got)
		require.Equal(t, []string{"A", "B", "C", "D"}, got)

		fifth, err := e.Pick()
		require.NoError(t, err)
		require.NotEqual(t, fourth, fifth.Name)
	}
}

func TestPickCycling_RebuildsDeckAfterExclusionChange(t *testing.T) {
	e := newTestEngine(t, StrategyCycling, []string{"A", "B", "C", "D", "E"}, WithSource(firstSource{}))

	draw := func() string {
		t.Helper()
		p, err := e.PickCycling(TeamKiller)
		require.NoError(t, err)
		return p.Name
	}

	assert.Equal(t, "A", draw())
	assert.Equal(t, "B", draw())

	// The exclusion is only applied to the deck on the next draw, which
	// starts a fresh pass over {A, B, D, E} that still avoids B.
	require.NoError(t, e.Exclude(TeamKiller, "C"))
	assert.Equal(t, []string{"C", "D", "E"}, e.decks[TeamKiller].unselected)

	assert.Equal(t, "A", draw())
	assert.Equal(t, "B", draw())
	assert.Equal(t, "D", draw())
	assert.Equal(t, "E", draw())
	// exhausted: new pass, still no back-to-back repeat
	assert.Equal(t, "A", draw())
}

func TestPickCycling_IncludedCharacterWaitsForRebuild(t *testing.T) {
	e := newTestEngine(t, StrategyCycling, []string{"A", "B", "C", "D", "E"}, WithSource(seeded(5)))
	require.NoError(t, e.Exclude(TeamKiller, "A"))

	_, err := e.PickCycling(TeamKiller)
	require.NoError(t, err)
	require.NoError(t, e.Include(TeamKiller, "A"))
	assert.NotContains(t, e.decks[TeamKiller].unselected, "A", "inclusion does not touch the deck")

	_, err = e.PickCycling(TeamKiller)
	require.NoError(t, err)
	d := e.decks[TeamKiller]
	assert.Len(t, d.unselected, 4, "deck rebuilt with A on the next draw")
	assert.Len(t, d.selected, 1)
}

func TestStrategySwitchKeepsDeck(t *testing.T) {
	e := newTestEngine(t, StrategyCycling, []string{"A", "B", "C", "D"}, WithSource(firstSource{}))

	p, _ := e.Pick()
	assert.Equal(t, "A", p.Name)
	p, _ = e.Pick()
	assert.Equal(t, "B", p.Name)

	require.NoError(t, e.SetStrategy(StrategyRandom))
	p, _ = e.Pick()
	assert.Equal(t, "A", p.Name, "random only avoids the previous pick")

	require.NoError(t, e.SetStrategy(StrategyCycling))
	p, _ = e.Pick()
	assert.Equal(t, "C", p.Name, "cycling resumes the pass it was on")
}

func TestTeamsEvolveIndependently(t *testing.T) {
	e := newTestEngine(t, StrategyCycling, []string{"A", "B", "C"}, WithSource(firstSource{}))

	k, err := e.Pick()
	require.NoError(t, err)
	require.NoError(t, e.SetActiveTeam(TeamSurvivor))
	s, err := e.Pick()
	require.NoError(t, err)

	assert.Equal(t, Pick{Team: TeamKiller, Name: "A"}, k)
	assert.Equal(t, Pick{Team: TeamSurvivor, Name: "Claudette"}, s)

	prev, ok := e.Previous(TeamKiller)
	assert.True(t, ok)
	assert.Equal(t, "A", prev)
	assert.Len(t, e.decks[TeamKiller].selected, 1)
	assert.Len(t, e.decks[TeamSurvivor].selected, 1)
}

func TestToggleStrategy(t *testing.T) {
	e := newTestEngine(t, StrategyCycling, []string{"A", "B", "C"})
	assert.Equal(t, StrategyRandom, e.ToggleStrategy())
	assert.Equal(t, StrategyCycling, e.ToggleStrategy())
	assert.ErrorIs(t, e.SetStrategy("weighted"), ErrUnknownStrategy)
	assert.ErrorIs(t, e.SetActiveTeam("spectator"), ErrUnknownTeam)
}

func TestFloorHoldsUnderRandomExclusions(t *testing.T) {
	roster := []string{"A", "B", "C", "D", "E", "F", "G"}
	e := newTestEngine(t, StrategyRandom, roster)
	r := seeded(99)
	for i := 0; i < 300; i++ {
		name := roster[r.IntN(len(roster))]
		if r.IntN(3) == 0 {
			_ = e.Include(TeamKiller, name)
		} else {
			_ = e.Exclude(TeamKiller, name)
		}
		require.GreaterOrEqual(t, len(e.Eligible(TeamKiller)), MinEligible)
	}
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"Nurse", "Hag"}, Dedupe([]string{" Nurse ", "", "Hag", "Nurse", "  "}))
	assert.Empty(t, Dedupe(nil))
}
