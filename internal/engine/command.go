package engine

import (
	"errors"
	"fmt"
)

var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdPick            CommandType = "Pick"
	CmdToggleStrategy  CommandType = "ToggleStrategy"
	CmdSetStrategy     CommandType = "SetStrategy"
	CmdExclude         CommandType = "Exclude"
	CmdInclude         CommandType = "Include"
	CmdClearExclusions CommandType = "ClearExclusions"
)

/*
	CmdPick            -> [EvtTeamSwitched] -> EvtCharacterPicked
	CmdToggleStrategy  -> EvtStrategyChanged
	CmdSetStrategy     -> EvtStrategyChanged (nothing if unchanged)
	CmdExclude         -> EvtCharacterExcluded
	CmdInclude         -> EvtCharacterIncluded
	CmdClearExclusions -> EvtExclusionsCleared
*/

// Command is one user action. Team is optional: for CmdPick it switches the
// active team first, for exclusion commands it selects the roster (active
// team when empty). Exclusion targets are named by Name, or by Index, the
// 1-based position in the sorted eligible (exclude) or excluded (include) list.
type Command struct {
	Type     CommandType
	Team     Team
	Strategy Strategy
	Name     string
	Index    int
}

type EventType string

const (
	EvtTeamSwitched      EventType = "TeamSwitched"
	EvtCharacterPicked   EventType = "CharacterPicked"
	EvtStrategyChanged   EventType = "StrategyChanged"
	EvtCharacterExcluded EventType = "CharacterExcluded"
	EvtCharacterIncluded EventType = "CharacterIncluded"
	EvtExclusionsCleared EventType = "ExclusionsCleared"
)

type Event struct {
	Type     EventType `json:"type"`
	Team     Team      `json:"team,omitempty"`
	Strategy Strategy  `json:"strategy,omitempty"`
	Name     string    `json:"name,omitempty"`
}

// Apply runs cmd against e. On error the engine is left as it was.
func Apply(e *Engine, cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdPick:
		events := []Event{}
		prevTeam := e.team
		if cmd.Team != "" && cmd.Team != e.team {
			if err := e.SetActiveTeam(cmd.Team); err != nil {
				return nil, err
			}
			events = append(events, Event{Type: EvtTeamSwitched, Team: cmd.Team})
		}
		pick, err := e.Pick()
		if err != nil {
			e.team = prevTeam
			return nil, err
		}
		events = append(events, Event{Type: EvtCharacterPicked, Team: pick.Team, Strategy: e.strategy, Name: pick.Name})
		return events, nil

	case CmdToggleStrategy:
		s := e.ToggleStrategy()
		return []Event{{Type: EvtStrategyChanged, Strategy: s}}, nil

	case CmdSetStrategy:
		if cmd.Strategy == e.strategy {
			return nil, nil
		}
		if err := e.SetStrategy(cmd.Strategy); err != nil {
			return nil, err
		}
		return []Event{{Type: EvtStrategyChanged, Strategy: cmd.Strategy}}, nil

	case CmdExclude:
		team := targetTeam(e, cmd)
		name, err := resolveName(cmd, e.Eligible(team))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidExclusion, err)
		}
		if err := e.Exclude(team, name); err != nil {
			return nil, err
		}
		return []Event{{Type: EvtCharacterExcluded, Team: team, Name: name}}, nil

	case CmdInclude:
		team := targetTeam(e, cmd)
		name, err := resolveName(cmd, e.Excluded(team))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotExcluded, err)
		}
		if err := e.Include(team, name); err != nil {
			return nil, err
		}
		return []Event{{Type: EvtCharacterIncluded, Team: team, Name: name}}, nil

	case CmdClearExclusions:
		team := targetTeam(e, cmd)
		if err := e.ClearExclusions(team); err != nil {
			return nil, err
		}
		return []Event{{Type: EvtExclusionsCleared, Team: team}}, nil

	default:
		return nil, ErrUnsupportedCommand
	}
}

func targetTeam(e *Engine, cmd Command) Team {
	if cmd.Team != "" {
		return cmd.Team
	}
	return e.team
}

func resolveName(cmd Command, list []string) (string, error) {
	if cmd.Name != "" {
		return cmd.Name, nil
	}
	if cmd.Index < 1 || cmd.Index > len(list) {
		return "", fmt.Errorf("index %d out of range 1-%d", cmd.Index, len(list))
	}
	return list[cmd.Index-1], nil
}
