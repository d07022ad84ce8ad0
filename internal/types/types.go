package types

import "github.com/DoyleJ11/dbd-character-picker/internal/engine"

// ClientMessage types: "Pick", "ToggleStrategy", "SetStrategy", "Exclude",
// "Include", "ClearExclusions". Team is optional everywhere; Exclude and
// Include take either Name or a 1-based Index into the sorted list.
type ClientMessage struct {
	Type     string `json:"type"`
	Team     string `json:"team,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Name     string `json:"name,omitempty"`
	Index    int    `json:"index,omitempty"`
}

type ServerMessage struct {
	Type    string         `json:"type"` // "StateSnapshot" | "Error"
	Version int            `json:"version"`
	State   *engine.View   `json:"state,omitempty"`
	Events  []engine.Event `json:"events,omitempty"`
	Error   string         `json:"error,omitempty"`
}

const (
	TypeStateSnapshot = "StateSnapshot"
	TypeError         = "Error"
)
