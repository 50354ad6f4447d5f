package models

import "time"

// GroupSettings holds the display settings of a leg group.
type GroupSettings struct {
	Name    string `json:"name"`
	Enabled bool   `json:"isEnabled"`
}

// DefaultGroupName is the display name of a group that was never renamed.
func DefaultGroupName(id string) string {
	return "Group " + id
}

// Snapshot is the full state of a strategy being worked on.
type Snapshot struct {
	Name   string                   `json:"name"`
	Legs   []Leg                    `json:"legs"`
	Market MarketState              `json:"market"`
	Params ModelParameters          `json:"params"`
	Groups map[string]GroupSettings `json:"groups"`
}

// GroupNames returns the display name of every configured group.
func (s Snapshot) GroupNames() map[string]string {
	out := make(map[string]string, len(s.Groups))
	for id, g := range s.Groups {
		out[id] = g.Name
	}
	return out
}

// SavedStrategy is a named snapshot kept in the strategy collection.
type SavedStrategy struct {
	Snapshot
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
