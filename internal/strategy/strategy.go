// Package strategy manages the working strategy: its legs, market inputs,
// model parameters and group display settings.
package strategy

import (
	"sort"

	"github.com/google/uuid"

	"options-strategist/internal/errors"
	"options-strategist/internal/models"
)

// Defaults for a fresh strategy.
const (
	DefaultName            = "My Strategy"
	TemplateStrategyName   = "Template Strategy"
	DefaultUnderlyingPrice = 100.0
)

// DefaultParameters returns the model parameters of a fresh strategy.
func DefaultParameters() models.ModelParameters {
	return models.ModelParameters{
		TimeToExpiryDays:    30,
		RiskFreeRatePercent: 5,
		VolatilityPercent:   20,
	}
}

// Strategy is an immutable view of a snapshot. Every mutating operation
// returns a new Strategy and leaves the receiver untouched.
type Strategy struct {
	snap models.Snapshot
}

// New returns an empty strategy with default market and model inputs.
func New(name string) Strategy {
	if name == "" {
		name = DefaultName
	}
	return Strategy{snap: models.Snapshot{
		Name:   name,
		Legs:   []models.Leg{},
		Market: models.MarketState{UnderlyingPrice: DefaultUnderlyingPrice},
		Params: DefaultParameters(),
		Groups: map[string]models.GroupSettings{},
	}}
}

// FromSnapshot wraps a copy of the snapshot and registers any group its legs
// use that has no settings yet.
func FromSnapshot(s models.Snapshot) Strategy {
	return Strategy{snap: clone(s)}.SyncGroups()
}

// Snapshot returns a copy of the underlying state.
func (s Strategy) Snapshot() models.Snapshot {
	return clone(s.snap)
}

// Name returns the strategy name.
func (s Strategy) Name() string { return s.snap.Name }

// Market returns the market inputs.
func (s Strategy) Market() models.MarketState { return s.snap.Market }

// Params returns the model parameters.
func (s Strategy) Params() models.ModelParameters { return s.snap.Params }

// Legs returns a copy of every leg, including inactive ones.
func (s Strategy) Legs() []models.Leg { return append([]models.Leg(nil), s.snap.Legs...) }

// Groups returns a copy of the group settings.
func (s Strategy) Groups() map[string]models.GroupSettings { return clone(s.snap).Groups }

// Leg looks up a leg by id.
func (s Strategy) Leg(id string) (models.Leg, error) {
	i := s.index(id)
	if i < 0 {
		return models.Leg{}, errors.Wrapf(errors.ErrLegNotFound, "leg %s", id)
	}
	return s.snap.Legs[i], nil
}

// GroupIDs returns the configured group ids in sorted order.
func (s Strategy) GroupIDs() []string {
	ids := make([]string, 0, len(s.snap.Groups))
	for id := range s.snap.Groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GroupName returns the display name of a group.
func (s Strategy) GroupName(id string) string {
	if g, ok := s.snap.Groups[id]; ok && g.Name != "" {
		return g.Name
	}
	return models.DefaultGroupName(id)
}

// GroupEnabled reports whether legs of the group take part in analysis.
// Groups without settings are enabled.
func (s Strategy) GroupEnabled(id string) bool {
	g, ok := s.snap.Groups[id]
	return !ok || g.Enabled
}

// EffectiveLegs returns the legs whose group is enabled. Inactive legs are
// kept; the valuation engines skip them on their own.
func (s Strategy) EffectiveLegs() []models.Leg {
	out := make([]models.Leg, 0, len(s.snap.Legs))
	for _, l := range s.snap.Legs {
		if s.GroupEnabled(l.Group()) {
			out = append(out, l)
		}
	}
	return out
}

// NewLegID returns a fresh leg identifier.
func NewLegID() string {
	return uuid.NewString()
}

// AddLeg validates the leg, assigns a fresh id and appends it as active.
func (s Strategy) AddLeg(leg models.Leg) (Strategy, error) {
	leg = normalize(leg)
	if err := ValidateLeg(leg); err != nil {
		return s, err
	}
	leg.ID = NewLegID()
	leg.Active = true

	next := s.copy()
	next.snap.Legs = append(next.snap.Legs, leg)
	return next.SyncGroups(), nil
}

// LegPatch carries the fields to change on an existing leg. Nil fields are
// left as they are.
type LegPatch struct {
	Action   *models.Action         `json:"action,omitempty"`
	Type     *models.InstrumentType `json:"type,omitempty"`
	Strike   *float64               `json:"strike,omitempty"`
	Premium  *float64               `json:"premium,omitempty"`
	Quantity *int                   `json:"quantity,omitempty"`
	Active   *bool                  `json:"active,omitempty"`
	GroupID  *string                `json:"groupId,omitempty"`
	Comment  *string                `json:"comment,omitempty"`
}

// Apply returns the leg with the patch applied.
func (p LegPatch) Apply(l models.Leg) models.Leg {
	if p.Action != nil {
		l.Action = *p.Action
	}
	if p.Type != nil {
		l.Type = *p.Type
	}
	if p.Strike != nil {
		l.Strike = *p.Strike
	}
	if p.Premium != nil {
		l.Premium = *p.Premium
	}
	if p.Quantity != nil {
		l.Quantity = *p.Quantity
	}
	if p.Active != nil {
		l.Active = *p.Active
	}
	if p.GroupID != nil {
		l.GroupID = *p.GroupID
	}
	if p.Comment != nil {
		l.Comment = *p.Comment
	}
	return l
}

// UpdateLeg applies a patch to the leg with the given id and revalidates it.
func (s Strategy) UpdateLeg(id string, patch LegPatch) (Strategy, error) {
	i := s.index(id)
	if i < 0 {
		return s, errors.Wrapf(errors.ErrLegNotFound, "leg %s", id)
	}
	leg := normalize(patch.Apply(s.snap.Legs[i]))
	if err := ValidateLeg(leg); err != nil {
		return s, err
	}
	next := s.copy()
	next.snap.Legs[i] = leg
	return next.SyncGroups(), nil
}

// ToggleLeg flips the active flag of a leg.
func (s Strategy) ToggleLeg(id string) (Strategy, error) {
	leg, err := s.Leg(id)
	if err != nil {
		return s, err
	}
	return s.SetLegActive(id, !leg.Active)
}

// SetLegActive sets the active flag of a leg.
func (s Strategy) SetLegActive(id string, active bool) (Strategy, error) {
	return s.UpdateLeg(id, LegPatch{Active: &active})
}

// DeleteLeg removes a leg. Group settings are kept so a later leg in the same
// group gets the old display name back.
func (s Strategy) DeleteLeg(id string) (Strategy, error) {
	i := s.index(id)
	if i < 0 {
		return s, errors.Wrapf(errors.ErrLegNotFound, "leg %s", id)
	}
	next := s.copy()
	next.snap.Legs = append(next.snap.Legs[:i], next.snap.Legs[i+1:]...)
	return next, nil
}

// SetUnderlyingPrice sets the spot price.
func (s Strategy) SetUnderlyingPrice(price float64) (Strategy, error) {
	if err := ValidateMarket(models.MarketState{UnderlyingPrice: price}); err != nil {
		return s, err
	}
	next := s.copy()
	next.snap.Market.UnderlyingPrice = price
	return next, nil
}

// SetModelParameters replaces the model parameters.
func (s Strategy) SetModelParameters(p models.ModelParameters) (Strategy, error) {
	if err := ValidateParameters(p); err != nil {
		return s, err
	}
	next := s.copy()
	next.snap.Params = p
	return next, nil
}

// RenameGroup sets the display name of a group.
func (s Strategy) RenameGroup(id, name string) (Strategy, error) {
	if name == "" {
		return s, errors.NewValidationError("name", name, "group name cannot be empty")
	}
	next := s.copy()
	g := next.settings(id)
	g.Name = name
	next.snap.Groups[id] = g
	return next, nil
}

// SetGroupEnabled includes or excludes a group from analysis.
func (s Strategy) SetGroupEnabled(id string, enabled bool) Strategy {
	next := s.copy()
	g := next.settings(id)
	g.Enabled = enabled
	next.snap.Groups[id] = g
	return next
}

// SyncGroups registers default settings for every group used by a leg.
func (s Strategy) SyncGroups() Strategy {
	var missing []string
	for _, l := range s.snap.Legs {
		if _, ok := s.snap.Groups[l.Group()]; !ok {
			missing = append(missing, l.Group())
		}
	}
	if len(missing) == 0 {
		return s
	}
	next := s.copy()
	for _, id := range missing {
		next.settings(id)
	}
	return next
}

// Rename sets the strategy name.
func (s Strategy) Rename(name string) (Strategy, error) {
	if name == "" {
		return s, errors.NewValidationError("name", name, "strategy name cannot be empty")
	}
	next := s.copy()
	next.snap.Name = name
	return next, nil
}

func (s Strategy) settings(id string) models.GroupSettings {
	g, ok := s.snap.Groups[id]
	if !ok {
		g = models.GroupSettings{Name: models.DefaultGroupName(id), Enabled: true}
		s.snap.Groups[id] = g
	}
	return g
}

func (s Strategy) index(id string) int {
	for i, l := range s.snap.Legs {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s Strategy) copy() Strategy {
	return Strategy{snap: clone(s.snap)}
}

func clone(s models.Snapshot) models.Snapshot {
	out := s
	out.Legs = append(make([]models.Leg, 0, len(s.Legs)), s.Legs...)
	out.Groups = make(map[string]models.GroupSettings, len(s.Groups))
	for id, g := range s.Groups {
		out.Groups[id] = g
	}
	return out
}

// normalize fills the default group and clears the strike of underlying legs.
func normalize(l models.Leg) models.Leg {
	if l.GroupID == "" {
		l.GroupID = models.DefaultGroupID
	}
	if l.Type == models.Underlying {
		l.Strike = 0
	}
	return l
}
