package strategy

import (
	"strings"

	"options-strategist/internal/errors"
	"options-strategist/internal/models"
)

// Template is a predefined set of legs.
type Template struct {
	Name string       `json:"name"`
	Legs []models.Leg `json:"legs"`
}

func tmplLeg(action models.Action, typ models.InstrumentType, strike, premium float64) models.Leg {
	return models.Leg{
		Action:   action,
		Type:     typ,
		Strike:   strike,
		Premium:  premium,
		Quantity: 1,
		GroupID:  models.DefaultGroupID,
	}
}

// Templates returns the built-in strategy templates.
func Templates() []Template {
	return []Template{
		{Name: "Long Call", Legs: []models.Leg{
			tmplLeg(models.ActionBuy, models.Call, 100, 5),
		}},
		{Name: "Long Put", Legs: []models.Leg{
			tmplLeg(models.ActionBuy, models.Put, 100, 5),
		}},
		{Name: "Covered Call", Legs: []models.Leg{
			tmplLeg(models.ActionBuy, models.Underlying, 0, 100),
			tmplLeg(models.ActionSell, models.Call, 105, 2),
		}},
		{Name: "Long Straddle", Legs: []models.Leg{
			tmplLeg(models.ActionBuy, models.Call, 100, 3),
			tmplLeg(models.ActionBuy, models.Put, 100, 3),
		}},
		{Name: "Iron Condor", Legs: []models.Leg{
			tmplLeg(models.ActionSell, models.Put, 95, 2),
			tmplLeg(models.ActionBuy, models.Put, 90, 1),
			tmplLeg(models.ActionSell, models.Call, 105, 2),
			tmplLeg(models.ActionBuy, models.Call, 110, 1),
		}},
	}
}

// TemplateByName finds a template, ignoring case and surrounding spaces.
// Hyphens and underscores match spaces, so "iron-condor" works from a shell.
func TemplateByName(name string) (Template, error) {
	key := templateKey(name)
	for _, t := range Templates() {
		if templateKey(t.Name) == key {
			return t, nil
		}
	}
	return Template{}, errors.Wrapf(errors.ErrTemplateNotFound, "%q", name)
}

func templateKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", " ", "_", " ").Replace(s)
}

// ApplyTemplate replaces every leg with the template's, resets the group
// settings and renames the strategy. Market and model inputs are kept.
func (s Strategy) ApplyTemplate(t Template) (Strategy, error) {
	next := s.copy()
	next.snap.Name = TemplateStrategyName
	next.snap.Legs = []models.Leg{}
	next.snap.Groups = map[string]models.GroupSettings{}

	var err error
	for _, l := range t.Legs {
		if next, err = next.AddLeg(l); err != nil {
			return s, errors.Wrapf(err, "template %s", t.Name)
		}
	}
	return next, nil
}
