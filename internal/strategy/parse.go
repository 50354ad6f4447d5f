package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"options-strategist/internal/errors"
	"options-strategist/internal/models"
)

// ParseLeg parses the shorthand used on the command line:
//
//	<buy|sell> <call|put> <strike> <premium> [quantity] [group]
//	<buy|sell> underlying <entry price> [quantity] [group]
//
// Quantity defaults to 1 and group to the default group.
func ParseLeg(s string) (models.Leg, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return models.Leg{}, errors.NewValidationError("leg", s, "expected: <buy|sell> <call|put|underlying> <strike> <premium> [qty] [group]")
	}

	action, err := models.ParseAction(fields[0])
	if err != nil {
		return models.Leg{}, errors.NewValidationError("action", fields[0], err.Error())
	}
	typ, err := models.ParseInstrumentType(fields[1])
	if err != nil {
		return models.Leg{}, errors.NewValidationError("type", fields[1], err.Error())
	}

	leg := models.Leg{Action: action, Type: typ, Quantity: 1, GroupID: models.DefaultGroupID}
	rest := fields[2:]

	if typ == models.Underlying {
		if leg.Premium, err = parseNumber("entry price", rest[0]); err != nil {
			return models.Leg{}, err
		}
		rest = rest[1:]
	} else {
		if len(rest) < 2 {
			return models.Leg{}, errors.NewValidationError("premium", "", "options need both strike and premium")
		}
		if leg.Strike, err = parseNumber("strike", rest[0]); err != nil {
			return models.Leg{}, err
		}
		if leg.Premium, err = parseNumber("premium", rest[1]); err != nil {
			return models.Leg{}, err
		}
		rest = rest[2:]
	}

	if len(rest) > 0 {
		q, err := strconv.Atoi(rest[0])
		if err != nil {
			return models.Leg{}, errors.NewValidationError("quantity", rest[0], "must be a whole number")
		}
		leg.Quantity = q
		rest = rest[1:]
	}
	if len(rest) > 0 {
		leg.GroupID = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return models.Leg{}, errors.NewValidationError("leg", s, fmt.Sprintf("unexpected trailing input %q", strings.Join(rest, " ")))
	}

	if err := ValidateLeg(leg); err != nil {
		return models.Leg{}, err
	}
	return leg, nil
}

func parseNumber(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "@"), 64)
	if err != nil {
		return 0, errors.NewValidationError(field, s, "must be a number")
	}
	return v, nil
}
