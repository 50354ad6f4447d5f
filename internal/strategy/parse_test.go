package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-strategist/internal/errors"
	"options-strategist/internal/models"
)

func TestParseLeg(t *testing.T) {
	tests := []struct {
		in   string
		want models.Leg
	}{
		{"buy call 100 5", models.Leg{Action: models.ActionBuy, Type: models.Call, Strike: 100, Premium: 5, Quantity: 1, GroupID: "1"}},
		{"sell put 95 @2.5 3 hedge", models.Leg{Action: models.ActionSell, Type: models.Put, Strike: 95, Premium: 2.5, Quantity: 3, GroupID: "hedge"}},
		{"buy underlying 100 10", models.Leg{Action: models.ActionBuy, Type: models.Underlying, Premium: 100, Quantity: 10, GroupID: "1"}},
		{"S CE 105 2", models.Leg{Action: models.ActionSell, Type: models.Call, Strike: 105, Premium: 2, Quantity: 1, GroupID: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLeg(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLeg_Errors(t *testing.T) {
	for _, in := range []string{
		"",
		"buy call",
		"buy call 100",
		"hold call 100 5",
		"buy future 100 5",
		"buy call abc 5",
		"buy call 100 5 x",
		"buy call 100 5 0",
		"buy call 100 -5",
		"buy call 100 5 1 g extra",
	} {
		_, err := ParseLeg(in)
		assert.True(t, errors.Is(err, errors.ErrInputValidation), "input %q: %v", in, err)
	}
}
