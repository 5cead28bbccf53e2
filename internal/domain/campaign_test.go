package domain_test

import (
	"testing"

	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaign_Progress(t *testing.T) {
	tests := []struct {
		name      string
		goal      int64
		current   int64
		want      string
		completed bool
	}{
		{"empty campaign", 10000, 0, "0", false},
		{"half way", 10000, 5000, "50", false},
		{"fractional", 30000, 10000, "33.33", false},
		{"exactly met", 10000, 10000, "100", true},
		{"over goal is capped", 10000, 11000, "100", true},
		{"zero goal", 0, 500, "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &domain.Campaign{GoalCents: tt.goal, CurrentCents: tt.current}

			want, err := decimal.NewFromString(tt.want)
			require.NoError(t, err)
			assert.True(t, want.Equal(c.Progress()), "progress = %s, want %s", c.Progress(), tt.want)
			assert.Equal(t, tt.completed, c.IsCompleted())
		})
	}
}

func TestCampaign_AcceptsDonations(t *testing.T) {
	active := &domain.Campaign{IsActive: true}
	assert.NoError(t, active.AcceptsDonations())

	inactive := &domain.Campaign{IsActive: false}
	assert.ErrorIs(t, inactive.AcceptsDonations(), domain.ErrCampaignInactive)
}

func TestCampaign_Amounts(t *testing.T) {
	c := &domain.Campaign{GoalCents: 10050, CurrentCents: 1}

	assert.Equal(t, "100.50", c.Goal().StringFixed(2))
	assert.Equal(t, "0.01", c.Current().StringFixed(2))
}
