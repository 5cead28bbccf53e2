package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign is a fundraising goal that collects completed donations.
type Campaign struct {
	ID           string
	Name         string
	Description  string
	GoalCents    int64
	CurrentCents int64
	StartDate    time.Time
	EndDate      *time.Time
	IsActive     bool
	IsFeatured   bool
	CreatedAt    time.Time
}

func (c *Campaign) Goal() decimal.Decimal {
	return FromCents(c.GoalCents)
}

func (c *Campaign) Current() decimal.Decimal {
	return FromCents(c.CurrentCents)
}

// Progress is the funded percentage, capped at 100 and rounded to 2 places.
func (c *Campaign) Progress() decimal.Decimal {
	if c.GoalCents <= 0 {
		return decimal.Zero
	}
	pct := decimal.NewFromInt(c.CurrentCents).Mul(hundred).Div(decimal.NewFromInt(c.GoalCents))
	return decimal.Min(pct, hundred).Round(2)
}

func (c *Campaign) IsCompleted() bool {
	return c.CurrentCents >= c.GoalCents
}

// AcceptsDonations reports whether new donations may reference the campaign.
func (c *Campaign) AcceptsDonations() error {
	if !c.IsActive {
		return ErrCampaignInactive
	}
	return nil
}
