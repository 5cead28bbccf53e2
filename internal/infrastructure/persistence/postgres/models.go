package postgres

import (
	"time"
)

// DonationModel mirrors a row of the donations table. A non-null
// DonorUserID marks a registered donor.
type DonationModel struct {
	ID              string
	DonorUserID     *string
	DonorName       string
	DonorEmail      string
	DonorPhone      string
	AmountCents     int64
	Currency        string
	DonationType    string
	CampaignID      *string
	Message         string
	PaymentMethod   string
	Status          string
	TransactionID   *string
	PaymentIntentID *string
	IsAnonymous     bool
	ShowAmount      bool
	ProcessedAt     *time.Time
	ReceiptSent     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CampaignModel struct {
	ID                 string
	Name               string
	Description        string
	GoalAmountCents    int64
	CurrentAmountCents int64
	StartDate          time.Time
	EndDate            *time.Time
	IsActive           bool
	IsFeatured         bool
	CreatedAt          time.Time
}
