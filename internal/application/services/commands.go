package services

import (
	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/shopspring/decimal"
)

// DonateCommand carries a donation submission. UserID is set when the
// caller presented a valid bearer token, otherwise the guest fields apply.
type DonateCommand struct {
	UserID   string
	UserName string

	DonorName  string
	DonorEmail string
	DonorPhone string

	Amount        decimal.Decimal
	Currency      string
	Category      string
	CampaignID    string
	Message       string
	PaymentMethod string
	IsAnonymous   bool
	ShowAmount    bool
}

type CancelCommand struct {
	DonationID string
	UserID     string
}

// DonationReceipt is what the donor gets back after submitting.
type DonationReceipt struct {
	DonationID   string
	ClientSecret string
	AmountCents  int64
	Currency     string
	Status       domain.DonationStatus
}

// DonationStats aggregates completed giving.
type DonationStats struct {
	TotalCents      int64
	TotalCount      int
	MonthTotalCents int64
	MonthCount      int
	ActiveCampaigns int
}
