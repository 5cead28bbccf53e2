package rest

import (
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/application/services"
	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/shopspring/decimal"
)

// DonationRequest is the body of POST /api/v1/donations.
type DonationRequest struct {
	DonorName     string          `json:"donor_name"`
	DonorEmail    string          `json:"donor_email"`
	DonorPhone    string          `json:"donor_phone"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	DonationType  string          `json:"donation_type"`
	CampaignID    string          `json:"campaign_id"`
	Message       string          `json:"message"`
	PaymentMethod string          `json:"payment_method"`
	IsAnonymous   bool            `json:"is_anonymous"`
	ShowAmount    *bool           `json:"show_amount"`
}

// ToCommand builds the service command. userID and userName are empty for guests.
func (r DonationRequest) ToCommand(userID, userName string) services.DonateCommand {
	showAmount := true
	if r.ShowAmount != nil {
		showAmount = *r.ShowAmount
	}
	return services.DonateCommand{
		UserID:        userID,
		UserName:      userName,
		DonorName:     r.DonorName,
		DonorEmail:    r.DonorEmail,
		DonorPhone:    r.DonorPhone,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Category:      r.DonationType,
		CampaignID:    r.CampaignID,
		Message:       r.Message,
		PaymentMethod: r.PaymentMethod,
		IsAnonymous:   r.IsAnonymous,
		ShowAmount:    showAmount,
	}
}

type DonationReceipt struct {
	DonationID   string `json:"donation_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

func ToDonationReceipt(r *services.DonationReceipt) DonationReceipt {
	return DonationReceipt{
		DonationID:   r.DonationID,
		ClientSecret: r.ClientSecret,
		Amount:       money(r.AmountCents),
		Currency:     r.Currency,
		Status:       string(r.Status),
	}
}

type Donation struct {
	ID            string     `json:"id"`
	DonorName     string     `json:"donor_name"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	DonationType  string     `json:"donation_type"`
	CampaignID    *string    `json:"campaign_id,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func ToDonation(d *domain.Donation) Donation {
	return Donation{
		ID:            d.ID,
		DonorName:     d.DisplayName(),
		Amount:        money(d.AmountCents),
		Currency:      d.Currency,
		DonationType:  string(d.Category),
		CampaignID:    d.CampaignID,
		PaymentMethod: string(d.PaymentMethod),
		Status:        string(d.Status),
		ProcessedAt:   d.ProcessedAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type HistoryEntry struct {
	ID            string    `json:"id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	DonationType  string    `json:"donation_type"`
	CampaignName  *string   `json:"campaign_name"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToHistory(entries []application.DonationHistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:            e.ID,
			Amount:        money(e.AmountCents),
			Currency:      e.Currency,
			DonationType:  string(e.Category),
			CampaignName:  e.CampaignName,
			PaymentMethod: string(e.PaymentMethod),
			Status:        string(e.Status),
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}

type Campaign struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	GoalAmount         string     `json:"goal_amount"`
	CurrentAmount      string     `json:"current_amount"`
	ProgressPercentage string     `json:"progress_percentage"`
	IsCompleted        bool       `json:"is_completed"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	IsActive           bool       `json:"is_active"`
	IsFeatured         bool       `json:"is_featured"`
}

func ToCampaign(c *domain.Campaign) Campaign {
	return Campaign{
		ID:                 c.ID,
		Name:               c.Name,
		Description:        c.Description,
		GoalAmount:         money(c.GoalCents),
		CurrentAmount:      money(c.CurrentCents),
		ProgressPercentage: c.Progress().StringFixed(2),
		IsCompleted:        c.IsCompleted(),
		StartDate:          c.StartDate,
		EndDate:            c.EndDate,
		IsActive:           c.IsActive,
		IsFeatured:         c.IsFeatured,
	}
}

func ToCampaigns(campaigns []*domain.Campaign) []Campaign {
	out := make([]Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, ToCampaign(c))
	}
	return out
}

type Stats struct {
	TotalAmount      string `json:"total_amount"`
	TotalDonations   int    `json:"total_donations"`
	MonthlyAmount    string `json:"monthly_amount"`
	MonthlyDonations int    `json:"monthly_donations"`
	ActiveCampaigns  int    `json:"active_campaigns"`
}

func ToStats(s *services.DonationStats) Stats {
	return Stats{
		TotalAmount:      money(s.TotalCents),
		TotalDonations:   s.TotalCount,
		MonthlyAmount:    money(s.MonthTotalCents),
		MonthlyDonations: s.MonthCount,
		ActiveCampaigns:  s.ActiveCampaigns,
	}
}

func money(cents int64) string {
	return domain.FromCents(cents).StringFixed(2)
}
