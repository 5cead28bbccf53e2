package postgres

import (
	"github.com/DanielPopoola/church-donations/internal/domain"
)

// toDomainDonation: maps db model to domain entity
func toDomainDonation(m DonationModel) *domain.Donation {
	var donor domain.Donor
	if m.DonorUserID != nil {
		donor = domain.RegisteredDonor{UserID: *m.DonorUserID, FullName: m.DonorName}
	} else {
		donor = domain.GuestDonor{Name: m.DonorName, Email: m.DonorEmail, Phone: m.DonorPhone}
	}

	return &domain.Donation{
		ID:              m.ID,
		Donor:           donor,
		AmountCents:     m.AmountCents,
		Currency:        m.Currency,
		Category:        domain.Category(m.DonationType),
		CampaignID:      m.CampaignID,
		Message:         m.Message,
		PaymentMethod:   domain.PaymentMethod(m.PaymentMethod),
		Status:          domain.DonationStatus(m.Status),
		TransactionID:   m.TransactionID,
		PaymentIntentID: m.PaymentIntentID,
		IsAnonymous:     m.IsAnonymous,
		ShowAmount:      m.ShowAmount,
		ProcessedAt:     m.ProcessedAt,
		ReceiptSent:     m.ReceiptSent,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// toDonationModel: maps domain entity to db model
func toDonationModel(d *domain.Donation) *DonationModel {
	m := &DonationModel{
		ID:              d.ID,
		AmountCents:     d.AmountCents,
		Currency:        d.Currency,
		DonationType:    string(d.Category),
		CampaignID:      d.CampaignID,
		Message:         d.Message,
		PaymentMethod:   string(d.PaymentMethod),
		Status:          string(d.Status),
		TransactionID:   d.TransactionID,
		PaymentIntentID: d.PaymentIntentID,
		IsAnonymous:     d.IsAnonymous,
		ShowAmount:      d.ShowAmount,
		ProcessedAt:     d.ProcessedAt,
		ReceiptSent:     d.ReceiptSent,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}

	switch v := d.Donor.(type) {
	case domain.RegisteredDonor:
		userID := v.UserID
		m.DonorUserID = &userID
		m.DonorName = v.FullName
	case domain.GuestDonor:
		m.DonorName = v.Name
		m.DonorEmail = v.Email
		m.DonorPhone = v.Phone
	}
	return m
}

func toDomainCampaign(m CampaignModel) *domain.Campaign {
	return &domain.Campaign{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		GoalCents:    m.GoalAmountCents,
		CurrentCents: m.CurrentAmountCents,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		IsActive:     m.IsActive,
		IsFeatured:   m.IsFeatured,
		CreatedAt:    m.CreatedAt,
	}
}
