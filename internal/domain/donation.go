// Package domain encodes donations, campaigns and the rules that govern them.
package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DonationStatus represents the current state of a donation in its lifecycle
type DonationStatus string

const (
	StatusPending    DonationStatus = "pending"
	StatusProcessing DonationStatus = "processing"
	StatusCompleted  DonationStatus = "completed"
	StatusFailed     DonationStatus = "failed"
	StatusCancelled  DonationStatus = "cancelled"
	StatusRefunded   DonationStatus = "refunded"
)

// Category is what the donation is given towards.
type Category string

const (
	CategoryTithe        Category = "tithe"
	CategoryOffering     Category = "offering"
	CategoryBuildingFund Category = "building_fund"
	CategoryMissions     Category = "missions"
	CategorySpecial      Category = "special"
	CategoryCampaign     Category = "campaign"
	CategoryOther        Category = "other"
)

var categories = []Category{
	CategoryTithe, CategoryOffering, CategoryBuildingFund, CategoryMissions,
	CategorySpecial, CategoryCampaign, CategoryOther,
}

// ParseCategory maps a wire value to a Category. Empty means offering.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOffering, nil
	}
	c := Category(s)
	if !slices.Contains(categories, c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// PaymentMethod is how the donor pays.
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodPayPal       PaymentMethod = "paypal"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodCheck        PaymentMethod = "check"
)

var paymentMethods = []PaymentMethod{MethodCard, MethodPayPal, MethodBankTransfer, MethodCash, MethodCheck}

// ParsePaymentMethod maps a wire value to a PaymentMethod. Empty means card.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if s == "" {
		return MethodCard, nil
	}
	m := PaymentMethod(s)
	if !slices.Contains(paymentMethods, m) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
	}
	return m, nil
}

// RequiresIntent reports whether the method is settled through the card processor.
// Every other method is reconciled by staff.
func (m PaymentMethod) RequiresIntent() bool {
	return m == MethodCard
}

// PaymentOutcome is what the processor reported for an intent.
type PaymentOutcome string

const (
	OutcomeSucceeded PaymentOutcome = "succeeded"
	OutcomeFailed    PaymentOutcome = "failed"
	OutcomeCanceled  PaymentOutcome = "canceled"
)

const maxMessageLength = 2000

type Donation struct {
	ID            string
	Donor         Donor
	AmountCents   int64
	Currency      string
	Category      Category
	CampaignID    *string
	Message       string
	PaymentMethod PaymentMethod
	Status        DonationStatus

	TransactionID   *string
	PaymentIntentID *string

	IsAnonymous bool
	ShowAmount  bool

	ProcessedAt *time.Time
	ReceiptSent bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type NewDonationParams struct {
	ID            string
	Donor         Donor
	AmountCents   int64
	Currency      string
	Category      Category
	CampaignID    *string
	Message       string
	PaymentMethod PaymentMethod
	IsAnonymous   bool
	ShowAmount    bool
}

// NewDonation builds a pending donation. Amount and currency are expected to be
// normalized already (see AmountPolicy and NormalizeCurrency).
func NewDonation(p NewDonationParams) (*Donation, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: id", ErrMissingRequiredField)
	}
	if p.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if p.Currency == "" {
		return nil, fmt.Errorf("%w: currency", ErrMissingRequiredField)
	}
	if p.Category == "" || p.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: donation_type and payment_method", ErrMissingRequiredField)
	}
	if utf8.RuneCountInString(p.Message) > maxMessageLength {
		return nil, fmt.Errorf("%w: limit is %d characters", ErrMessageTooLong, maxMessageLength)
	}

	donor, err := normalizeDonor(p.Donor)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Donation{
		ID:            p.ID,
		Donor:         donor,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		Category:      p.Category,
		CampaignID:    p.CampaignID,
		Message:       p.Message,
		PaymentMethod: p.PaymentMethod,
		Status:        StatusPending,
		IsAnonymous:   p.IsAnonymous,
		ShowAmount:    p.ShowAmount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func normalizeDonor(d Donor) (Donor, error) {
	switch v := d.(type) {
	case nil:
		return GuestDonor{}, nil
	case RegisteredDonor:
		if v.UserID == "" {
			return nil, fmt.Errorf("%w: registered donor without user id", ErrInvalidDonor)
		}
		return v, nil
	case GuestDonor:
		v.Name = strings.TrimSpace(v.Name)
		v.Email = strings.TrimSpace(v.Email)
		v.Phone = strings.TrimSpace(v.Phone)
		if v.Email != "" {
			if _, err := mail.ParseAddress(v.Email); err != nil {
				return nil, fmt.Errorf("%w: donor_email", ErrInvalidDonor)
			}
		}
		return v, nil
	}
	return nil, ErrInvalidDonor
}

// Amount returns the donation amount in major units.
func (d *Donation) Amount() decimal.Decimal {
	return FromCents(d.AmountCents)
}

// DisplayName is the public donor name.
func (d *Donation) DisplayName() string {
	return DisplayName(d.Donor, d.IsAnonymous)
}

// BelongsTo reports whether a registered user made this donation.
func (d *Donation) BelongsTo(userID string) bool {
	return userID != "" && UserID(d.Donor) == userID
}

// StartProcessing records the processor intent and moves pending -> processing.
func (d *Donation) StartProcessing(intentID string) error {
	if intentID == "" {
		return fmt.Errorf("%w: payment intent id", ErrMissingRequiredField)
	}
	if err := d.transition(StatusProcessing); err != nil {
		return err
	}
	d.PaymentIntentID = &intentID
	d.TransactionID = &intentID
	return nil
}

// Complete marks a processing donation as paid.
func (d *Donation) Complete(at time.Time) error {
	if err := d.transition(StatusCompleted); err != nil {
		return err
	}
	d.ProcessedAt = &at
	return nil
}

func (d *Donation) Fail() error {
	return d.transition(StatusFailed)
}

func (d *Donation) Cancel() error {
	return d.transition(StatusCancelled)
}

func (d *Donation) Refund() error {
	return d.transition(StatusRefunded)
}

// ApplyOutcome maps a processor outcome onto the state machine.
func (d *Donation) ApplyOutcome(outcome PaymentOutcome, at time.Time) error {
	switch outcome {
	case OutcomeSucceeded:
		return d.Complete(at)
	case OutcomeFailed:
		return d.Fail()
	case OutcomeCanceled:
		return d.Cancel()
	}
	return fmt.Errorf("unknown payment outcome %q", outcome)
}

// CreditsCampaign reports whether a completed donation should be added to a campaign total.
func (d *Donation) CreditsCampaign() bool {
	return d.Status == StatusCompleted && d.CampaignID != nil
}

func (d *Donation) IsTerminal() bool {
	return d.Status.IsTerminal()
}

// IsTerminal reports whether the status can no longer change through payment events.
func (s DonationStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

func (d *Donation) transition(target DonationStatus) error {
	if err := d.canTransitionTo(target); err != nil {
		return err
	}
	d.Status = target
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// Valid transitions are:
//   - pending -> processing, failed, cancelled
//   - processing -> completed, failed, cancelled
//   - completed -> refunded
func (d *Donation) canTransitionTo(target DonationStatus) error {
	switch d.Status {
	case StatusPending:
		return d.allow(target, StatusProcessing, StatusFailed, StatusCancelled)
	case StatusProcessing:
		return d.allow(target, StatusCompleted, StatusFailed, StatusCancelled)
	case StatusCompleted:
		return d.allow(target, StatusRefunded)
	}
	return d.allow(target)
}

func (d *Donation) allow(target DonationStatus, allowed ...DonationStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, target)
}

// IsInvalidTransition is a convenience for callers that treat lost races as no-ops.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
