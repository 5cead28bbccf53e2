// Package mocks provides in-memory implementations of the application ports for tests.
package mocks

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/domain"
)

// Store is an in-memory database. WithTransaction serializes units of work
// and restores the previous state when fn fails, so row locks and rollbacks
// behave like the postgres implementation.
type Store struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	donations map[string]*domain.Donation
	campaigns map[string]*domain.Campaign
	events    map[string]string
	polled    map[string]time.Time

	CreateFn        func(ctx context.Context, donation *domain.Donation) error
	UpdateFn        func(ctx context.Context, donation *domain.Donation) error
	CreditFn        func(ctx context.Context, campaignID string, amountCents int64) error
	MarkProcessedFn func(ctx context.Context, eventID, eventType string) (bool, error)
	FindStaleFn     func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Donation, error)
}

func NewStore() *Store {
	return &Store{
		donations: make(map[string]*domain.Donation),
		campaigns: make(map[string]*domain.Campaign),
		events:    make(map[string]string),
		polled:    make(map[string]time.Time),
	}
}

// Repositories returns the store bound as every repository port.
func (s *Store) Repositories() application.Repositories {
	return application.Repositories{
		Donations:     s,
		Campaigns:     campaignRepo{s},
		WebhookEvents: s,
	}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	donations := cloneDonations(s.donations)
	campaigns := cloneCampaigns(s.campaigns)
	events := maps.Clone(s.events)
	s.mu.RUnlock()

	if err := fn(ctx, s.Repositories()); err != nil {
		s.mu.Lock()
		s.donations, s.campaigns, s.events = donations, campaigns, events
		s.mu.Unlock()
		return err
	}
	return nil
}

// SeedDonation stores d as is.
func (s *Store) SeedDonation(d *domain.Donation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations[d.ID] = cloneDonation(d)
}

// SeedCampaign stores c as is.
func (s *Store) SeedCampaign(c *domain.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = cloneCampaign(c)
}

// Donation returns the stored donation or nil.
func (s *Store) Donation(id string) *domain.Donation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.donations[id]; ok {
		return cloneDonation(d)
	}
	return nil
}

// Donations returns every stored donation.
func (s *Store) Donations() []*domain.Donation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Donation, 0, len(s.donations))
	for _, d := range s.donations {
		out = append(out, cloneDonation(d))
	}
	return out
}

// Campaign returns the stored campaign or nil.
func (s *Store) Campaign(id string) *domain.Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.campaigns[id]; ok {
		return cloneCampaign(c)
	}
	return nil
}

// EventCount is the number of recorded processor events.
func (s *Store) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// DonationRepository

func (s *Store) Create(ctx context.Context, donation *domain.Donation) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, donation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donations[donation.ID]; ok {
		return fmt.Errorf("donation %s already exists", donation.ID)
	}
	s.donations[donation.ID] = cloneDonation(donation)
	return nil
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.donations[id]; ok {
		return cloneDonation(d), nil
	}
	return nil, domain.ErrDonationNotFound
}

func (s *Store) FindByIDForUpdate(ctx context.Context, id string) (*domain.Donation, error) {
	return s.FindByID(ctx, id)
}

func (s *Store) FindByPaymentIntentIDForUpdate(_ context.Context, intentID string) (*domain.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.donations {
		if d.PaymentIntentID != nil && *d.PaymentIntentID == intentID {
			return cloneDonation(d), nil
		}
	}
	return nil, domain.ErrDonationNotFound
}

func (s *Store) Update(ctx context.Context, donation *domain.Donation) error {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, donation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donations[donation.ID]; !ok {
		return domain.ErrDonationNotFound
	}
	s.donations[donation.ID] = cloneDonation(donation)
	return nil
}

func (s *Store) FindStaleProcessing(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Donation, error) {
	if s.FindStaleFn != nil {
		return s.FindStaleFn(ctx, cutoff, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Donation
	for _, d := range s.donations {
		if d.Status == domain.StatusProcessing && d.UpdatedAt.Before(cutoff) {
			out = append(out, cloneDonation(d))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Donation) int {
		pa, aok := s.polled[a.ID]
		pb, bok := s.polled[b.ID]
		switch {
		case aok != bok:
			if !aok {
				return -1
			}
			return 1
		case aok && !pa.Equal(pb):
			return pa.Compare(pb)
		}
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkPolled(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.donations[id]; ok && d.Status == domain.StatusProcessing {
		s.polled[id] = at
	}
	return nil
}

func (s *Store) FindCompletedByUser(_ context.Context, userID string) ([]application.DonationHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []application.DonationHistoryEntry
	for _, d := range s.donations {
		if d.Status != domain.StatusCompleted || domain.UserID(d.Donor) != userID {
			continue
		}
		entry := application.DonationHistoryEntry{
			ID:            d.ID,
			AmountCents:   d.AmountCents,
			Currency:      d.Currency,
			Category:      d.Category,
			PaymentMethod: d.PaymentMethod,
			Status:        d.Status,
			CreatedAt:     d.CreatedAt,
		}
		if d.CampaignID != nil {
			if c, ok := s.campaigns[*d.CampaignID]; ok {
				name := c.Name
				entry.CampaignName = &name
			}
		}
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b application.DonationHistoryEntry) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s *Store) Totals(_ context.Context, monthStart time.Time) (application.DonationTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var t application.DonationTotals
	for _, d := range s.donations {
		if d.Status != domain.StatusCompleted {
			continue
		}
		t.TotalCents += d.AmountCents
		t.TotalCount++
		if !d.CreatedAt.Before(monthStart) {
			t.MonthTotalCents += d.AmountCents
			t.MonthCount++
		}
	}
	return t, nil
}

// WebhookEventRepository

func (s *Store) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	if s.MarkProcessedFn != nil {
		return s.MarkProcessedFn(ctx, eventID, eventType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; ok {
		return false, nil
	}
	s.events[eventID] = eventType
	return true, nil
}

// campaignRepo keeps the campaign FindByID apart from the donation one.
type campaignRepo struct{ s *Store }

// Campaigns returns the store bound as a CampaignRepository.
func (s *Store) Campaigns() application.CampaignRepository {
	return campaignRepo{s}
}

func (r campaignRepo) FindByID(_ context.Context, id string) (*domain.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.campaigns[id]; ok {
		return cloneCampaign(c), nil
	}
	return nil, domain.ErrCampaignNotFound
}

func (r campaignRepo) FindActive(_ context.Context) ([]*domain.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Campaign
	for _, c := range r.s.campaigns {
		if c.IsActive {
			out = append(out, cloneCampaign(c))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Campaign) int {
		if a.IsFeatured != b.IsFeatured {
			if a.IsFeatured {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.StartDate.UnixNano(), a.StartDate.UnixNano())
	})
	return out, nil
}

func (r campaignRepo) CountActive(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, c := range r.s.campaigns {
		if c.IsActive {
			n++
		}
	}
	return n, nil
}

func (r campaignRepo) Credit(ctx context.Context, campaignID string, amountCents int64) error {
	if r.s.CreditFn != nil {
		return r.s.CreditFn(ctx, campaignID, amountCents)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[campaignID]
	if !ok {
		return domain.ErrCampaignNotFound
	}
	c.CurrentCents += amountCents
	return nil
}

func cloneDonation(d *domain.Donation) *domain.Donation {
	c := *d
	c.CampaignID = clonePtr(d.CampaignID)
	c.TransactionID = clonePtr(d.TransactionID)
	c.PaymentIntentID = clonePtr(d.PaymentIntentID)
	c.ProcessedAt = clonePtr(d.ProcessedAt)
	return &c
}

func cloneCampaign(c *domain.Campaign) *domain.Campaign {
	cc := *c
	cc.EndDate = clonePtr(c.EndDate)
	return &cc
}

func cloneDonations(in map[string]*domain.Donation) map[string]*domain.Donation {
	out := make(map[string]*domain.Donation, len(in))
	for k, v := range in {
		out[k] = cloneDonation(v)
	}
	return out
}

func cloneCampaigns(in map[string]*domain.Campaign) map[string]*domain.Campaign {
	out := make(map[string]*domain.Campaign, len(in))
	for k, v := range in {
		out[k] = cloneCampaign(v)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
