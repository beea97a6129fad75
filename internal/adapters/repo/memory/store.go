// Package memory keeps the directory and the ledger in process memory. It backs
// STORE=memory and the use case tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/rodada/internal/domain"
	"github.com/phenrril/rodada/internal/ledger"
)

type Store struct {
	mu        sync.RWMutex
	companies []domain.Company
	records   []domain.Negotiation
	settings  domain.Settings
}

func NewStore() *Store {
	return &Store{settings: domain.DefaultSettings()}
}

func (s *Store) LoadCompanies(_ context.Context) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Company, len(s.companies))
	copy(out, s.companies)
	return out, nil
}

func (s *Store) LoadRecords(_ context.Context) ([]domain.Negotiation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Negotiation, len(s.records))
	for i, n := range s.records {
		out[i] = cloneRecord(n)
	}
	return out, nil
}

func (s *Store) LoadSettings(_ context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) CreateCompany(_ context.Context, c *domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(c.TaxID) >= 0 {
		return domain.ErrCompanyExists
	}
	s.insert(c)
	return nil
}

func (s *Store) SaveCompany(_ context.Context, c *domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(c.TaxID); i >= 0 {
		s.companies[i] = *c
		return nil
	}
	s.insert(c)
	return nil
}

func (s *Store) insert(c *domain.Company) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.companies = append(s.companies, *c)
}

// SaveRecord enforces pair uniqueness inside the lock, so concurrent callers
// in the same process cannot both land a record for one pair.
func (s *Store) SaveRecord(_ context.Context, n *domain.Negotiation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := ledger.FindPair(s.records, n.BuyerTaxID, n.SellerTaxID); ok && other.ID != n.ID {
		return &domain.DuplicateNegotiationError{BuyerTaxID: n.BuyerTaxID, SellerTaxID: n.SellerTaxID, ExistingID: other.ID}
	}
	s.records = ledger.Replace(s.records, cloneRecord(*n))
	return nil
}

func (s *Store) DeleteCompany(_ context.Context, taxID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(taxID)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.companies = append(s.companies[:i:i], s.companies[i+1:]...)
	s.records = ledger.WithoutCompany(s.records, taxID)
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := ledger.FindRecord(s.records, id); !ok {
		return domain.ErrRecordNotFound
	}
	s.records = ledger.WithoutRecord(s.records, id)
	return nil
}

func (s *Store) SaveSettings(_ context.Context, st *domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = domain.SettingsID
	st.UpdatedAt = time.Now()
	s.settings = *st
	return nil
}

func (s *Store) indexOf(taxID string) int {
	for i, c := range s.companies {
		if c.TaxID == taxID {
			return i
		}
	}
	return -1
}

func cloneRecord(n domain.Negotiation) domain.Negotiation {
	if n.Amount != nil {
		n.Amount = domain.AmountOf(*n.Amount)
	}
	return n
}
