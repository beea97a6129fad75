// Package ledger validates negotiation records and derives coverage
// ("positivação") statistics. Every function works on the snapshots it is
// given and returns new values; nothing here touches storage.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/rodada/internal/domain"
)

type Engine struct {
	Now   func() time.Time
	NewID func() uuid.UUID
}

func New() *Engine {
	return &Engine{Now: time.Now, NewID: uuid.New}
}

type SubmitInput struct {
	BuyerTaxID  string
	SellerTaxID string
	// Amount nil means "contact made, no deal".
	Amount *domain.Money
	Notes  string
}

type CorrectInput struct {
	ID     uuid.UUID
	Amount *domain.Money
	Notes  string
}

// Submit validates a new record against the directory and the existing
// records, in this order: parties, amount, pair uniqueness.
func (e *Engine) Submit(in SubmitInput, companies []domain.Company, records []domain.Negotiation) (domain.Negotiation, error) {
	if err := resolveParty(companies, in.BuyerTaxID, domain.RoleBuyer); err != nil {
		return domain.Negotiation{}, err
	}
	if err := resolveParty(companies, in.SellerTaxID, domain.RoleSeller); err != nil {
		return domain.Negotiation{}, err
	}
	if err := checkAmount(in.Amount, false); err != nil {
		return domain.Negotiation{}, err
	}
	if existing, ok := FindPair(records, in.BuyerTaxID, in.SellerTaxID); ok {
		return domain.Negotiation{}, &domain.DuplicateNegotiationError{
			BuyerTaxID:  in.BuyerTaxID,
			SellerTaxID: in.SellerTaxID,
			ExistingID:  existing.ID,
		}
	}
	return domain.Negotiation{
		ID:          e.NewID(),
		BuyerTaxID:  in.BuyerTaxID,
		SellerTaxID: in.SellerTaxID,
		Amount:      copyAmount(in.Amount),
		Notes:       in.Notes,
		CreatedAt:   e.Now(),
	}, nil
}

// Correct replaces amount and notes of an existing record. Unlike Submit it
// accepts zero, and nil retracts a previously recorded deal.
func (e *Engine) Correct(in CorrectInput, records []domain.Negotiation) (domain.Negotiation, error) {
	cur, ok := FindRecord(records, in.ID)
	if !ok {
		return domain.Negotiation{}, domain.ErrRecordNotFound
	}
	if err := checkAmount(in.Amount, true); err != nil {
		return domain.Negotiation{}, err
	}
	cur.Amount = copyAmount(in.Amount)
	cur.Notes = in.Notes
	return cur, nil
}

func checkAmount(m *domain.Money, allowZero bool) error {
	switch {
	case m == nil:
		return nil
	case *m < 0, *m == 0 && !allowZero:
		return domain.ErrInvalidAmount
	case *m > domain.MaxAmount:
		return domain.ErrAmountTooLarge
	}
	return nil
}

func resolveParty(companies []domain.Company, taxID string, role domain.Role) error {
	for _, c := range companies {
		if c.TaxID == taxID && c.Role == role {
			return nil
		}
	}
	return &domain.UnknownPartyError{TaxID: taxID, Role: role}
}

func FindPair(records []domain.Negotiation, buyer, seller string) (domain.Negotiation, bool) {
	for _, n := range records {
		if n.BuyerTaxID == buyer && n.SellerTaxID == seller {
			return n, true
		}
	}
	return domain.Negotiation{}, false
}

func FindRecord(records []domain.Negotiation, id uuid.UUID) (domain.Negotiation, bool) {
	for _, n := range records {
		if n.ID == id {
			return n, true
		}
	}
	return domain.Negotiation{}, false
}

func copyAmount(m *domain.Money) *domain.Money {
	if m == nil {
		return nil
	}
	return domain.AmountOf(*m)
}
