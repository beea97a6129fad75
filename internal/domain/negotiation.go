package domain

import (
	"time"

	"github.com/google/uuid"
)

// Negotiation is one ledger entry between a buyer and a seller. A nil Amount
// means contact happened but no deal was closed.
type Negotiation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BuyerTaxID  string    `gorm:"size:30;not null;uniqueIndex:idx_negotiations_pair,priority:1" json:"buyer_tax_id"`
	SellerTaxID string    `gorm:"size:30;not null;uniqueIndex:idx_negotiations_pair,priority:2;index" json:"seller_tax_id"`
	Amount      *Money    `gorm:"column:amount_cents" json:"amount"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (n Negotiation) HasDeal() bool { return n.Amount != nil }

// AmountOrZero counts "no deal" as zero when summing.
func (n Negotiation) AmountOrZero() Money {
	if n.Amount == nil {
		return 0
	}
	return *n.Amount
}

func (n Negotiation) Pair() Pair { return Pair{Buyer: n.BuyerTaxID, Seller: n.SellerTaxID} }

// Involves reports whether taxID is either side of the record.
func (n Negotiation) Involves(taxID string) bool {
	return n.BuyerTaxID == taxID || n.SellerTaxID == taxID
}

// PartyFor returns the tax id on the given role's side.
func (n Negotiation) PartyFor(r Role) string {
	if r == RoleBuyer {
		return n.BuyerTaxID
	}
	return n.SellerTaxID
}

type Pair struct {
	Buyer  string
	Seller string
}

// AmountOf returns a pointer to a copy of m.
func AmountOf(m Money) *Money { return &m }
