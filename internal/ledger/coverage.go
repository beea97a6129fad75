package ledger

import (
	"sort"

	"github.com/phenrril/rodada/internal/domain"
)

type PartnerTotal struct {
	TaxID string       `json:"tax_id"`
	Name  string       `json:"name"`
	Total domain.Money `json:"total"`
}

// CompanyCoverage is what a single company has covered so far. Negotiated and
// Pending partition the directory's counterparts, both in directory order.
type CompanyCoverage struct {
	Company     domain.Company       `json:"company"`
	Counterpart domain.Role          `json:"counterpart"`
	Negotiated  []domain.Company     `json:"negotiated"`
	Pending     []domain.Company     `json:"pending"`
	TotalAmount domain.Money         `json:"total_amount"`
	PerPartner  []PartnerTotal       `json:"per_partner"`
	History     []domain.Negotiation `json:"history"`
}

// Chart keeps the partners with a positive total, as the dashboard shows them.
func (c CompanyCoverage) Chart() []PartnerTotal {
	out := make([]PartnerTotal, 0, len(c.PerPartner))
	for _, p := range c.PerPartner {
		if p.Total > 0 {
			out = append(out, p)
		}
	}
	return out
}

func (c CompanyCoverage) NegotiatedSet() map[string]struct{} { return taxIDSet(c.Negotiated) }

func (c CompanyCoverage) PendingSet() map[string]struct{} { return taxIDSet(c.Pending) }

// Coverage is pure: same inputs, same result.
func Coverage(company domain.Company, companies []domain.Company, records []domain.Negotiation) CompanyCoverage {
	role := company.Role
	other := role.Counterpart()

	relevant := make([]domain.Negotiation, 0)
	touched := map[string]struct{}{}
	perPartner := map[string]domain.Money{}
	var total domain.Money
	for _, n := range records {
		if n.PartyFor(role) != company.TaxID {
			continue
		}
		relevant = append(relevant, n)
		partner := n.PartyFor(other)
		touched[partner] = struct{}{}
		perPartner[partner] += n.AmountOrZero()
		total += n.AmountOrZero()
	}

	cov := CompanyCoverage{
		Company:     company,
		Counterpart: other,
		Negotiated:  []domain.Company{},
		Pending:     []domain.Company{},
		TotalAmount: total,
		PerPartner:  []PartnerTotal{},
		History:     newestFirst(relevant),
	}
	for _, c := range companies {
		if c.Role != other {
			continue
		}
		if _, ok := touched[c.TaxID]; ok {
			cov.Negotiated = append(cov.Negotiated, c)
		} else {
			cov.Pending = append(cov.Pending, c)
		}
		cov.PerPartner = append(cov.PerPartner, PartnerTotal{TaxID: c.TaxID, Name: c.Name, Total: perPartner[c.TaxID]})
	}
	return cov
}

// Counterparts lists the directory companies holding the opposite role.
func Counterparts(company domain.Company, companies []domain.Company) []domain.Company {
	out := []domain.Company{}
	for _, c := range companies {
		if c.Role == company.Role.Counterpart() {
			out = append(out, c)
		}
	}
	return out
}

func newestFirst(records []domain.Negotiation) []domain.Negotiation {
	out := make([]domain.Negotiation, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func taxIDSet(cs []domain.Company) map[string]struct{} {
	m := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		m[c.TaxID] = struct{}{}
	}
	return m
}
