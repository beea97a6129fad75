package ledger

import (
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/rodada/internal/domain"
)

// FilterCompanies matches role (empty means any) and a case-insensitive term
// against name or tax id.
func FilterCompanies(companies []domain.Company, role domain.Role, term string) []domain.Company {
	t := strings.ToLower(strings.TrimSpace(term))
	out := []domain.Company{}
	for _, c := range companies {
		if role != "" && c.Role != role {
			continue
		}
		if t != "" && !matches(c.Name, c.TaxID, t) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FilterNegotiations returns records newest first. With a role the term is
// matched only on that side's name or tax id; without one, on either side.
func FilterNegotiations(records []domain.Negotiation, companies []domain.Company, role domain.Role, term string) []domain.Negotiation {
	t := strings.ToLower(strings.TrimSpace(term))
	idx := domain.IndexCompanies(companies)
	side := func(n domain.Negotiation, r domain.Role) bool {
		taxID := n.PartyFor(r)
		return matches(idx[taxID].Name, taxID, t)
	}
	out := []domain.Negotiation{}
	for _, n := range newestFirst(records) {
		if t != "" {
			switch role {
			case domain.RoleBuyer, domain.RoleSeller:
				if !side(n, role) {
					continue
				}
			default:
				if !side(n, domain.RoleBuyer) && !side(n, domain.RoleSeller) {
					continue
				}
			}
		}
		out = append(out, n)
	}
	return out
}

func matches(name, taxID, term string) bool {
	return strings.Contains(strings.ToLower(name), term) || strings.Contains(strings.ToLower(taxID), term)
}

// WithoutCompany drops every record referencing taxID on either side.
func WithoutCompany(records []domain.Negotiation, taxID string) []domain.Negotiation {
	out := make([]domain.Negotiation, 0, len(records))
	for _, n := range records {
		if !n.Involves(taxID) {
			out = append(out, n)
		}
	}
	return out
}

func WithoutRecord(records []domain.Negotiation, id uuid.UUID) []domain.Negotiation {
	out := make([]domain.Negotiation, 0, len(records))
	for _, n := range records {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}

// Replace returns a copy of records with rec in place of the entry sharing its id,
// or appended when no entry does.
func Replace(records []domain.Negotiation, rec domain.Negotiation) []domain.Negotiation {
	out := make([]domain.Negotiation, 0, len(records)+1)
	found := false
	for _, n := range records {
		if n.ID == rec.ID {
			out = append(out, rec)
			found = true
			continue
		}
		out = append(out, n)
	}
	if !found {
		out = append(out, rec)
	}
	return out
}
