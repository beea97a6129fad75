package ledger

import (
	"fmt"
	"sort"

	"github.com/phenrril/rodada/internal/domain"
)

// Positivation is one row of the admin coverage list.
type Positivation struct {
	TaxID     string `json:"tax_id"`
	Name      string `json:"name"`
	Covered   int    `json:"covered"`
	Shortfall int    `json:"shortfall"`
	Base      int    `json:"base"`
	Label     string `json:"label"`
}

type EventSummary struct {
	RecordCount int          `json:"record_count"`
	DealCount   int          `json:"deal_count"`
	TotalVolume domain.Money `json:"total_volume"`
	// AverageTicket divides by DealCount, not RecordCount.
	AverageTicket domain.Money `json:"average_ticket"`
	BuyerCount    int          `json:"buyer_count"`
	SellerCount   int          `json:"seller_count"`

	SellerPositivation []Positivation `json:"seller_positivation"`
	BuyerPositivation  []Positivation `json:"buyer_positivation"`
	SellerRanking      []PartnerTotal `json:"seller_ranking"`
	BuyerRanking       []PartnerTotal `json:"buyer_ranking"`
}

func Summarize(companies []domain.Company, records []domain.Negotiation) EventSummary {
	s := EventSummary{RecordCount: len(records)}
	for _, n := range records {
		s.TotalVolume += n.AmountOrZero()
		if n.HasDeal() {
			s.DealCount++
		}
	}
	if s.DealCount > 0 {
		s.AverageTicket = divRound(s.TotalVolume, s.DealCount)
	}
	for _, c := range companies {
		switch c.Role {
		case domain.RoleBuyer:
			s.BuyerCount++
		case domain.RoleSeller:
			s.SellerCount++
		}
	}
	s.SellerPositivation = positivation(domain.RoleSeller, companies, records)
	s.BuyerPositivation = positivation(domain.RoleBuyer, companies, records)
	s.SellerRanking = ranking(domain.RoleSeller, companies, records)
	s.BuyerRanking = ranking(domain.RoleBuyer, companies, records)
	return s
}

// positivation lists every company of role with the number of distinct
// counterparts covered, sorted by covered descending. Ties keep directory order.
func positivation(role domain.Role, companies []domain.Company, records []domain.Negotiation) []Positivation {
	other := role.Counterpart()
	base := 0
	known := map[string]struct{}{}
	for _, c := range companies {
		if c.Role == other {
			base++
			known[c.TaxID] = struct{}{}
		}
	}
	partners := map[string]map[string]struct{}{}
	for _, n := range records {
		self, partner := n.PartyFor(role), n.PartyFor(other)
		if _, ok := known[partner]; !ok {
			continue
		}
		if partners[self] == nil {
			partners[self] = map[string]struct{}{}
		}
		partners[self][partner] = struct{}{}
	}

	out := []Positivation{}
	for _, c := range companies {
		if c.Role != role {
			continue
		}
		covered := len(partners[c.TaxID])
		shortfall := base - covered
		if shortfall < 0 {
			shortfall = 0
		}
		out = append(out, Positivation{
			TaxID:     c.TaxID,
			Name:      c.Name,
			Covered:   covered,
			Shortfall: shortfall,
			Base:      base,
			Label:     fmt.Sprintf("%d [Faltam %d]", covered, shortfall),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Covered > out[j].Covered })
	return out
}

// ranking sums amounts per company of role, keeping only positive totals.
func ranking(role domain.Role, companies []domain.Company, records []domain.Negotiation) []PartnerTotal {
	totals := map[string]domain.Money{}
	for _, n := range records {
		totals[n.PartyFor(role)] += n.AmountOrZero()
	}
	out := []PartnerTotal{}
	for _, c := range companies {
		if c.Role != role || totals[c.TaxID] <= 0 {
			continue
		}
		out = append(out, PartnerTotal{TaxID: c.TaxID, Name: c.Name, Total: totals[c.TaxID]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

func divRound(total domain.Money, n int) domain.Money {
	d := domain.Money(n)
	return (total + d/2) / d
}
