// Package export renders the negotiation ledger as downloadable files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phenrril/rodada/internal/domain"
)

const dateLayout = "02/01/2006 15:04:05"

var header = []string{"ID", "Associado", "CNPJ Associado", "Fornecedor", "CNPJ Fornecedor", "Valor", "Data", "Notas"}

// FileName: rodada_negocios_2026-05-20.csv
func FileName(now time.Time, ext string) string {
	return fmt.Sprintf("rodada_negocios_%s.%s", now.Format("2006-01-02"), ext)
}

func row(n domain.Negotiation, idx map[string]domain.Company, loc *time.Location) []string {
	return []string{
		n.ID.String(),
		domain.NameOf(idx, n.BuyerTaxID),
		n.BuyerTaxID,
		domain.NameOf(idx, n.SellerTaxID),
		n.SellerTaxID,
		n.AmountOrZero().Fixed2(),
		n.CreatedAt.In(loc).Format(dateLayout),
		n.Notes,
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteCSV writes a BOM-prefixed sheet that Excel opens as UTF-8. Records keep
// the order they are given in.
func WriteCSV(w io.Writer, records []domain.Negotiation, companies []domain.Company, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	idx := domain.IndexCompanies(companies)
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "\ufeff")
	fmt.Fprint(bw, strings.Join(header, ","))
	for _, n := range records {
		cells := row(n, idx, loc)
		for i, c := range cells {
			cells[i] = quote(c)
		}
		fmt.Fprint(bw, "\n", strings.Join(cells, ","))
	}
	return bw.Flush()
}
