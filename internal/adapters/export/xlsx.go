package export

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/rodada/internal/domain"
	"github.com/phenrril/rodada/internal/ledger"
)

const (
	SheetNegotiations = "Negociacoes"
	SheetPositivation = "Positivacao"
)

// WriteXLSX writes the ledger and both positivation lists as a workbook.
func WriteXLSX(w io.Writer, records []domain.Negotiation, companies []domain.Company, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetNegotiations); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	if err := writeRow(f, SheetNegotiations, 1, toAny(header)); err != nil {
		return err
	}
	idx := domain.IndexCompanies(companies)
	for i, n := range records {
		cells := row(n, idx, loc)
		values := toAny(cells)
		// Valor goes in as a number so the sheet can sum it.
		values[5] = n.AmountOrZero().Reais()
		if err := writeRow(f, SheetNegotiations, i+2, values); err != nil {
			return err
		}
	}
	_ = f.SetRowStyle(SheetNegotiations, 1, 1, bold)
	if len(records) > 0 {
		_ = f.SetCellStyle(SheetNegotiations, "F2", cell("F", len(records)+1), money)
	}
	_ = f.SetColWidth(SheetNegotiations, "A", "A", 38)
	_ = f.SetColWidth(SheetNegotiations, "B", "E", 24)
	_ = f.SetColWidth(SheetNegotiations, "F", "G", 20)
	_ = f.SetColWidth(SheetNegotiations, "H", "H", 40)

	if _, err := f.NewSheet(SheetPositivation); err != nil {
		return err
	}
	sum := ledger.Summarize(companies, records)
	r := 1
	r, err = writePositivation(f, r, domain.RoleSeller, sum.SellerPositivation)
	if err != nil {
		return err
	}
	if _, err := writePositivation(f, r+1, domain.RoleBuyer, sum.BuyerPositivation); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetPositivation, "A", "B", 24)
	_ = f.SetColWidth(SheetPositivation, "C", "F", 14)
	_ = f.SetRowStyle(SheetPositivation, 1, 1, bold)

	return f.Write(w)
}

func writePositivation(f *excelize.File, start int, role domain.Role, list []ledger.Positivation) (int, error) {
	head := []any{role.Label(), "CNPJ", "Positivados", "Faltam", "Base", "Resumo"}
	if err := writeRow(f, SheetPositivation, start, head); err != nil {
		return start, err
	}
	r := start + 1
	for _, p := range list {
		if err := writeRow(f, SheetPositivation, r, []any{p.Name, p.TaxID, p.Covered, p.Shortfall, p.Base, p.Label}); err != nil {
			return r, err
		}
		r++
	}
	return r, nil
}

func writeRow(f *excelize.File, sheet string, r int, values []any) error {
	return f.SetSheetRow(sheet, cell("A", r), &values)
}

func cell(col string, r int) string {
	name, _ := excelize.JoinCellName(col, r)
	return name
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
