package usecase

import (
	"context"
	"io"
	"time"

	"github.com/phenrril/rodada/internal/adapters/export"
	"github.com/phenrril/rodada/internal/domain"
	"github.com/phenrril/rodada/internal/ledger"
)

type ReportUC struct {
	Store domain.Store
	// Location renders dates in exports. Nil means UTC.
	Location *time.Location
	Now      func() time.Time
}

func (uc *ReportUC) snapshot(ctx context.Context) ([]domain.Company, []domain.Negotiation, error) {
	companies, err := uc.Store.LoadCompanies(ctx)
	if err != nil {
		return nil, nil, err
	}
	records, err := uc.Store.LoadRecords(ctx)
	if err != nil {
		return nil, nil, err
	}
	return companies, records, nil
}

func (uc *ReportUC) Coverage(ctx context.Context, taxID string) (ledger.CompanyCoverage, error) {
	companies, records, err := uc.snapshot(ctx)
	if err != nil {
		return ledger.CompanyCoverage{}, err
	}
	c, ok := findCompany(companies, domain.NormalizeTaxID(taxID))
	if !ok {
		return ledger.CompanyCoverage{}, domain.ErrNotFound
	}
	return ledger.Coverage(*c, companies, records), nil
}

func (uc *ReportUC) Summary(ctx context.Context) (ledger.EventSummary, error) {
	companies, records, err := uc.snapshot(ctx)
	if err != nil {
		return ledger.EventSummary{}, err
	}
	return ledger.Summarize(companies, records), nil
}

func (uc *ReportUC) ExportCSV(ctx context.Context, w io.Writer) error {
	companies, records, err := uc.snapshot(ctx)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, records, companies, uc.Location)
}

func (uc *ReportUC) ExportXLSX(ctx context.Context, w io.Writer) error {
	companies, records, err := uc.snapshot(ctx)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, records, companies, uc.Location)
}

// FileName uses the event's local date.
func (uc *ReportUC) FileName(ext string) string {
	now := time.Now
	if uc.Now != nil {
		now = uc.Now
	}
	loc := uc.Location
	if loc == nil {
		loc = time.UTC
	}
	return export.FileName(now().In(loc), ext)
}
