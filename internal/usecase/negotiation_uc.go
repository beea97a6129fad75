package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/rodada/internal/domain"
	"github.com/phenrril/rodada/internal/ledger"
)

const relayTimeout = 15 * time.Second

type NegotiationUC struct {
	Store   domain.Store
	Engine  *ledger.Engine
	Relay   domain.Relay
	Feed    domain.ChangeFeed
	Metrics Recorder

	relays sync.WaitGroup
}

func normalizeEntry(in ledger.SubmitInput) ledger.SubmitInput {
	in.BuyerTaxID = domain.NormalizeTaxID(in.BuyerTaxID)
	in.SellerTaxID = domain.NormalizeTaxID(in.SellerTaxID)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}

// Submit is the buyer's own entry. It is refused while the organization has
// negotiations closed.
func (uc *NegotiationUC) Submit(ctx context.Context, in ledger.SubmitInput) (*domain.Negotiation, error) {
	st, err := uc.Store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !st.AllowNegotiations {
		recorder(uc.Metrics).IncrementRejected(rejectReason(domain.ErrNegotiationsClosed))
		return nil, domain.ErrNegotiationsClosed
	}
	return uc.create(ctx, normalizeEntry(in), st)
}

// AdminSubmit records an entry on behalf of any pair, regardless of the
// negotiations flag. Validation is the same as Submit.
func (uc *NegotiationUC) AdminSubmit(ctx context.Context, in ledger.SubmitInput) (*domain.Negotiation, error) {
	st, err := uc.Store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	return uc.create(ctx, normalizeEntry(in), st)
}

func (uc *NegotiationUC) create(ctx context.Context, in ledger.SubmitInput, st domain.Settings) (*domain.Negotiation, error) {
	companies, err := uc.Store.LoadCompanies(ctx)
	if err != nil {
		return nil, err
	}
	records, err := uc.Store.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := uc.Engine.Submit(in, companies, records)
	if err == nil {
		err = uc.Store.SaveRecord(ctx, &rec)
	}
	if err != nil {
		recorder(uc.Metrics).IncrementRejected(rejectReason(err))
		return nil, err
	}

	recorder(uc.Metrics).IncrementAccepted()
	publish(ctx, uc.Feed, domain.ChangeNegotiationSaved, rec.ID.String())
	log.Info().
		Str("record_id", rec.ID.String()).
		Str("buyer_tax_id", rec.BuyerTaxID).
		Str("seller_tax_id", rec.SellerTaxID).
		Bool("deal", rec.HasDeal()).
		Msg("negotiation recorded")
	uc.dispatch(ctx, st.RelayURL, rec, companies)
	return &rec, nil
}

// dispatch sends the record to the spreadsheet relay without holding the
// request. Failures are only logged.
func (uc *NegotiationUC) dispatch(ctx context.Context, url string, rec domain.Negotiation, companies []domain.Company) {
	if uc.Relay == nil || strings.TrimSpace(url) == "" {
		return
	}
	idx := domain.IndexCompanies(companies)
	ev := domain.RelayEvent{
		Record:     rec,
		BuyerName:  domain.NameOf(idx, rec.BuyerTaxID),
		SellerName: domain.NameOf(idx, rec.SellerTaxID),
	}
	uc.relays.Add(1)
	go func() {
		defer uc.relays.Done()
		c, cancel := context.WithTimeout(context.WithoutCancel(ctx), relayTimeout)
		defer cancel()
		err := uc.Relay.Send(c, url, ev)
		recorder(uc.Metrics).ObserveRelay(err)
		if err != nil {
			log.Warn().Err(err).Str("record_id", rec.ID.String()).Msg("relay: spreadsheet delivery failed")
		}
	}()
}

// Wait blocks until every in-flight relay delivery has finished.
func (uc *NegotiationUC) Wait() { uc.relays.Wait() }

func (uc *NegotiationUC) Correct(ctx context.Context, in ledger.CorrectInput) (*domain.Negotiation, error) {
	records, err := uc.Store.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	in.Notes = strings.TrimSpace(in.Notes)
	rec, err := uc.Engine.Correct(in, records)
	if err != nil {
		return nil, err
	}
	if err := uc.Store.SaveRecord(ctx, &rec); err != nil {
		return nil, err
	}
	publish(ctx, uc.Feed, domain.ChangeNegotiationSaved, rec.ID.String())
	return &rec, nil
}

func (uc *NegotiationUC) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.Store.DeleteRecord(ctx, id); err != nil {
		return err
	}
	publish(ctx, uc.Feed, domain.ChangeNegotiationDeleted, id.String())
	return nil
}

// List returns records newest first, filtered like the admin table.
func (uc *NegotiationUC) List(ctx context.Context, role domain.Role, term string) ([]domain.Negotiation, error) {
	companies, err := uc.Store.LoadCompanies(ctx)
	if err != nil {
		return nil, err
	}
	records, err := uc.Store.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.FilterNegotiations(records, companies, role, term), nil
}
