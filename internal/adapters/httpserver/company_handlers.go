package httpserver

import (
	"fmt"
	"net/http"

	"github.com/phenrril/rodada/internal/auth"
	"github.com/phenrril/rodada/internal/domain"
	"github.com/phenrril/rodada/internal/ledger"
)

func invalid(msg string) error { return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg) }

// entryReq is shared by the buyer form and the admin form. NoDeal has to be
// explicit; a missing amount alone is rejected.
type entryReq struct {
	BuyerTaxID  string        `json:"buyer_tax_id"`
	SellerTaxID string        `json:"seller_tax_id"`
	Amount      *domain.Money `json:"amount"`
	NoDeal      bool          `json:"no_deal"`
	Notes       string        `json:"notes"`
}

func (req entryReq) amount() (*domain.Money, error) {
	if req.NoDeal {
		return nil, nil
	}
	if req.Amount == nil {
		return nil, invalid(`informe um valor ou marque "Sem Negociação"`)
	}
	return req.Amount, nil
}

func (req entryReq) input() (ledger.SubmitInput, error) {
	amount, err := req.amount()
	if err != nil {
		return ledger.SubmitInput{}, err
	}
	if req.SellerTaxID == "" {
		return ledger.SubmitInput{}, invalid("selecione um fornecedor")
	}
	return ledger.SubmitInput{BuyerTaxID: req.BuyerTaxID, SellerTaxID: req.SellerTaxID, Amount: amount, Notes: req.Notes}, nil
}

type coverageResp struct {
	ledger.CompanyCoverage
	Chart []ledger.PartnerTotal `json:"chart"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, c *auth.Claims) {
	company, err := s.companies.Get(r.Context(), c.TaxID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handleMyCoverage(w http.ResponseWriter, r *http.Request, c *auth.Claims) {
	s.writeCoverage(w, r, c.TaxID)
}

func (s *Server) writeCoverage(w http.ResponseWriter, r *http.Request, taxID string) {
	cov, err := s.reports.Coverage(r.Context(), taxID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coverageResp{CompanyCoverage: cov, Chart: cov.Chart()})
}

func (s *Server) handleMySubmit(w http.ResponseWriter, r *http.Request, c *auth.Claims) {
	if c.Role != domain.RoleBuyer {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "apenas associados lançam negociações"})
		return
	}
	var req entryReq
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.BuyerTaxID = c.TaxID
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.deals.Submit(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleMySecret(w http.ResponseWriter, r *http.Request, c *auth.Claims) {
	var req struct {
		Current string `json:"current"`
		Next    string `json:"next"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.companies.ChangeSecret(r.Context(), c.TaxID, req.Current, req.Next); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
