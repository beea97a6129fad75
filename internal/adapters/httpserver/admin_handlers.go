package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/rodada/internal/domain"
	"github.com/phenrril/rodada/internal/ledger"
	"github.com/phenrril/rodada/internal/usecase"
)

// roleParam: empty or "all" means any role.
func roleParam(r *http.Request) (domain.Role, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("role"))
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", nil
	}
	role, ok := domain.ParseRole(raw)
	if !ok {
		return "", invalid("perfil desconhecido")
	}
	return role, nil
}

func (s *Server) handleAdminListCompanies(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.companies.List(r.Context(), role, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAdminCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.companies.AdminCreate(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleAdminUpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Phone  string `json:"phone"`
		Email  string `json:"email"`
		Secret string `json:"secret"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.companies.Update(r.Context(), r.PathValue("taxID"), usecase.UpdateInput{
		Name: req.Name, Phone: req.Phone, Email: req.Email, Secret: req.Secret,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAdminDeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := s.companies.Delete(r.Context(), r.PathValue("taxID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminCoverage(w http.ResponseWriter, r *http.Request) {
	s.writeCoverage(w, r, r.PathValue("taxID"))
}

func (s *Server) handleAdminListNegotiations(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.deals.List(r.Context(), role, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAdminSubmit(w http.ResponseWriter, r *http.Request) {
	var req entryReq
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.BuyerTaxID == "" {
		writeError(w, r, invalid("selecione um associado"))
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.deals.AdminSubmit(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func recordID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, invalid("id inválido")
	}
	return id, nil
}

func (s *Server) handleAdminCorrect(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req entryReq
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.amount()
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.deals.Correct(r.Context(), ledger.CorrectInput{ID: id, Amount: amount, Notes: req.Notes})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAdminDeleteNegotiation(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deals.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.reports.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleAdminGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAdminPutSettings(w http.ResponseWriter, r *http.Request) {
	var in usecase.SettingsInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.settings.Update(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAdminExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.reports.ExportCSV(r.Context(), &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", s.reports.FileName("csv")))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleAdminExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.reports.ExportXLSX(r.Context(), &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", s.reports.FileName("xlsx")))
	_, _ = buf.WriteTo(w)
}
