package httpserver

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/rodada/internal/domain"
	"github.com/phenrril/rodada/internal/usecase"
)

type registerReq struct {
	TaxID  string `json:"tax_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
	Role   string `json:"role"`
}

func (req registerReq) input() (usecase.RegisterInput, error) {
	in := usecase.RegisterInput{TaxID: req.TaxID, Name: req.Name, Phone: req.Phone, Email: req.Email, Secret: req.Secret}
	if req.Role != "" {
		role, ok := domain.ParseRole(req.Role)
		if !ok {
			return in, invalid("perfil desconhecido")
		}
		in.Role = role
	}
	return in, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
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
	c, err := s.companies.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaxID  string `json:"tax_id"`
		Secret string `json:"secret"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.companies.Authenticate(r.Context(), req.TaxID, req.Secret)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := s.tokens.ForCompany(*c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setCookie(w, r, sessionCookie, tok, int(s.sessionTTL.Seconds()))
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "company": c, "expires_in": int(s.sessionTTL.Seconds())})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, r, sessionCookie, "", -1)
	s.setCookie(w, r, adminCookie, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User     string `json:"user"`
		Password string `json:"password"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if s.adminPass == "" || !secureCompare(req.User, s.adminUser) || !secureCompare(req.Password, s.adminPass) {
		log.Warn().Str("user", req.User).Msg("admin login rejected")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Usuário ou senha administrativa incorretos."})
		return
	}
	tok, err := s.tokens.ForAdmin()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setCookie(w, r, adminCookie, tok, int(s.sessionTTL.Seconds()))
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "expires_in": int(s.sessionTTL.Seconds())})
}

// handlePublicSettings exposes only the flags the login and register screens need.
func (s *Server) handlePublicSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"allow_buyers":       st.AllowBuyers,
		"allow_sellers":      st.AllowSellers,
		"allow_negotiations": st.AllowNegotiations,
	})
}
