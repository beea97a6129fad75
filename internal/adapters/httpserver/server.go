package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/rodada/internal/auth"
	"github.com/phenrril/rodada/internal/domain"
	"github.com/phenrril/rodada/internal/metrics"
	"github.com/phenrril/rodada/internal/usecase"
)

const (
	adminCookie   = "admin_token"
	sessionCookie = "session_token"
	maxBody       = 1 << 20
)

type Server struct {
	mux       *http.ServeMux
	companies *usecase.CompanyUC
	deals     *usecase.NegotiationUC
	reports   *usecase.ReportUC
	settings  *usecase.SettingsUC
	tokens    *auth.Tokens
	feed      domain.ChangeFeed
	metrics   *metrics.Metrics

	adminUser  string
	adminPass  string
	sessionTTL time.Duration
}

type Deps struct {
	Companies    *usecase.CompanyUC
	Negotiations *usecase.NegotiationUC
	Reports      *usecase.ReportUC
	Settings     *usecase.SettingsUC
	Tokens       *auth.Tokens
	Feed         domain.ChangeFeed
	Metrics      *metrics.Metrics
	AdminUser    string
	AdminPass    string
	SessionTTL   time.Duration
}

func New(d Deps) http.Handler {
	s := &Server{
		mux:        http.NewServeMux(),
		companies:  d.Companies,
		deals:      d.Negotiations,
		reports:    d.Reports,
		settings:   d.Settings,
		tokens:     d.Tokens,
		feed:       d.Feed,
		metrics:    d.Metrics,
		adminUser:  d.AdminUser,
		adminPass:  d.AdminPass,
		sessionTTL: d.SessionTTL,
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = 12 * time.Hour
	}
	s.routes()

	mw := []Middleware{Recovery, Logging, RequestID}
	if s.metrics != nil {
		mw = append(mw, Observe(s.metrics.ObserveRequest))
	}
	return Chain(s.mux, mw...)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.mux.HandleFunc("POST /api/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/logout", s.handleLogout)
	s.mux.HandleFunc("POST /api/admin/login", s.handleAdminLogin)
	s.mux.HandleFunc("GET /api/settings", s.handlePublicSettings)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)

	// Company session
	s.mux.HandleFunc("GET /api/me", s.company(s.handleMe))
	s.mux.HandleFunc("GET /api/me/coverage", s.company(s.handleMyCoverage))
	s.mux.HandleFunc("POST /api/me/negotiations", s.company(s.handleMySubmit))
	s.mux.HandleFunc("POST /api/me/secret", s.company(s.handleMySecret))

	// Admin
	s.mux.HandleFunc("GET /api/admin/companies", s.admin(s.handleAdminListCompanies))
	s.mux.HandleFunc("POST /api/admin/companies", s.admin(s.handleAdminCreateCompany))
	s.mux.HandleFunc("PUT /api/admin/companies/{taxID}", s.admin(s.handleAdminUpdateCompany))
	s.mux.HandleFunc("DELETE /api/admin/companies/{taxID}", s.admin(s.handleAdminDeleteCompany))
	s.mux.HandleFunc("GET /api/admin/companies/{taxID}/coverage", s.admin(s.handleAdminCoverage))
	s.mux.HandleFunc("GET /api/admin/negotiations", s.admin(s.handleAdminListNegotiations))
	s.mux.HandleFunc("POST /api/admin/negotiations", s.admin(s.handleAdminSubmit))
	s.mux.HandleFunc("PUT /api/admin/negotiations/{id}", s.admin(s.handleAdminCorrect))
	s.mux.HandleFunc("DELETE /api/admin/negotiations/{id}", s.admin(s.handleAdminDeleteNegotiation))
	s.mux.HandleFunc("GET /api/admin/summary", s.admin(s.handleAdminSummary))
	s.mux.HandleFunc("GET /api/admin/settings", s.admin(s.handleAdminGetSettings))
	s.mux.HandleFunc("PUT /api/admin/settings", s.admin(s.handleAdminPutSettings))
	s.mux.HandleFunc("GET /api/admin/export.csv", s.admin(s.handleAdminExportCSV))
	s.mux.HandleFunc("GET /api/admin/export.xlsx", s.admin(s.handleAdminExportXLSX))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: corpo vazio", domain.ErrInvalidInput)
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownParty),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrDuplicateNegotiation),
		errors.Is(err, domain.ErrCompanyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRegistrationClosed),
		errors.Is(err, domain.ErrNegotiationsClosed):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", RequestIDFrom(r.Context())).Msg("internal error")
		writeJSON(w, code, map[string]string{"error": "erro interno"})
		return
	}
	body := map[string]any{"error": err.Error()}
	var dup *domain.DuplicateNegotiationError
	if errors.As(err, &dup) {
		body["existing_id"] = dup.ExistingID
	}
	var up *domain.UnknownPartyError
	if errors.As(err, &up) {
		body["tax_id"] = up.TaxID
		body["role"] = up.Role
	}
	writeJSON(w, code, body)
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	secure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{Name: name, Value: value, Path: "/", MaxAge: maxAge, HttpOnly: true, Secure: secure, SameSite: http.SameSiteStrictMode})
}

// claims tries the bearer header first, then the given cookie.
func (s *Server) claims(r *http.Request, cookie string) (*auth.Claims, error) {
	tok := bearer(r)
	if tok == "" {
		tok = cookieValue(r, cookie)
	}
	if tok == "" {
		return nil, auth.ErrTokenInvalid
	}
	return s.tokens.Parse(tok)
}

type companyHandler func(w http.ResponseWriter, r *http.Request, c *auth.Claims)

func (s *Server) company(h companyHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.claims(r, sessionCookie)
		if err != nil || c.Admin {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "não autenticado"})
			return
		}
		h(w, r, c)
	}
}

func (s *Server) admin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.isAdminSession(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "não autenticado"})
			return
		}
		h(w, r)
	}
}

func (s *Server) isAdminSession(r *http.Request) bool {
	c, err := s.claims(r, adminCookie)
	return err == nil && c.Admin
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
