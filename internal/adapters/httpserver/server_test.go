package httpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/rodada/internal/adapters/notify"
	"github.com/phenrril/rodada/internal/adapters/repo/memory"
	"github.com/phenrril/rodada/internal/auth"
	"github.com/phenrril/rodada/internal/ledger"
	"github.com/phenrril/rodada/internal/metrics"
	"github.com/phenrril/rodada/internal/usecase"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	hub     *notify.Hub
}

func newAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore()
	hub := notify.NewHub()
	m := metrics.New()
	h := New(Deps{
		Companies:    &usecase.CompanyUC{Store: store, Feed: hub, Metrics: m},
		Negotiations: &usecase.NegotiationUC{Store: store, Engine: ledger.New(), Feed: hub, Metrics: m},
		Reports:      &usecase.ReportUC{Store: store, Location: time.UTC},
		Settings:     &usecase.SettingsUC{Store: store, Feed: hub},
		Tokens:       auth.NewTokens("test", time.Hour),
		Feed:         hub,
		Metrics:      m,
		AdminUser:    "admin",
		AdminPass:    "admin123",
	})
	return &testAPI{t: t, handler: h, hub: hub}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (a *testAPI) adminToken() string {
	a.t.Helper()
	rec := a.do("POST", "/api/admin/login", "", map[string]string{"user": "admin", "password": "admin123"})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct{ Token string }
	decodeBody(a.t, rec, &out)
	return out.Token
}

func (a *testAPI) register(taxID, name, role string) {
	a.t.Helper()
	rec := a.do("POST", "/api/register", "", map[string]string{
		"tax_id": taxID, "name": name, "phone": "11 9999", "email": name + "@rodada.com", "secret": "senha123", "role": role,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (a *testAPI) login(taxID string) string {
	a.t.Helper()
	rec := a.do("POST", "/api/login", "", map[string]string{"tax_id": taxID, "secret": "senha123"})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct{ Token string }
	decodeBody(a.t, rec, &out)
	return out.Token
}

func (a *testAPI) seed() (buyer, seller string) {
	a.register("11.111.111/0001-01", "alfa", "associado")
	a.register("22222222000102", "beta", "buyer")
	a.register("99999999000199", "xis", "fornecedor")
	a.register("88888888000188", "ypsilon", "seller")
	return a.login("11111111000101"), a.login("99999999000199")
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)
	rec := a.do("GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestBuyerFlow(t *testing.T) {
	a := newAPI(t)
	buyer, _ := a.seed()

	rec := a.do("POST", "/api/me/negotiations", buyer, map[string]any{"seller_tax_id": "99999999000199", "amount": "R$ 1.500,00", "notes": "fechado"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}
	decodeBody(t, rec, &created)
	assert.InDelta(t, 1500.0, created.Amount, 0.001)

	rec = a.do("POST", "/api/me/negotiations", buyer, map[string]any{"seller_tax_id": "99999999000199", "no_deal": true})
	require.Equal(t, http.StatusConflict, rec.Code)
	var dup map[string]any
	decodeBody(t, rec, &dup)
	assert.Equal(t, created.ID, dup["existing_id"])

	rec = a.do("POST", "/api/me/negotiations", buyer, map[string]any{"seller_tax_id": "88888888000188"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "amount or no_deal is required")

	rec = a.do("POST", "/api/me/negotiations", buyer, map[string]any{"seller_tax_id": "88888888000188", "amount": -5})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	for _, huge := range []any{5e16, 1e20, "R$ 2.000.000.000,00"} {
		rec = a.do("POST", "/api/me/negotiations", buyer, map[string]any{"seller_tax_id": "88888888000188", "amount": huge})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, huge)
	}

	rec = a.do("POST", "/api/me/negotiations", buyer, map[string]any{"seller_tax_id": "00000000000000", "no_deal": true})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do("GET", "/api/me/coverage", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cov struct {
		Negotiated  []struct{ TaxID string `json:"tax_id"` } `json:"negotiated"`
		Pending     []struct{ TaxID string `json:"tax_id"` } `json:"pending"`
		TotalAmount float64                                 `json:"total_amount"`
		Chart       []struct{ Name string }                 `json:"chart"`
		History     []json.RawMessage                       `json:"history"`
	}
	decodeBody(t, rec, &cov)
	require.Len(t, cov.Negotiated, 1)
	assert.Equal(t, "99999999000199", cov.Negotiated[0].TaxID)
	require.Len(t, cov.Pending, 1)
	assert.Equal(t, "88888888000188", cov.Pending[0].TaxID)
	assert.InDelta(t, 1500.0, cov.TotalAmount, 0.001)
	require.Len(t, cov.Chart, 1)
	assert.Equal(t, "XIS", cov.Chart[0].Name)
	assert.Len(t, cov.History, 1)
}

func TestSellerCannotSubmit(t *testing.T) {
	a := newAPI(t)
	_, seller := a.seed()
	rec := a.do("POST", "/api/me/negotiations", seller, map[string]any{"seller_tax_id": "88888888000188", "no_deal": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do("GET", "/api/me/coverage", seller, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginErrors(t *testing.T) {
	a := newAPI(t)
	a.seed()
	rec := a.do("POST", "/api/login", "", map[string]string{"tax_id": "11111111000101", "secret": "errada"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = a.do("POST", "/api/admin/login", "", map[string]string{"user": "admin", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = a.do("GET", "/api/me/coverage", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = a.do("POST", "/api/register", "", map[string]string{"tax_id": "11111111000101", "name": "x", "phone": "1", "email": "e", "secret": "senha123", "role": "buyer"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = a.do("POST", "/api/register", "", map[string]string{"tax_id": "3", "name": "x", "role": "guest"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChangeSecret(t *testing.T) {
	a := newAPI(t)
	buyer, _ := a.seed()
	rec := a.do("POST", "/api/me/secret", buyer, map[string]string{"current": "wrong", "next": "nova1234"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = a.do("POST", "/api/me/secret", buyer, map[string]string{"current": "senha123", "next": "nova1234"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do("POST", "/api/login", "", map[string]string{"tax_id": "11111111000101", "secret": "nova1234"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRequiresToken(t *testing.T) {
	a := newAPI(t)
	buyer, _ := a.seed()
	assert.Equal(t, http.StatusUnauthorized, a.do("GET", "/api/admin/summary", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do("GET", "/api/admin/summary", buyer, nil).Code)

	req := httptest.NewRequest("GET", "/api/admin/summary", nil)
	req.AddCookie(&http.Cookie{Name: adminCookie, Value: a.adminToken()})
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminCompaniesAndCascade(t *testing.T) {
	a := newAPI(t)
	a.seed()
	admin := a.adminToken()

	rec := a.do("POST", "/api/admin/companies", admin, map[string]string{"tax_id": "77777777000177", "name": "zeta", "role": "seller"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do("GET", "/api/admin/companies?role=seller", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sellers []map[string]any
	decodeBody(t, rec, &sellers)
	assert.Len(t, sellers, 3)
	for _, s := range sellers {
		assert.NotContains(t, s, "SecretHash")
	}

	rec = a.do("GET", "/api/admin/companies?role=martian", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do("PUT", "/api/admin/companies/77777777000177", admin, map[string]string{"name": "zeta ltda"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated map[string]any
	decodeBody(t, rec, &updated)
	assert.Equal(t, "ZETA LTDA", updated["name"])
	assert.Equal(t, "seller", updated["role"])

	for _, seller := range []string{"99999999000199", "77777777000177"} {
		rec = a.do("POST", "/api/admin/negotiations", admin, map[string]any{"buyer_tax_id": "11111111000101", "seller_tax_id": seller, "amount": 100})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = a.do("DELETE", "/api/admin/companies/77777777000177", admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do("DELETE", "/api/admin/companies/77777777000177", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do("GET", "/api/admin/negotiations", admin, nil)
	var list []map[string]any
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "99999999000199", list[0]["seller_tax_id"])

	rec = a.do("GET", "/api/admin/companies/11111111000101/coverage", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do("GET", "/api/admin/companies/404/coverage", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminNegotiations(t *testing.T) {
	a := newAPI(t)
	a.seed()
	admin := a.adminToken()

	rec := a.do("POST", "/api/admin/negotiations", admin, map[string]any{"buyer_tax_id": "22222222000102", "seller_tax_id": "88888888000188", "no_deal": true})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct{ ID string }
	decodeBody(t, rec, &created)

	rec = a.do("PUT", "/api/admin/negotiations/"+created.ID, admin, map[string]any{"amount": "250,50", "notes": "corrigido"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var corrected map[string]any
	decodeBody(t, rec, &corrected)
	assert.InDelta(t, 250.5, corrected["amount"], 0.001)

	rec = a.do("PUT", "/api/admin/negotiations/"+created.ID, admin, map[string]any{"amount": 0})
	assert.Equal(t, http.StatusOK, rec.Code, "zero is a valid correction")

	rec = a.do("PUT", "/api/admin/negotiations/not-a-uuid", admin, map[string]any{"no_deal": true})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do("GET", "/api/admin/negotiations?role=seller&q=ypsi", admin, nil)
	var list []map[string]any
	decodeBody(t, rec, &list)
	assert.Len(t, list, 1)

	rec = a.do("DELETE", "/api/admin/negotiations/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do("DELETE", "/api/admin/negotiations/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsGates(t *testing.T) {
	a := newAPI(t)
	buyer, _ := a.seed()
	admin := a.adminToken()

	rec := a.do("PUT", "/api/admin/settings", admin, map[string]any{"allow_buyers": false, "allow_negotiations": false, "relay_url": "https://example.com/hook"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do("GET", "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pub map[string]any
	decodeBody(t, rec, &pub)
	assert.Equal(t, false, pub["allow_buyers"])
	assert.Equal(t, true, pub["allow_sellers"])
	assert.NotContains(t, pub, "relay_url")

	rec = a.do("POST", "/api/register", "", map[string]string{"tax_id": "5", "name": "n", "phone": "1", "email": "e", "secret": "senha123", "role": "buyer"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do("POST", "/api/me/negotiations", buyer, map[string]any{"seller_tax_id": "99999999000199", "no_deal": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do("GET", "/api/admin/settings", admin, nil)
	var st map[string]any
	decodeBody(t, rec, &st)
	assert.Equal(t, "https://example.com/hook", st["relay_url"])
}

func TestSummaryAndExports(t *testing.T) {
	a := newAPI(t)
	buyer, _ := a.seed()
	admin := a.adminToken()
	require.Equal(t, http.StatusCreated, a.do("POST", "/api/me/negotiations", buyer, map[string]any{"seller_tax_id": "99999999000199", "amount": 300}).Code)
	require.Equal(t, http.StatusCreated, a.do("POST", "/api/me/negotiations", buyer, map[string]any{"seller_tax_id": "88888888000188", "no_deal": true}).Code)

	rec := a.do("GET", "/api/admin/summary", admin, nil)
	var sum map[string]any
	decodeBody(t, rec, &sum)
	assert.EqualValues(t, 2, sum["record_count"])
	assert.EqualValues(t, 1, sum["deal_count"])
	assert.InDelta(t, 300.0, sum["average_ticket"], 0.001)

	rec = a.do("GET", "/api/admin/export.csv", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rodada_negocios_")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, rec.Body.String(), `"300.00"`)
	assert.Contains(t, rec.Body.String(), `"0.00"`)

	rec = a.do("GET", "/api/admin/export.xlsx", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip")
}

func TestMetricsEndpoint(t *testing.T) {
	a := newAPI(t)
	a.do("GET", "/healthz", "", nil)
	rec := a.do("GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rodada_http_requests_total{code="200",method="GET"}`)
}

func TestEventsStream(t *testing.T) {
	a := newAPI(t)
	a.seed()
	admin := a.adminToken()
	srv := httptest.NewServer(a.handler)
	defer srv.Close()

	assert.Equal(t, http.StatusUnauthorized, a.do("GET", "/api/events", "", nil).Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+admin)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(res.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()
	require.Eventually(t, func() bool { return a.hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	rec := a.do("DELETE", "/api/admin/companies/88888888000188", admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case l, ok := <-lines:
			require.True(t, ok, "stream closed early")
			if strings.HasPrefix(l, "event: ") {
				assert.Equal(t, "event: company.deleted", l)
				return
			}
		case <-deadline:
			t.Fatal("no event received")
		}
	}
}
