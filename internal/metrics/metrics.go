package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	NegotiationsAccepted prometheus.Counter
	NegotiationsRejected *prometheus.CounterVec
	Registrations        *prometheus.CounterVec
	RelayDeliveries      *prometheus.CounterVec
	HTTPRequests         *prometheus.CounterVec
	LiveSubscribers      prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		NegotiationsAccepted: f.NewCounter(prometheus.CounterOpts{
			Name: "rodada_negotiations_accepted_total",
			Help: "Negotiations accepted into the ledger",
		}),
		NegotiationsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rodada_negotiations_rejected_total",
			Help: "Negotiation submissions rejected, by reason",
		}, []string{"reason"}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rodada_registrations_total",
			Help: "Companies registered, by role",
		}, []string{"role"}),
		RelayDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rodada_relay_deliveries_total",
			Help: "Spreadsheet relay deliveries, by outcome",
		}, []string{"outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rodada_http_requests_total",
			Help: "HTTP requests served, by method and status",
		}, []string{"method", "code"}),
		LiveSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "rodada_live_subscribers",
			Help: "Open change-feed streams",
		}),
	}
}

func (m *Metrics) IncrementAccepted() { m.NegotiationsAccepted.Inc() }

func (m *Metrics) IncrementRejected(reason string) {
	m.NegotiationsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementRegistrations(role string) {
	m.Registrations.WithLabelValues(role).Inc()
}

func (m *Metrics) ObserveRelay(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RelayDeliveries.WithLabelValues(outcome).Inc()
}

// ObserveRequest counts one response. Methods outside the standard set are
// folded into "other" so clients cannot grow the label space.
func (m *Metrics) ObserveRequest(method string, code int) {
	m.HTTPRequests.WithLabelValues(methodLabel(method), strconv.Itoa(code)).Inc()
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	}
	return "other"
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
