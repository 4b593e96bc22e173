package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the API and the remito engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	remitos         *prometheus.CounterVec
	precios         *prometheus.CounterVec
	emails          *prometheus.CounterVec
}

// NewMetrics builds a private registry with the default collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consigna_http_requests_total",
		Help: "Cantidad de requests HTTP por ruta y status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "consigna_http_request_duration_seconds",
		Help:    "Duración de requests HTTP por ruta.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	remitos := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consigna_remitos_total",
		Help: "Operaciones sobre remitos por tipo (creado, modificado, cerrado, anulado).",
	}, []string{"operacion"})
	precios := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consigna_precios_actualizados_total",
		Help: "Cambios de precio_real del catálogo por motivo.",
	}, []string{"motivo"})
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consigna_emails_total",
		Help: "Envíos de remitos por e-mail por resultado.",
	}, []string{"resultado"})
	registry.MustRegister(requests, duration, remitos, precios, emails)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		remitos:         remitos,
		precios:         precios,
		emails:          emails,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) ObserveRequest(route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, code).Inc()
	m.requestDuration.WithLabelValues(route).Observe(seconds)
}

func (m *Metrics) Remito(operacion string) {
	if m == nil {
		return
	}
	m.remitos.WithLabelValues(operacion).Inc()
}

func (m *Metrics) PrecioActualizado(motivo string) {
	if m == nil {
		return
	}
	m.precios.WithLabelValues(motivo).Inc()
}

func (m *Metrics) Email(resultado string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(resultado).Inc()
}

// Registerer exposes the registry for tests and custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Gatherer is used by tests to inspect collected values.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}
