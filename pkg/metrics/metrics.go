package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "settlex"

// Step results.
const (
	ResultAdvanced = "advanced"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	WizardStepsTotal        *prometheus.CounterVec
	EnrollmentsTotal        prometheus.Counter
	TokenChecksTotal        *prometheus.CounterVec
	EnforcementRedirects    prometheus.Counter
	ResolutionFailuresTotal prometheus.Counter
}

// New builds the collectors and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		WizardStepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twofactor",
			Name:      "wizard_steps_total",
			Help:      "Wizard step submissions by step and result.",
		}, []string{"step", "result"}),
		EnrollmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twofactor",
			Name:      "enrollments_total",
			Help:      "Devices confirmed through the setup wizard.",
		}),
		TokenChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twofactor",
			Name:      "token_checks_total",
			Help:      "One-time token verifications by result.",
		}, []string{"result"}),
		EnforcementRedirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twofactor",
			Name:      "enforcement_redirects_total",
			Help:      "Requests redirected to the setup wizard.",
		}),
		ResolutionFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twofactor",
			Name:      "route_resolution_failures_total",
			Help:      "Allow-list route names that failed to resolve.",
		}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.WizardStepsTotal,
		m.EnrollmentsTotal,
		m.TokenChecksTotal,
		m.EnforcementRedirects,
		m.ResolutionFailuresTotal,
	} {
		if err := registerCollector(m.Registry, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerCollector tolerates collectors that are already registered.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return errors.Join(ErrRegister, err)
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) WizardStep(step, result string) {
	if m == nil {
		return
	}
	m.WizardStepsTotal.WithLabelValues(step, result).Inc()
}

func (m *Metrics) Enrolled() {
	if m == nil {
		return
	}
	m.EnrollmentsTotal.Inc()
}

func (m *Metrics) TokenChecked(ok bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if ok {
		result = "accepted"
	}
	m.TokenChecksTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) EnforcementRedirect() {
	if m == nil {
		return
	}
	m.EnforcementRedirects.Inc()
}

func (m *Metrics) ResolutionFailure() {
	if m == nil {
		return
	}
	m.ResolutionFailuresTotal.Inc()
}
