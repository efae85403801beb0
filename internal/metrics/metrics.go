// Package metrics exposes Prometheus collectors for the session lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors groups every counter the service updates.  A nil *Collectors is
// valid and records nothing.
type Collectors struct {
	registry       *prometheus.Registry
	logins         *prometheus.CounterVec
	evictions      prometheus.Counter
	refreshes      *prometheus.CounterVec
	gateRejections *prometheus.CounterVec
	profileCache   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_session_evictions_total",
			Help: "Sessions terminated because the same principal logged in again.",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refresh_total",
			Help: "Access token refreshes by outcome.",
		}, []string{"outcome"}),
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_gate_rejections_total",
			Help: "Protected requests rejected by the validation gate, by reason.",
		}, []string{"reason"}),
		profileCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_profile_cache_total",
			Help: "Profile cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(c.logins, c.evictions, c.refreshes, c.gateRejections, c.profileCache)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collectors) Login(outcome string) {
	if c != nil {
		c.logins.WithLabelValues(outcome).Inc()
	}
}

func (c *Collectors) Eviction() {
	if c != nil {
		c.evictions.Inc()
	}
}

func (c *Collectors) Refresh(outcome string) {
	if c != nil {
		c.refreshes.WithLabelValues(outcome).Inc()
	}
}

func (c *Collectors) GateRejection(reason string) {
	if c != nil {
		c.gateRejections.WithLabelValues(reason).Inc()
	}
}

func (c *Collectors) ProfileCache(result string) {
	if c != nil {
		c.profileCache.WithLabelValues(result).Inc()
	}
}
