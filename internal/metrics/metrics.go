package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Métricas de dominio (credenciales y upstreams). Viven en un paquete propio para
// que jwt, geocode y weatherkit las usen sin importar la capa HTTP.

var (
	CredentialsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherkit_credentials_issued_total",
		Help: "Credenciales emitidas por resultado (ok|config_error|sign_error|cached)",
	}, []string{"result"})

	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Requests a upstreams por servicio y status",
	}, []string{"upstream", "status"})

	UpstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Latencia de requests a upstreams",
		Buckets: prometheus.DefBuckets,
	}, []string{"upstream"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Lookups de cache por namespace y resultado (hit|miss)",
	}, []string{"namespace", "result"})
)

// Register registra las métricas de dominio en reg (o el default si nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{CredentialsIssued, UpstreamRequests, UpstreamLatency, CacheLookups} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

func RecordCredential(result string) {
	CredentialsIssued.WithLabelValues(result).Inc()
}

// RecordUpstream registra un request a upstream; status "error" si no hubo respuesta.
func RecordUpstream(upstream, status string, d time.Duration) {
	UpstreamRequests.WithLabelValues(upstream, status).Inc()
	UpstreamLatency.WithLabelValues(upstream).Observe(d.Seconds())
}

func RecordCacheLookup(namespace string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(namespace, result).Inc()
}
