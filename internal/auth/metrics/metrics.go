// Package metrics exposes Prometheus instruments for token operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Validation outcomes recorded by ObserveValidation.
const (
	ResultValid     = "valid"
	ResultRevoked   = "revoked"
	ResultExpired   = "expired"
	ResultMalformed = "malformed"
	ResultSignature = "invalid_signature"
	ResultUnsupport = "unsupported"
)

// Metrics groups the token instruments. A nil *Metrics is valid and records
// nothing, which keeps tests and tools free of registry setup.
type Metrics struct {
	issued      *prometheus.CounterVec
	validations *prometheus.CounterVec
	revoked     prometheus.Counter
}

// New registers the instruments on reg. revokedSize backs the revoked_tokens
// gauge and is read at scrape time.
func New(reg prometheus.Registerer, revokedSize func() int) *Metrics {
	f := promauto.With(reg)

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tokengate_revoked_tokens", Help: "Revoked tokens currently remembered",
	}, func() float64 { return float64(revokedSize()) })

	return &Metrics{
		issued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_tokens_issued_total", Help: "Signed tokens issued by kind",
		}, []string{"kind"}),
		validations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_token_validations_total", Help: "Token validations by outcome",
		}, []string{"result"}),
		revoked: f.NewCounter(prometheus.CounterOpts{
			Name: "tokengate_tokens_revoked_total", Help: "Revoke calls accepted",
		}),
	}
}

func (m *Metrics) ObserveIssued(kind string) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveValidation(result string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRevoked() {
	if m == nil {
		return
	}
	m.revoked.Inc()
}
