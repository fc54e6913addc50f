package ca

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultValid         = "valid"
	resultInvalid       = "invalid"
	resultUnknownIssuer = "unknown_issuer"
	resultMalformed     = "malformed"
)

type metrics struct {
	issued        prometheus.Counter
	rejected      prometheus.Counter
	verifications *prometheus.CounterVec
}

// newMetrics registers the CA counters with reg. A nil reg leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		issued: factory.NewCounter(prometheus.CounterOpts{
			Name: "pkider_certificates_issued_total",
			Help: "Total certificates issued from CSRs",
		}),
		rejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "pkider_csrs_rejected_total",
			Help: "Total CSRs rejected as malformed or badly signed",
		}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pkider_verifications_total",
			Help: "Total certificate verifications by result",
		}, []string{"result"}),
	}
}
