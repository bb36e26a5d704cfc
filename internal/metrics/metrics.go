// Package metrics exposes the Prometheus instruments of the payment core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentOps counts processed payment operations by outcome-relevant
	// labels.
	PaymentOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_ops_total",
		Help: "Payment operations processed, by operation, merchant and payment method.",
	}, []string{"operation", "merchant", "payment_method"})

	// BuildFailures counts flow-request builder failures by flow.
	BuildFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_build_failures_total",
		Help: "Flow request builder failures, by flow.",
	}, []string{"flow"})

	// ConnectorLatency observes the externally reported connector call
	// latency attached to a dispatched envelope.
	ConnectorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "connector_external_latency_seconds",
		Help:    "Connector call latency as reported by the dispatch layer.",
		Buckets: prometheus.DefBuckets,
	}, []string{"connector"})
)
