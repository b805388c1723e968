// Package metrics exposes Prometheus instrumentation for the signing
// pipeline. Error kinds are recorded here so cipher-layer failures stay
// distinguishable from share-layer failures even though callers see the
// same message.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersTotal counts transfer requests by outcome ("submitted" or an
	// error kind such as "decryption_failed")
	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_transfers_total",
		Help: "Transfer pipeline runs by outcome",
	}, []string{"outcome"})

	// ProvisionsTotal counts wallet provisioning requests by outcome
	ProvisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_provisions_total",
		Help: "Wallet provisioning runs by outcome",
	}, []string{"outcome"})

	// PipelineStepDuration observes per-step latency of the transfer
	// pipeline (share fetch, decrypt, build, sign, broadcast)
	PipelineStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wallet_pipeline_step_duration_seconds",
		Help:    "Duration of individual transfer pipeline steps",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})

	// HTTPRequestDuration observes handler latency by route and status
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wallet_http_request_duration_seconds",
		Help:    "HTTP request duration by route and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)

const outcomeSubmitted = "submitted"

// RecordTransferOutcome records one finished transfer pipeline run
func RecordTransferOutcome(errKind string) {
	if errKind == "" {
		TransfersTotal.WithLabelValues(outcomeSubmitted).Inc()
		return
	}
	TransfersTotal.WithLabelValues(errKind).Inc()
}

// RecordProvisionOutcome records one finished provisioning run
func RecordProvisionOutcome(errKind string) {
	if errKind == "" {
		ProvisionsTotal.WithLabelValues("provisioned").Inc()
		return
	}
	ProvisionsTotal.WithLabelValues(errKind).Inc()
}
