// Package metrics holds the Prometheus collectors exported by the ledger.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PostingsTotal counts posting attempts by outcome.
	PostingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "postings_total",
			Help:      "Journal entry posting attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// PostingDuration observes the latency of successful postings.
	PostingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ledger",
			Name:      "posting_duration_seconds",
			Help:      "Time spent committing a journal entry.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// PeriodClosesTotal counts close attempts by outcome.
	PeriodClosesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "period_closes_total",
			Help:      "Accounting period close attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// IntegrityFaultsTotal counts trial balances found out of balance and
	// balance drifts found by verification.
	IntegrityFaultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "integrity_faults_total",
			Help:      "Ledger integrity faults by kind.",
		},
		[]string{"kind"},
	)

	// HTTPRequestsTotal counts handled requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "schoolbooks",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration observes request latency per route.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "schoolbooks",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Posting and close outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Integrity fault kinds.
const (
	FaultTrialBalance = "trial_balance"
	FaultBalanceDrift = "balance_drift"
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PostingsTotal,
			PostingDuration,
			PeriodClosesTotal,
			IntegrityFaultsTotal,
			HTTPRequestsTotal,
			HTTPRequestDuration,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
