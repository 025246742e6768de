package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LoansCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "khaata_loans_created_total",
			Help: "Loans issued",
		},
	)

	Repayments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khaata_repayments_total",
			Help: "Repayment attempts by result",
		},
		[]string{"result"}, // applied|rejected|not_found|conflict|error
	)

	RepaidAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "khaata_repaid_amount_total",
			Help: "Sum of applied repayment amounts",
		},
	)

	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khaata_loan_status_transitions_total",
			Help: "Persisted loan status changes",
		},
		[]string{"from", "to"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "khaata_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		LoansCreated,
		Repayments,
		RepaidAmount,
		StatusTransitions,
		HTTPRequestDuration,
	)
}
