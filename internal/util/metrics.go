package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BooksIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "books_issued_total",
		Help: "Total number of book copies issued",
	})

	IssueFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "issue_failed_total",
		Help: "Total number of failed issue attempts",
	}, []string{"reason"})

	BooksReturnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "books_returned_total",
		Help: "Total number of book copies returned",
	})

	ReturnFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "return_failed_total",
		Help: "Total number of failed return attempts",
	}, []string{"reason"})

	FinesAssessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fines_assessed_total",
		Help: "Total number of fines created for late returns",
	})

	FineAmountAssessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fine_amount_assessed_total",
		Help: "Total fine amount assessed",
	})

	FinesPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fines_paid_total",
		Help: "Total number of fines paid",
	})

	FinesWaivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fines_waived_total",
		Help: "Total number of fines waived",
	})

	OverdueTransitionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "overdue_transitions_total",
		Help: "Total number of loans transitioned to overdue by the sweep",
	})

	OverdueSweepLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "overdue_sweep_latency_seconds",
		Help:    "Latency of overdue status sweeps",
		Buckets: prometheus.DefBuckets,
	})

	IssueLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "issue_latency_seconds",
		Help:    "Latency of book issue operations",
		Buckets: prometheus.DefBuckets,
	})

	ReturnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "return_latency_seconds",
		Help:    "Latency of book return operations",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
