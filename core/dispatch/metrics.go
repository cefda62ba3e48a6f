package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	transitionsTotal *prometheus.CounterVec
	opLatency        *prometheus.HistogramVec
	commitRetries    prometheus.Counter
	notifySuccess    prometheus.Counter
	notifyFailure    prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Counter, prometheus.Counter, prometheus.Counter) {
	trans := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_transitions_total",
			Help: "Number of committed trip transitions per operation",
		},
		[]string{"op"},
	)
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_op_latency_seconds",
			Help:    "Latency of engine operations from request to committed write",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_commit_retries_total",
			Help: "Number of commits retried after a stale write",
		},
	)
	suc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_publish_success_total",
			Help: "Number of successful transition notifications",
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_publish_failure_total",
			Help: "Number of failed transition notifications",
		},
	)
	return trans, lat, retries, suc, fail
}

func init() {
	transitionsTotal, opLatency, commitRetries, notifySuccess, notifyFailure = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(transitionsTotal, opLatency, commitRetries, notifySuccess, notifyFailure)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	transitionsTotal, opLatency, commitRetries, notifySuccess, notifyFailure = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
