package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	transitionsTotal.WithLabelValues("assign").Inc()
	opLatency.WithLabelValues("assign").Observe(0.1)
	commitRetries.Inc()
	notifySuccess.Inc()
	notifyFailure.Inc()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"dispatch_transitions_total",
		"dispatch_op_latency_seconds",
		"dispatch_commit_retries_total",
		"notify_publish_success_total",
		"notify_publish_failure_total",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}
