package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSplitsOutcomes(t *testing.T) {
	m := ModuleMetrics()
	okBefore := testutil.ToFloat64(m.requests.WithLabelValues("test", "Claim", "success"))
	errBefore := testutil.ToFloat64(m.errors.WithLabelValues("test", "Claim", "Unavailable"))

	m.Observe("test", "Claim", "OK", time.Millisecond)
	m.Observe("test", "Claim", "Unavailable", time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("test", "Claim", "success")) - okBefore; got != 1 {
		t.Fatalf("success delta = %v", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("test", "Claim", "Unavailable")) - errBefore; got != 1 {
		t.Fatalf("error delta = %v", got)
	}
}

func TestRecordThrottleDefaultsLabels(t *testing.T) {
	m := ModuleMetrics()
	before := testutil.ToFloat64(m.throttles.WithLabelValues("unknown", "unspecified"))
	m.RecordThrottle(" ", "")
	if got := testutil.ToFloat64(m.throttles.WithLabelValues("unknown", "unspecified")) - before; got != 1 {
		t.Fatalf("throttle delta = %v", got)
	}
}
