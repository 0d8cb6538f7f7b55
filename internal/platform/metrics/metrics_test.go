package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/allthepins/identity-gateway/internal/platform/metrics"
)

func TestObserveOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	m.ObserveOperation("initiate_auth", "ok", 20*time.Millisecond)
	m.ObserveOperation("initiate_auth", "ok", 30*time.Millisecond)
	m.ObserveOperation("initiate_auth", "user_not_found", 10*time.Millisecond)

	expected := `
# HELP identity_gateway_operations_total Total number of identity gateway operations by outcome
# TYPE identity_gateway_operations_total counter
identity_gateway_operations_total{operation="initiate_auth",outcome="ok"} 2
identity_gateway_operations_total{operation="initiate_auth",outcome="user_not_found"} 1
`
	if err := testutil.CollectAndCompare(m.OperationsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metric value: %v", err)
	}

	if count := testutil.CollectAndCount(m.OperationDuration); count != 1 {
		t.Errorf("expected 1 histogram series, got %d", count)
	}
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics.New(registry)

	defer func() {
		if recover() == nil {
			t.Error("expected registering twice on one registry to panic")
		}
	}()
	metrics.New(registry)
}
