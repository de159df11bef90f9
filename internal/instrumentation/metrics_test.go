package instrumentation

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveDispatch("pod_list", "read", "success", 50*time.Millisecond)
	m.ObserveDispatch("pod_list", "read", "success", 70*time.Millisecond)
	m.ObserveDispatch("pod_delete", "write", "denied", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.operationsTotal.WithLabelValues("pod_list", "read", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.operationsTotal.WithLabelValues("pod_delete", "write", "denied")))
}

func TestReadOnlyDenialCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.OnReadOnlyDenial("deployment_delete")
	m.OnReadOnlyDenial("deployment_delete")

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.readonlyDenials.WithLabelValues("deployment_delete")))
}

func TestInFlightGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.OnInFlightChange(1)
	m.OnInFlightChange(1)
	m.OnInFlightChange(-1)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.inFlight))
}

func TestPoolCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.OnMiss("prod")
	m.OnConstruction("prod", nil)
	m.OnSizeChange(1)
	m.OnHit("prod")
	m.OnHit("prod")
	m.OnConstruction("dev", errors.New("unreachable"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.constructions.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.constructions.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.poolSize))
}

func TestRegistersWithoutCollision(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { NewMetrics(reg) })

	// A second instance on a fresh registry must also work.
	require.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}
