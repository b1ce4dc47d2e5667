package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WeiyueSUN/packlens-audio-preview/errors"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()
	require.NotNil(t, registry)
	require.NotNil(t, registry.Metrics)
	require.NotNil(t, registry.PrometheusRegistry())

	// Core metrics must be gatherable without use
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter_total",
		Help: "test counter",
	})

	err := registry.RegisterCounter("blobstore", "test_counter", counter)
	require.NoError(t, err)

	// Same key again is a duplicate
	err = registry.RegisterCounter("blobstore", "test_counter", counter)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegisterGauge(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "test gauge",
	})

	require.NoError(t, registry.RegisterGauge("window", "test_gauge", gauge))

	// Same collector under a different component key conflicts in Prometheus
	err := registry.RegisterGauge("other", "test_gauge", gauge)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegisterCounterVec(t *testing.T) {
	registry := NewMetricsRegistry()

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_vec_total",
		Help: "test counter vec",
	}, []string{"direction"})

	require.NoError(t, registry.RegisterCounterVec("pageload", "test_vec", vec))

	vec.WithLabelValues("forward").Inc()

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, fam := range families {
		if fam.GetName() == "test_vec_total" {
			found = true
		}
	}
	assert.True(t, found, "registered metric should be gatherable")
}

func TestUnregister(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unregister_test_total",
		Help: "test",
	})

	require.NoError(t, registry.RegisterCounter("session", "unregister_test", counter))

	assert.True(t, registry.Unregister("session", "unregister_test"))
	assert.False(t, registry.Unregister("session", "unregister_test"), "second unregister should fail")
	assert.False(t, registry.Unregister("session", "never_registered"))

	// Key is free again after unregister
	require.NoError(t, registry.RegisterCounter("session", "unregister_test", counter))
}
