package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestInit_Disabled(t *testing.T) {
	cleanup, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	assert.NoError(t, cleanup(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestConfig_WithDefaults(t *testing.T) {
	t.Setenv("VERSION", "")
	t.Setenv("ENVIRONMENT", "staging")

	cfg := Config{SampleRatio: 3}.withDefaults()
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "staging", cfg.Environment)
	assert.NotEmpty(t, cfg.InstanceID)
	assert.Equal(t, 1.0, cfg.SampleRatio)

	cfg = Config{ServiceName: "catalog-worker", InstanceID: "pod-1", SampleRatio: 0.25}.withDefaults()
	assert.Equal(t, "catalog-worker", cfg.ServiceName)
	assert.Equal(t, "pod-1", cfg.InstanceID)
	assert.Equal(t, 0.25, cfg.SampleRatio)
}

func TestNewResource(t *testing.T) {
	cfg := Config{
		ServiceVersion: "1.4.0",
		Environment:    "test",
		InstanceID:     "pod-1",
		Storage:        "sqlite",
		LockBackend:    "redis",
	}.withDefaults()

	res, err := newResource(context.Background(), cfg)
	require.NoError(t, err)

	set := res.Set()
	for _, want := range []attribute.KeyValue{
		semconv.ServiceName(DefaultServiceName),
		semconv.ServiceVersion("1.4.0"),
		semconv.ServiceInstanceID("pod-1"),
		semconv.DeploymentEnvironment("test"),
		attribute.String("catalog.storage", "sqlite"),
		attribute.String("catalog.run_lock", "redis"),
	} {
		got, ok := set.Value(want.Key)
		require.True(t, ok, string(want.Key))
		assert.Equal(t, want.Value.Emit(), got.Emit())
	}

	res, err = newResource(context.Background(), Config{ServiceName: "x"}.withDefaults())
	require.NoError(t, err)
	_, ok := res.Set().Value("catalog.storage")
	assert.False(t, ok)
}
