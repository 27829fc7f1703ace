package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.3", nil, nil, nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestLivenessCheckIncludesRuntime(t *testing.T) {
	hs := NewHealthService("dev", nil, nil, nil)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	require.NotNil(t, status.Runtime)
	assert.NotEmpty(t, status.Runtime["go_version"])
}

func TestReadinessCheckDegradedSource(t *testing.T) {
	cl := &stubClimate{err: errors.New("timeout")}
	qt := &stubQuotes{}
	dashboard := newTestService(cl, qt)

	hs := NewHealthService("dev", dashboard, nil, nil)
	status := hs.ReadinessCheck(context.Background())

	assert.Equal(t, "ready", status.Status, "degraded sources do not fail readiness")

	climateHealth, ok := status.Services["climate"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "degraded", climateHealth.Status)
	assert.Contains(t, climateHealth.Message, "timeout")

	quotesHealth, ok := status.Services["quotes"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "ready", quotesHealth.Status)
}

func TestVersionPayload(t *testing.T) {
	hs := NewHealthService("9.9.9", nil, nil, nil)

	v := hs.Version()
	assert.Equal(t, "9.9.9", v["version"])
	assert.NotEmpty(t, v["go_version"])
	assert.NotEmpty(t, v["start_time"])
}
