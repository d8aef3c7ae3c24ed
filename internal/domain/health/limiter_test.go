package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiterSpacesSameHost(t *testing.T) {
	l := NewHostLimiter(0)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://a.example/1", 50*time.Millisecond))
	require.NoError(t, l.Wait(ctx, "https://A.example/2", 50*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestHostLimiterIndependentHosts(t *testing.T) {
	l := NewHostLimiter(time.Hour)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://a.example/", 0))
	require.NoError(t, l.Wait(ctx, "https://b.example/", 0))
}

func TestHostLimiterCancelled(t *testing.T) {
	l := NewHostLimiter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Wait(ctx, "https://a.example/", 0))

	cancel()
	assert.Error(t, l.Wait(ctx, "https://a.example/", 0))
}

func TestHostLimiterDisabled(t *testing.T) {
	var nilLimiter *HostLimiter
	assert.NoError(t, nilLimiter.Wait(context.Background(), "https://a.example/", time.Second))

	l := NewHostLimiter(0)
	for range 5 {
		assert.NoError(t, l.Wait(context.Background(), "https://a.example/", 0))
	}
}
