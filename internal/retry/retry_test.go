package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextGeometricBackoff(t *testing.T) {
	s := New(5, time.Second, 2)

	var waits []time.Duration
	for {
		wait, ok := s.Next(0)
		if !ok {
			break
		}
		waits = append(waits, wait)
	}

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, waits)
	assert.Equal(t, 5, s.Attempt)
	assert.Equal(t, 0, s.Remaining())
}

func TestNextServerHintWins(t *testing.T) {
	s := New(3, time.Second, 2)

	wait, ok := s.Next(7 * time.Second)
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, wait)

	// Hint does not reset the geometric sequence.
	wait, ok = s.Next(0)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, wait)

	_, ok = s.Next(0)
	assert.False(t, ok)
}

func TestNewClampsArguments(t *testing.T) {
	s := New(0, time.Second, 0.5)
	assert.Equal(t, 1, s.MaxAttempts)
	assert.Equal(t, 1.0, s.Growth)

	_, ok := s.Next(0)
	assert.False(t, ok)
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleepZero(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
}
