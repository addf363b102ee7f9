package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var policy = DefaultCoordinatorPolicy{
	MinRetryDelay:     15 * time.Second,
	MaxRetryDelay:     1800 * time.Second,
	RetryOfflineCount: 5,
}

type fakeAppliance bool

func (a fakeAppliance) Initialized() bool {
	return bool(a)
}

func TestRetryDelay(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(15*time.Second, policy.RetryDelay(1))
	assert.Equal(30*time.Second, policy.RetryDelay(2))
	assert.Equal(60*time.Second, policy.RetryDelay(3))
	assert.Equal(960*time.Second, policy.RetryDelay(7))
	assert.Equal(1800*time.Second, policy.RetryDelay(8), "capped")
	assert.Equal(1800*time.Second, policy.RetryDelay(200), "no overflow")
	assert.Equal(15*time.Second, policy.RetryDelay(0))
}

func TestRetryDelayNeverDecreases(t *testing.T) {
	prev := time.Duration(0)
	for n := 1; n < 40; n++ {
		d := policy.RetryDelay(n)
		require.GreaterOrEqual(t, d, prev)
		require.LessOrEqual(t, d, policy.MaxRetryDelay)
		prev = d
	}
}

func TestOnline(t *testing.T) {

	assert := assert.New(t)

	assert.True(policy.Online(true, 100))
	assert.True(policy.Online(false, 0))
	assert.True(policy.Online(false, 5))
	assert.False(policy.Online(false, 6))
}

func TestReadyLatchesOnce(t *testing.T) {

	assert := assert.New(t)

	s := &CoordinatorState{}
	appliances := []fakeAppliance{true, true, false}

	assert.False(TryLatchReady(s, appliances), "roster unknown")
	assert.True(s.MarkRoster())
	assert.False(s.MarkRoster(), "second roster is not first")
	assert.False(TryLatchReady(s, appliances), "one appliance pending")

	appliances[2] = true
	assert.True(TryLatchReady(s, appliances))
	assert.True(s.InitDone)
	assert.False(TryLatchReady(s, appliances), "fires once")

	s.ResetSession()
	assert.False(s.GotRoster)
	assert.False(s.InitDone)
	s.MarkRoster()
	assert.True(TryLatchReady(s, appliances), "fires again in a new session")
}

func TestEmptyRosterIsReady(t *testing.T) {
	s := &CoordinatorState{}
	s.MarkRoster()
	assert.True(t, TryLatchReady(s, []fakeAppliance{}))
}

func TestRetryCountSurvivesSessionReset(t *testing.T) {

	assert := assert.New(t)

	s := &CoordinatorState{}
	assert.Equal(1, s.BeginRetry())
	assert.Equal(2, s.BeginRetry())
	s.ResetSession()
	assert.Equal(2, s.RetryCount)
	assert.Equal(30*time.Second, policy.RetryDelay(s.RetryCount))
	s.Connected()
	assert.Equal(0, s.RetryCount)
}
