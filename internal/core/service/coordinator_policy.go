package service

import (
	"time"

	"github.com/berfenger/smarthq2mqtt/internal/core/port"
)

type DefaultCoordinatorPolicy struct {
	MinRetryDelay     time.Duration
	MaxRetryDelay     time.Duration
	RetryOfflineCount int
}

// RetryDelay doubles from MinRetryDelay on every attempt, capped at MaxRetryDelay.
func (p DefaultCoordinatorPolicy) RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.MinRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxRetryDelay {
			return p.MaxRetryDelay
		}
	}
	return min(delay, p.MaxRetryDelay)
}

// Online keeps entities available through the first RetryOfflineCount failed
// reconnects so short outages do not flap them.
func (p DefaultCoordinatorPolicy) Online(connected bool, retryCount int) bool {
	return connected || retryCount <= p.RetryOfflineCount
}

// ensure interface compliance
var _ port.CoordinatorPolicy = DefaultCoordinatorPolicy{}
