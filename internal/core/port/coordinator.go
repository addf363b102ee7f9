package port

import "time"

type CoordinatorPolicy interface {
	// RetryDelay is the wait before reconnect attempt number attempt (1 based).
	RetryDelay(attempt int) time.Duration
	// Online tells whether entities should still be shown as available.
	Online(connected bool, retryCount int) bool
}
