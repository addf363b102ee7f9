package service

// Initializable is anything that reports a completed first full update.
type Initializable interface {
	Initialized() bool
}

// CoordinatorState holds the per-session readiness bookkeeping of the coordinator.
// It is not safe for concurrent use, the owning actor serializes access.
type CoordinatorState struct {
	GotRoster         bool
	InitDone          bool
	RetryCount        int
	LastUpdateSuccess bool
}

// ResetSession clears session scoped flags. RetryCount survives, it only resets
// on a successful connect.
func (s *CoordinatorState) ResetSession() {
	s.GotRoster = false
	s.InitDone = false
	s.LastUpdateSuccess = false
}

// MarkRoster records the appliance list and reports whether it is the first one
// of the session.
func (s *CoordinatorState) MarkRoster() bool {
	first := !s.GotRoster
	s.GotRoster = true
	return first
}

// AllInitialized is vacuously true for no appliances.
func AllInitialized[T Initializable](appliances []T) bool {
	for _, a := range appliances {
		if !a.Initialized() {
			return false
		}
	}
	return true
}

// TryLatchReady returns true exactly once per session, the first time the roster
// is known and every appliance is initialized.
func TryLatchReady[T Initializable](s *CoordinatorState, appliances []T) bool {
	if s.InitDone || !s.GotRoster {
		return false
	}
	if !AllInitialized(appliances) {
		return false
	}
	s.InitDone = true
	return true
}

// BeginRetry counts a reconnect attempt.
func (s *CoordinatorState) BeginRetry() int {
	s.RetryCount++
	return s.RetryCount
}

func (s *CoordinatorState) Connected() {
	s.RetryCount = 0
}
