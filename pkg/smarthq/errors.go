package smarthq

import "errors"

var (
	// ErrAuthFailed means the cloud rejected the account credentials.
	ErrAuthFailed = errors.New("smarthq: authentication failed")
	// ErrNotAuthenticated means a request was made with a missing or expired token.
	ErrNotAuthenticated = errors.New("smarthq: not authenticated")
	// ErrServer wraps 5xx responses from the cloud endpoints.
	ErrServer       = errors.New("smarthq: server error")
	ErrNotConnected = errors.New("smarthq: not connected")
)
