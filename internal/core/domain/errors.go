package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"
)

var (
	// ErrAuthFailure is terminal, the credentials must be fixed.
	ErrAuthFailure = errors.New("authentication failure")
	// ErrConnectFailure is retryable by whoever requested the setup.
	ErrConnectFailure = errors.New("cannot connect")
	// ErrTimeoutFailure is a ConnectFailure caused by a deadline.
	ErrTimeoutFailure          = fmt.Errorf("%w: timed out", ErrConnectFailure)
	ErrTransientRequestFailure = errors.New("transient request failure")
	ErrNotConnected            = errors.New("not connected")
	ErrUnknownEntity           = errors.New("unknown entity")
	ErrShutdown                = errors.New("coordinator is shut down")
)

// ClassifySetupError maps a client error to the setup failure taxonomy. Client
// error types are not wrapped so they do not leak past this boundary.
func ClassifySetupError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAuthFailure), errors.Is(err, ErrConnectFailure):
		return err
	case errors.Is(err, smarthq.ErrAuthFailed), errors.Is(err, smarthq.ErrNotAuthenticated):
		return fmt.Errorf("%w: %v", ErrAuthFailure, err)
	case errors.Is(err, smarthq.ErrServer):
		return fmt.Errorf("%w: server error: %v", ErrConnectFailure, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeoutFailure, err)
	default:
		return fmt.Errorf("%w: unknown connection failure: %v", ErrConnectFailure, err)
	}
}
