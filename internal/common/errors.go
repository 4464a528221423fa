// Package common defines shared constants and sentinel errors used across
// the device core and the development server. Callers should use errors.Is to
// match the sentinels and errors.As to extract a *RemoteRejection.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrStorageFailure = errors.New("storage failure")

	// Remote boundary errors.
	ErrNetworkFailure = errors.New("network failure")
	ErrUnauthorized   = errors.New("unauthorized")

	// Validation errors, raised before anything is written.
	ErrEmptySubmission   = errors.New("symptoms text or media is required")
	ErrMediaNeedsNetwork = errors.New("media-only submissions need a connection")
	ErrUnknownDomain     = errors.New("unknown reference domain")

	// Cache lifecycle errors.
	ErrGenerationNotReady = errors.New("cache generation not ready")
)

// RemoteRejection is returned when the remote service answered but refused the
// request. Message is the explanation the service sent back, if any.
type RemoteRejection struct {
	Status  int
	Message string
}

func (e *RemoteRejection) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote rejected request: status %d", e.Status)
	}
	return fmt.Sprintf("remote rejected request: status %d: %s", e.Status, e.Message)
}

// Is lets 401/403 rejections match ErrUnauthorized.
func (e *RemoteRejection) Is(target error) bool {
	if target == ErrUnauthorized {
		return e.Status == 401 || e.Status == 403
	}
	return false
}

// StorageError wraps err so it matches ErrStorageFailure while keeping the
// underlying driver error reachable.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFailure, err)
}

// NetworkError wraps err so it matches ErrNetworkFailure.
func NetworkError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrNetworkFailure, err)
}
