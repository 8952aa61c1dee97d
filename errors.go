package sidegate

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoggedIn is returned by operations that need a session when the
	// slot is empty.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrSessionExpired is returned when the provider reports the
	// authentication has aged out. The session slot has already been
	// invalidated; the caller must log in again.
	ErrSessionExpired = errors.New("session timed out, please log in again")
	// ErrNoTeams is returned when the provider lists zero teams for the
	// account.
	ErrNoTeams = errors.New("no developer teams found for this account")
	// ErrChallengeTimeout is returned when no challenge code arrives within
	// the challenge window.
	ErrChallengeTimeout = errors.New("challenge cancelled or timed out")
	// ErrChallengeDisconnected is returned when the broker shuts down while
	// a login is still waiting for a code.
	ErrChallengeDisconnected = errors.New("challenge channel disconnected")
	// ErrChallengeNotPending is returned by code delivery when no waiter is
	// registered for the request id (already resolved, timed out, or never
	// issued).
	ErrChallengeNotPending = errors.New("no pending challenge for request")
	// ErrChallengeTicketInvalid is returned when a submitted challenge
	// ticket fails verification.
	ErrChallengeTicketInvalid = errors.New("invalid challenge ticket")
	// ErrProgressClosed is returned when a staged operation cannot emit a
	// progress event because the dispatcher has shut down. This is an
	// infrastructure failure, not a business failure.
	ErrProgressClosed = errors.New("progress dispatcher closed")
	// ErrOperationDone is returned on any transition attempted after an
	// operation reached a terminal state.
	ErrOperationDone = errors.New("operation already terminal")
	// ErrDownloadFailed is returned on a non-2xx download response.
	ErrDownloadFailed = errors.New("download failed")
	// ErrNoDevice is returned by install operations when no device is
	// selected.
	ErrNoDevice = errors.New("no device selected")
	// ErrStoreKeyNotFound is returned by Store implementations for absent
	// keys.
	ErrStoreKeyNotFound = errors.New("store key not found")
	// ErrCredentialNotFound is returned by CredentialStore implementations
	// for unknown accounts.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrEngineNotReady is returned when an Engine method is called on a
	// nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrTooManyCertificates is returned by install operations when the
	// provider rejects certificate creation because the quota is exhausted.
	ErrTooManyCertificates = errors.New("too many certificates; revoke one and retry")
)

// PortalError is a provider failure carrying the provider's numeric code
// where one exists. Code 0 means the provider gave no structured code and
// only Detail is meaningful.
type PortalError struct {
	Code   int
	Op     string
	Detail string
}

func (e *PortalError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("portal error %d during %s: %s", e.Code, e.Op, e.Detail)
	}
	return fmt.Sprintf("portal error during %s: %s", e.Op, e.Detail)
}

// StageError reports a failed stage of a named operation. It is the error
// returned by Operation.Fail and Operation.Check and should be propagated
// unchanged so callers see which stage ended the workflow.
type StageError struct {
	Operation string
	Stage     string
	Message   string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: stage %q failed: %s", e.Operation, e.Stage, e.Message)
}
