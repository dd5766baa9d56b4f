// Package adapt error types.
//
// Every failure in this layer is fatal to the current invocation: there is
// no local recovery, and the entire invocation's effects unwind. The types
// here carry structured data (error codes, call indices, raw failure
// payloads) so callers can handle outcomes programmatically.
package adapt

import "fmt"

// Error codes used throughout the relay-adapt API.
const (
	ErrParameterMismatch     = "PARAMETER_MISMATCH"      // adapt params don't match the batch commitment
	ErrCallFailed            = "CALL_FAILED"             // an aborting sub-call failed
	ErrAccessDenied          = "ACCESS_DENIED"           // guarded entrypoint hit by a non-self caller
	ErrInsufficientResources = "INSUFFICIENT_RESOURCES"  // resource budget below the ActionData floor
	ErrUnsupportedTokenKind  = "UNSUPPORTED_TOKEN_KIND"  // non-fungible token in a shield request
	ErrInvalidBundle         = "INVALID_BUNDLE"          // malformed bundle or field bound violation
)

// ParameterMismatchError is returned when a transaction's bound adapt
// parameters don't equal the commitment over the submitted batch and
// ActionData, and the caller is not the verification-bypass identity.
type ParameterMismatchError struct {
	Index    int      // index of the offending transaction in the batch
	Expected [32]byte // commitment computed over the submitted bundle
	Got      [32]byte // adapt params bound into the transaction
}

func (e *ParameterMismatchError) Error() string {
	return fmt.Sprintf("parameter mismatch [%s]: transaction %d bound %x, batch commits to %x",
		ErrParameterMismatch, e.Index, e.Got, e.Expected)
}

// CallFailedError is returned when a must-succeed sub-call fails. Index is
// the 0-based position in the call sequence; Reason is the raw failure
// payload from the target.
type CallFailedError struct {
	Index  int
	Reason []byte
	Cause  error
}

func (e *CallFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("call failed [%s]: call %d: %v", ErrCallFailed, e.Index, e.Cause)
	}
	return fmt.Sprintf("call failed [%s]: call %d: %x", ErrCallFailed, e.Index, e.Reason)
}

func (e *CallFailedError) Unwrap() error { return e.Cause }

// AccessDeniedError is returned when a guarded entrypoint is invoked by
// anything other than the engine re-entering itself or the configured
// verification-bypass identity.
type AccessDeniedError struct {
	Caller Address
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied [%s]: caller %s is not self or bypass", ErrAccessDenied, e.Caller)
}

// InsufficientResourcesError is returned when the invocation's resource
// budget is below the ActionData minimum floor. Checked once at dispatcher
// entry, before any call runs.
type InsufficientResourcesError struct {
	Required  uint64
	Available uint64
}

func (e *InsufficientResourcesError) Error() string {
	return fmt.Sprintf("insufficient resources [%s]: need %d, have %d",
		ErrInsufficientResources, e.Required, e.Available)
}

// UnsupportedTokenKindError is returned when a shield request names a
// non-fungible token. The shield path handles fungibles only; rejecting
// outright beats mishandling.
type UnsupportedTokenKindError struct {
	Index int
	Kind  TokenKind
}

func (e *UnsupportedTokenKindError) Error() string {
	return fmt.Sprintf("unsupported token kind [%s]: request %d has kind %s",
		ErrUnsupportedTokenKind, e.Index, e.Kind)
}

// ValidationError is returned by Validate methods when a field violates a
// structural bound (empty nullifier list, oversized nonce or value).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bundle [%s]: %s %s", ErrInvalidBundle, e.Field, e.Message)
}

// ParseError is returned when ParseBundle fails to decode bundle bytes
// (wrong magic, unsupported version, or truncated payload).
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }
