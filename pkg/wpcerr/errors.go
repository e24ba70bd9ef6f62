// Package wpcerr defines the error taxonomy shared by every layer of the
// dual-MCU host library. Framing errors, confirm-matching failures and
// node-reported result codes are all normalized to these sentinels so
// callers can use errors.Is instead of string matching.
package wpcerr

import "errors"

// Engine-facing error kinds, per the protocol's error taxonomy.
var (
	// ErrTimeout is returned when no confirm arrives within the caller's
	// requested window.
	ErrTimeout = errors.New("wpc: timeout waiting for confirm")

	// ErrWrongCRC is returned when a confirm frame's CRC does not match.
	// The request may have already been acted on by the node; it is not
	// retried.
	ErrWrongCRC = errors.New("wpc: confirm failed CRC check")

	// ErrWrongCRCFromHost is the node's signal that it rejected the
	// request's CRC (observed as a confirm with CRC 0xFFFF). The engine
	// retries the identical request up to MaxCRCRequestRetries times
	// before surfacing ErrWrongCRC.
	ErrWrongCRCFromHost = errors.New("wpc: node reported wrong CRC from host")

	// ErrSyncError is returned after MaxConfirmAttempt mismatching frames
	// were drained without finding the expected confirm. Indicates
	// protocol desync, typically a stale confirm pile-up from a previous
	// poll.
	ErrSyncError = errors.New("wpc: protocol desync, no matching confirm found")

	// ErrWrongParam indicates a local validation failure before any byte
	// reached the wire (bad argument shape, out-of-range field, etc).
	ErrWrongParam = errors.New("wpc: invalid parameter")

	// ErrWrongBufferSize indicates a size mismatch between a buffer and
	// what it must hold (e.g. a received payload shorter than its decoded
	// shape, or a frame payload larger than MaxFramePayload).
	ErrWrongBufferSize = errors.New("wpc: buffer too small")

	// ErrGeneric is a catch-all for conditions not covered by a more
	// specific sentinel (malformed SLIP escape, buffer overflow while
	// decoding, etc).
	ErrGeneric = errors.New("wpc: generic error")

	// ErrFatal marks the watchdog's "link is dead" condition. By default
	// a fatal error terminates the process (see Node's OnFatal option);
	// ErrFatal is what gets passed to a caller-supplied OnFatal callback.
	ErrFatal = errors.New("wpc: watchdog declared the serial link dead")

	// ErrClosed is returned by any public operation invoked after the
	// node has been closed.
	ErrClosed = errors.New("wpc: node is closed")

	// ErrNotFull is returned by reassembly.TakeFull when the record is not
	// yet complete.
	ErrNotFull = errors.New("wpc: fragment record is not complete")

	// ErrDuplicateFragment is returned when a fragment is resubmitted for
	// an offset already recorded.
	ErrDuplicateFragment = errors.New("wpc: duplicate fragment offset")
)

// Result is the richer, node-level result taxonomy a confirm's numeric
// result byte is mapped to. The same numeric code means different things
// in different primitives (spec §7), so callers get a primitive-specific
// Result rather than a bare byte.
type Result uint8

const (
	ResultOK                Result = 0
	ResultInvalidValue      Result = 1
	ResultStackNotStopped   Result = 2
	ResultRoleNotSet        Result = 3
	ResultAttributeNotFound Result = 4
	ResultAccessDenied      Result = 5
	ResultNoConfig          Result = 6
	ResultAlreadySet        Result = 7
	ResultOutOfMemory       Result = 8
	ResultInvalidScratchpad Result = 9
	ResultNotInitialized    Result = 10
	ResultUnknown           Result = 255
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultInvalidValue:
		return "invalid-value"
	case ResultStackNotStopped:
		return "stack-not-stopped"
	case ResultRoleNotSet:
		return "role-not-set"
	case ResultAttributeNotFound:
		return "attribute-not-found"
	case ResultAccessDenied:
		return "access-denied"
	case ResultNoConfig:
		return "no-config"
	case ResultAlreadySet:
		return "already-set"
	case ResultOutOfMemory:
		return "out-of-memory"
	case ResultInvalidScratchpad:
		return "invalid-scratchpad"
	case ResultNotInitialized:
		return "not-initialized"
	default:
		return "unknown"
	}
}

// ResultError wraps a non-OK Result with the primitive it came from, so
// logs and %v formatting carry context a bare error code would lose.
type ResultError struct {
	Primitive string
	Code      Result
}

func (e *ResultError) Error() string {
	return "wpc: " + e.Primitive + ": " + e.Code.String()
}

// AsResultError reports whether err is a *ResultError.
func AsResultError(err error) (*ResultError, bool) {
	re, ok := err.(*ResultError)
	return re, ok
}
