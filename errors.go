package sigv4

import (
	"errors"
	"fmt"
)

// Kind classifies why a signing operation failed.
type Kind string

// Error kinds, per the error handling design: every *Error this
// package returns carries exactly one of these. The chunked and
// eventstream sub-packages return plain errors without a Kind.
const (
	KindInvalidInput    Kind = "invalid_input"
	KindInvalidFormat   Kind = "invalid_format"
	KindStateViolation  Kind = "state_violation"
	KindMissingConfig   Kind = "missing_config"
)

// Error is the concrete error type returned by this package. Callers
// that need to branch on failure category should use errors.As to
// recover the Kind rather than comparing against a sentinel.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sigv4: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("sigv4: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinel causes wrapped by Error.Err. Callers may test for these
// with errors.Is.
var (
	ErrMissingSignature  = errors.New("missing signature")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrDuplicateHeader   = errors.New("duplicate header name after lower-casing")
	ErrInvalidTimestamp  = errors.New("timestamp does not match YYYYMMDDTHHMMSSZ")
	ErrInvalidURL        = errors.New("url has no host and no way to synthesize one")
	ErrMissingCredential = errors.New("credentials lack service/region and none could be inferred")
	ErrStreamState       = errors.New("chunk signer received a call outside its expected state")
	ErrChunkLength       = errors.New("chunk length does not match the expected length for this state")
)
