package builder

import "fmt"

// Class discriminates the four error categories a build attempt can fail
// with. Only Validation is recoverable mid-build (the offending
// transaction is skipped or marked invalid); the other three abort the
// build.
type Class int

const (
	// Validation marks a single transaction invalid; the build continues.
	Validation Class = iota
	// BlockValidation marks a fatal system-call failure.
	BlockValidation
	// Provider marks a fatal state-provider I/O or missing-data failure.
	Provider
	// Internal marks a fatal, unexpected EVM or builder-logic failure.
	Internal
)

func (c Class) String() string {
	switch c {
	case Validation:
		return "validation"
	case BlockValidation:
		return "block_validation"
	case Provider:
		return "provider"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with its Class, so callers can branch on
// errors.As(err, &builder.Error{}).Class without re-deriving it from the
// wrapped error's type.
type Error struct {
	Class Class
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("builder: %s: %v", e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newValidationError(err error) *Error      { return &Error{Class: Validation, Err: err} }
func newBlockValidationError(err error) *Error { return &Error{Class: BlockValidation, Err: err} }
func newProviderError(err error) *Error        { return &Error{Class: Provider, Err: err} }
func newInternalError(err error) *Error        { return &Error{Class: Internal, Err: err} }

// IsFatal reports whether an Error of this Class should abort the current
// build rather than merely skip one transaction.
func (c Class) IsFatal() bool { return c != Validation }
