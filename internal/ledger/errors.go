package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/spendsplit/internal/storage"
)

// Sentinel errors for the failure kinds callers branch on.
var (
	// ErrUnauthenticated means no current user could be resolved. It aborts
	// the whole request.
	ErrUnauthenticated = errors.New("ledger: unauthenticated")
	// ErrNotFound means a referenced user, expense or group is missing.
	ErrNotFound = errors.New("ledger: not found")
	// ErrForbidden means the current user may not perform the operation.
	ErrForbidden = errors.New("ledger: forbidden")
)

// ValidationError rejects a write whose input breaks a rule. Nothing is
// persisted when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "ledger: invalid input: " + e.Message
	}
	return fmt.Sprintf("ledger: invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a not-found error from the engine or the store.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, storage.ErrNotFound)
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}
