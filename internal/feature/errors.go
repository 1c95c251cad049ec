package feature

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geofeatures/internal/resilience"
)

var (
	// ErrInvalidInput is returned for requests rejected before reaching the store.
	ErrInvalidInput = eris.New("invalid input")
	// ErrNotFound is returned when the requested feature (or footprint) does not exist.
	ErrNotFound = eris.New("not found")
	// ErrStoreUnavailable is returned when the spatial store cannot be reached.
	ErrStoreUnavailable = eris.New("store unavailable")
)

// invalid wraps ErrInvalidInput with a field-specific message.
func invalid(format string, args ...any) error {
	return eris.Wrapf(ErrInvalidInput, format, args...)
}

// storeErr wraps a store failure with msg and tags connectivity failures
// as ErrStoreUnavailable.
func storeErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if resilience.IsTransient(err) {
		return &unavailableError{msg: msg, err: err}
	}
	return eris.Wrap(err, msg)
}

type unavailableError struct {
	msg string
	err error
}

func (e *unavailableError) Error() string {
	return e.msg + ": " + ErrStoreUnavailable.Error() + ": " + e.err.Error()
}

func (e *unavailableError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.err}
}

// IsInvalidInput reports whether err is an ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsStoreUnavailable reports whether err is an ErrStoreUnavailable.
func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }
