package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch marks failures to reach a sheet source.
	ErrFetch = errors.New("sheet fetch failed")
	// ErrMalformed marks sheets that were fetched but could not be used.
	ErrMalformed = errors.New("sheet malformed")
)

// DataUnavailableError is returned by Loader.Load when a sheet could not be
// fetched or parsed after all retries. Use errors.Is with ErrFetch or
// ErrMalformed to tell the two apart.
type DataUnavailableError struct {
	Sheet    string
	Attempts int
	Err      error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("pricing data unavailable: sheet %q after %d attempt(s): %v", e.Sheet, e.Attempts, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// IsDataUnavailable reports whether err is a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var target *DataUnavailableError
	return errors.As(err, &target)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}
