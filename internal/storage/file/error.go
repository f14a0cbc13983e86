package file

import (
	"fmt"
	"io/fs"

	"github.com/go-faster/errors"
)

// Catalog read failure categories. Every *Error wraps exactly one of them.
var (
	ErrNotFound     = errors.New("catalog file not found")
	ErrAccessDenied = errors.New("catalog file not accessible")
	ErrMalformed    = errors.New("catalog file is not valid JSON")
	ErrMissingField = errors.New("required field is missing")
	ErrInvalidValue = errors.New("invalid field value")
)

// Error describes a catalog file that could not be read.
type Error struct {
	// Catalog is "product catalog" or "promotion catalog".
	Catalog string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Catalog, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// openError classifies a failure to open or read a catalog file.
func openError(catalog, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		err = fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		err = fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	return &Error{Catalog: catalog, Path: path, Err: err}
}

// decodeError classifies a failure to decode a catalog file. Anything that is
// not a field level problem is a syntax error.
func decodeError(catalog, path string, err error) error {
	if !errors.Is(err, ErrMissingField) && !errors.Is(err, ErrInvalidValue) {
		err = fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &Error{Catalog: catalog, Path: path, Err: err}
}

func missingField(field string) error {
	return errors.Wrap(ErrMissingField, field)
}

func invalidValue(field string, err error) error {
	return fmt.Errorf("%s: %w: %w", field, ErrInvalidValue, err)
}
