package content

import (
	"errors"
	"fmt"
)

// ErrDocumentNotFound reports a slug lookup with no backing document.
var ErrDocumentNotFound = errors.New("document not found")

// ErrMalformedDocument reports a document whose front matter cannot be parsed
// or whose metadata has the wrong shape.
var ErrMalformedDocument = errors.New("malformed document")

// ErrDuplicateSlug reports two documents of one collection resolving to the same slug.
var ErrDuplicateSlug = errors.New("duplicate slug")

// DocumentError ties a failure to the document it came from.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func malformed(path string, format string, args ...any) error {
	return &DocumentError{
		Path: path,
		Err:  fmt.Errorf("%w: %s", ErrMalformedDocument, fmt.Sprintf(format, args...)),
	}
}
