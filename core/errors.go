package core

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrURLParse     = errors.New("url parse error")
	ErrSrcsetFormat = errors.New("srcset format error")
	ErrHTTPStatus   = errors.New("http status error")
	ErrBase64Decode = errors.New("base64 decode error")
	ErrBase64Format = errors.New("base64 format error")
	ErrConversion   = errors.New("conversion error")
	ErrPathExists   = errors.New("path exists")
	ErrIO           = errors.New("i/o error")
)

// HTTPStatusError is returned when an image request answers with a non-2xx status.
type HTTPStatusError struct {
	URL  string
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// Is reports ErrHTTPStatus as the kind of the error.
func (e *HTTPStatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// kindError attaches a kind to a cause; both match errors.Is.
type kindError struct {
	kind error
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// Errorf wraps cause (may be nil) with a kind and a message.
func Errorf(kind error, cause error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...), err: cause}
}
