package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every ParseError cause matches exactly one of these.
var (
	ErrFormat = errors.New("format error")
	ErrValue  = errors.New("value error")
	ErrDomain = errors.New("domain error")
)

// ParseError reports a line that could not be turned into a Record. Callers
// skip the line and carry on.
type ParseError struct {
	Line   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return "Error parsing TSG line: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// kindError tags a cause with its error kind while keeping the lower-level
// cause reachable through errors.Is/As.
type kindError struct {
	kind  error
	msg   string
	cause error
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *kindError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

func formatErrorf(format string, args ...any) error {
	return &kindError{kind: ErrFormat, msg: fmt.Sprintf(format, args...)}
}

func valueErrorf(cause error, format string, args ...any) error {
	return &kindError{kind: ErrValue, msg: fmt.Sprintf(format, args...), cause: cause}
}

func domainErrorf(format string, args ...any) error {
	return &kindError{kind: ErrDomain, msg: fmt.Sprintf(format, args...)}
}

// ErrorKind returns a short label for err's kind, suitable for metrics.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrValue):
		return "value"
	case errors.Is(err, ErrDomain):
		return "domain"
	default:
		return "unknown"
	}
}
