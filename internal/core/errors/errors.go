// Package errors defines the error codes a build can fail with. Source
// diagnostics are the exception: they live in the source package because
// they need a position to render.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationError  ErrorCode = "VALIDATION_ERROR"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported     ErrorCode = "NOT_SUPPORTED"
	CodeImportFailed     ErrorCode = "IMPORT_FAILED"
	CodeUnresolvedSymbol ErrorCode = "UNRESOLVED_SYMBOL"
)

// Context keys.
const (
	CtxPath      = "path"
	CtxNamespace = "namespace"
	CtxSymbol    = "symbol"
	CtxPhase     = "phase"
	CtxEnum      = "enum"
	CtxBuildID   = "build_id"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

func (e *DomainError) WithContext(key string, value any) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Error renders "[CODE] message: cause {k=v ...}" with context keys sorted.
func (e *DomainError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Detail())
}

// Detail is Error without the code prefix.
func (e *DomainError) Detail() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Context) > 0 {
		b.WriteString(" {")
		for i, k := range slices.Sorted(maps.Keys(e.Context)) {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteByte('}')
	}
	return b.String()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// LogValue groups the code, message and context under one slog attribute.
func (e *DomainError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("message", e.Message),
	}
	for _, k := range slices.Sorted(maps.Keys(e.Context)) {
		attrs = append(attrs, slog.Any(k, e.Context[k]))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a key to the first DomainError in err's chain, wrapping
// err as an internal error when there is none.
func AddContext(err error, key string, value any) error {
	if de, ok := As(err); ok {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]any{key: value},
	}
}

// As returns the first DomainError in err's chain.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}

func IsCode(err error, code ErrorCode) bool {
	de, ok := As(err)
	return ok && de.Code == code
}
