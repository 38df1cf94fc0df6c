// Package mcberrors defines the tagged error kinds shared across the
// memory/context core: repositories, adapters, and tool handlers all
// wrap failures in an *Error carrying one of a fixed set of Kinds so
// callers (and the MCP/HTTP transports) can map them consistently
// without inspecting message text.
package mcberrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping and logging.
type Kind string

// Error kinds, matching the core's error taxonomy.
const (
	KindNotFound      Kind = "not_found"
	KindDatabase      Kind = "database"
	KindVectorDB      Kind = "vector_db"
	KindMemory        Kind = "memory"
	KindIO            Kind = "io"
	KindVCS           Kind = "vcs"
	KindInvalidParams Kind = "invalid_params"
	KindInternal      Kind = "internal"
)

// Error is the core's tagged error: a Kind, a short context string, and
// an optional wrapped source error, whose text Error() includes.
type Error struct {
	Kind    Kind
	Context string
	Err     error

	// Retryable marks transient failures (HTTP 5xx, connection resets)
	// that callers may retry with backoff.
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given kind and context, with no wrapped source.
func New(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Wrap creates an Error wrapping source with the given kind and context.
// Returns nil if source is nil.
func Wrap(kind Kind, context string, source error) *Error {
	if source == nil {
		return nil
	}
	return &Error{Kind: kind, Context: context, Err: source}
}

// WrapRetryable is Wrap with Retryable set true, for transient adapter failures.
func WrapRetryable(kind Kind, context string, source error) *Error {
	e := Wrap(kind, context, source)
	if e == nil {
		return nil
	}
	e.Retryable = true
	return e
}

// NotFound builds a not_found error for the given entity/context.
func NotFound(context string) *Error { return New(KindNotFound, context) }

// InvalidParams builds an invalid_params error naming the offending field.
func InvalidParams(context string) *Error { return New(KindInvalidParams, context) }

// KindOf returns the Kind of err if it is (or wraps) an *Error, else KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether err is (or wraps) an *Error marked Retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// IsNotFound reports whether err is (or wraps) a not_found Error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
