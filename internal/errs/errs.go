// Package errs defines the error kinds surfaced by the assistant pipeline.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Configuration covers missing or invalid credentials and connection parameters.
	Configuration Kind = "configuration"
	// Generation covers any failure of an LLM provider call.
	Generation Kind = "generation"
	// UnsafeQuery is a rejection by the SQL safety gate.
	UnsafeQuery Kind = "unsafe_query"
	// Execution covers warehouse-side failures during describe or execute.
	Execution Kind = "execution"
)

// E wraps an error with a kind, an optional provider name and a human-friendly message.
type E struct {
	Kind     Kind
	Provider string
	Message  string
	Err      error
}

func (e *E) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *E) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }
func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }

func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Provider builds a generation error attributed to an LLM provider.
func Provider(provider, msg string, err error) *E {
	return &E{Kind: Generation, Provider: provider, Message: msg, Err: err}
}

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
