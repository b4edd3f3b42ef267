// Package textgen defines the boundary to the external text-generation
// service. The analysis pipeline consumes only these interfaces; concrete
// backends live in pkg/ollama and pkg/anthropic.
package textgen

import (
	"context"
	"errors"
	"fmt"
)

// Options are the per-call generation knobs threaded through every request.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Generator produces free-form text from a prompt. Implementations are
// expected to be safe for concurrent use and to honor ctx cancellation;
// a cancelled or timed-out call returns an *Error like any other failure.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Embedder produces a vector embedding for a single text. Backends that do
// not offer embeddings simply do not implement it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ErrorKind classifies generation-service failures.
type ErrorKind int

const (
	// KindUnreachable means the service could not be contacted at all.
	KindUnreachable ErrorKind = iota
	// KindTimeout means the call exceeded its response deadline.
	KindTimeout
	// KindStatus means the service answered with a non-success status.
	KindStatus
	// KindMalformed means the response body could not be decoded.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "service_status"
	case KindMalformed:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Error is the failure type every backend returns. Status is set only for
// KindStatus errors.
type Error struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("textgen: %s (%d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("textgen: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err (or anything it wraps) is a textgen Error of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == kind
}
