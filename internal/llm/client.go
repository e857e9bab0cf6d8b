package llm

import (
	"context"
	"fmt"
)

// Client is the interface for a single model completion attempt.
// Retry, gating, and status tracking live in Gateway.
type Client interface {
	Complete(ctx context.Context, prompt string) (*Response, error)
}

// Response holds the result of a model completion.
type Response struct {
	Content  string
	Model    string
	Duration int64 // total_duration reported by the endpoint, nanoseconds
}

// ErrorKind classifies gateway failures. All kinds are non-fatal to the
// process; each call site decides fallback.
type ErrorKind string

const (
	KindUnavailable     ErrorKind = "model_unavailable"
	KindInvalidRequest  ErrorKind = "invalid_request"
	KindNetwork         ErrorKind = "network_error"
	KindResponseParsing ErrorKind = "response_parsing_error"
	KindServer          ErrorKind = "server_error"
	KindUnknown         ErrorKind = "unknown"
)

// GatewayError is the typed failure surfaced by the gateway.
type GatewayError struct {
	Kind   ErrorKind
	Status int // HTTP status for KindServer, zero otherwise
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Kind == KindServer {
		return fmt.Sprintf("gateway: %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("gateway: %s", e.Kind)
	}
	return fmt.Sprintf("gateway: %s: %v", e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt can succeed. Refusals made
// before any network call are not retried.
func (e *GatewayError) Retryable() bool {
	switch e.Kind {
	case KindUnavailable, KindInvalidRequest:
		return false
	default:
		return true
	}
}

// AsGatewayError coerces any error into a *GatewayError, wrapping foreign
// errors as KindUnknown.
func AsGatewayError(err error) *GatewayError {
	if err == nil {
		return nil
	}
	if ge, ok := err.(*GatewayError); ok {
		return ge
	}
	return &GatewayError{Kind: KindUnknown, Err: err}
}
