package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMaxRetries bounds attempts per Execute call.
	DefaultMaxRetries = 3
	// DefaultTimeout is the per-attempt deadline for normal requests.
	DefaultTimeout = 30 * time.Second
	// DiscoveryTimeout is the per-attempt deadline for the heavier
	// theme-discovery prompt.
	DiscoveryTimeout = 120 * time.Second

	defaultBaseDelay = time.Second
)

// ExecOpts tunes a single Execute call.
type ExecOpts struct {
	Timeout time.Duration // per-attempt; DefaultTimeout when zero
	Backoff BackoffMode   // BackoffFixed when empty
}

// Status is a read-only snapshot of the gateway's observable state.
// External collaborators (the HTTP API) may read it; it gates nothing
// beyond refusing calls while the endpoint is unavailable.
type Status struct {
	Available  bool   `json:"available"`
	Online     bool   `json:"online"`
	Processing bool   `json:"processing"`
	LastError  string `json:"last_error,omitempty"`
}

// Gateway owns the conversation with the local model endpoint: gating,
// retry with backoff, and status flags. Wraps a single-attempt Client.
type Gateway struct {
	client     Client
	maxRetries int
	baseDelay  time.Duration
	sleep      func(time.Duration) // swapped in tests

	mu         sync.Mutex
	available  bool
	online     bool
	processing bool
	lastErr    error
}

// NewGateway wraps client with retry and gating. Availability starts
// optimistic; the prober and network observer flip it once they know better.
func NewGateway(client Client, maxRetries int) *Gateway {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Gateway{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  defaultBaseDelay,
		sleep:      time.Sleep,
		available:  true,
		online:     true,
	}
}

// SetAvailable records the latest availability probe result.
func (g *Gateway) SetAvailable(v bool) {
	g.mu.Lock()
	g.available = v
	g.mu.Unlock()
}

// SetOnline records network reachability, independent of the probe.
func (g *Gateway) SetOnline(v bool) {
	g.mu.Lock()
	g.online = v
	g.mu.Unlock()
}

// Status returns a snapshot of the gateway flags.
func (g *Gateway) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Status{
		Available:  g.available,
		Online:     g.online,
		Processing: g.processing,
	}
	if g.lastErr != nil {
		s.LastError = g.lastErr.Error()
	}
	return s
}

func (g *Gateway) ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.available && g.online
}

func (g *Gateway) setProcessing(v bool) {
	g.mu.Lock()
	g.processing = v
	g.mu.Unlock()
}

func (g *Gateway) recordErr(err error) {
	g.mu.Lock()
	g.lastErr = err
	g.mu.Unlock()
}

// Execute runs the prompt against the endpoint with up to maxRetries
// attempts. Refuses immediately, without a network call, on an empty prompt or
// while the endpoint is gated unavailable/offline. Intermediate failures
// are retried silently; the final attempt's error surfaces.
func (g *Gateway) Execute(ctx context.Context, prompt string, opts ExecOpts) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		err := &GatewayError{Kind: KindInvalidRequest, Err: errEmptyPrompt}
		g.recordErr(err)
		return "", err
	}
	if !g.ready() {
		err := &GatewayError{Kind: KindUnavailable}
		g.recordErr(err)
		return "", err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	mode := opts.Backoff
	if mode == "" {
		mode = BackoffFixed
	}

	g.setProcessing(true)
	defer g.setProcessing(false)

	var lastErr *GatewayError
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		// A canceled parent context means nobody is waiting for the answer.
		// Stop instead of burning the remaining retry budget.
		if ctxErr := ctx.Err(); ctxErr != nil {
			if lastErr == nil {
				lastErr = &GatewayError{Kind: KindNetwork, Err: ctxErr}
			}
			break
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := g.client.Complete(attemptCtx, prompt)
		cancel()

		if err == nil {
			g.recordErr(nil)
			return resp.Content, nil
		}

		lastErr = AsGatewayError(err)
		if !lastErr.Retryable() {
			break
		}
		if attempt < g.maxRetries {
			g.sleep(Delay(attempt, g.baseDelay, mode))
		}
	}

	g.recordErr(lastErr)
	return "", lastErr
}

var errEmptyPrompt = errors.New("empty prompt")
