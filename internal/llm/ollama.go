package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Ollama is a single-attempt transport for a local Ollama-compatible
// endpoint. It classifies every failure into a GatewayError kind.
type Ollama struct {
	baseURL     string
	model       string
	temperature float64
	topP        float64
	client      *http.Client
}

// NewOllama creates an Ollama transport. The base URL must pass
// ValidateBaseURL; callers construct it from trusted config, so a bad URL
// here surfaces on the first Complete call instead.
func NewOllama(baseURL, model string, temperature, topP float64) *Ollama {
	return &Ollama{
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		topP:        topP,
		// No client-level timeout: per-attempt deadlines come from ctx.
		client: &http.Client{},
	}
}

// ValidateBaseURL enforces the security boundary: the model endpoint must be
// loopback (localhost, 127.0.0.1, ::1) on a non-privileged port.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	switch host {
	case "localhost", "127.0.0.1", "::1":
	default:
		return fmt.Errorf("non-loopback host %q refused", host)
	}

	portStr := u.Port()
	if portStr == "" {
		return fmt.Errorf("explicit port required")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1024 || port > 65535 {
		return fmt.Errorf("port %q outside allowed range (>= 1024)", portStr)
	}
	return nil
}

// Complete sends a prompt to the generate endpoint. Exactly one attempt.
func (o *Ollama) Complete(ctx context.Context, prompt string) (*Response, error) {
	if err := ValidateBaseURL(o.baseURL); err != nil {
		return nil, &GatewayError{Kind: KindInvalidRequest, Err: err}
	}

	reqBody := map[string]any{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": o.temperature,
			"top_p":       o.topP,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &GatewayError{Kind: KindInvalidRequest, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, &GatewayError{Kind: KindInvalidRequest, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &GatewayError{Kind: KindNetwork, Err: fmt.Errorf("model api: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Kind: KindNetwork, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &GatewayError{
			Kind:   KindServer,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("model api status %d: %s", resp.StatusCode, truncate(respBody, 200)),
		}
	}

	var result struct {
		Response      string `json:"response"`
		Model         string `json:"model"`
		TotalDuration int64  `json:"total_duration"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &GatewayError{Kind: KindResponseParsing, Err: fmt.Errorf("decode response: %w", err)}
	}
	if result.Response == "" {
		return nil, &GatewayError{Kind: KindResponseParsing, Err: fmt.Errorf("empty response field")}
	}

	return &Response{
		Content:  result.Response,
		Model:    result.Model,
		Duration: result.TotalDuration,
	}, nil
}

// probeURL checks the endpoint's /api/tags. Used by the availability prober.
func probeURL(client *http.Client, baseURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
