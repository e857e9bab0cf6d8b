package llm

import "context"

// MockClient is a test double for the Client interface.
type MockClient struct {
	Response *Response
	Err      error
	// Script, when non-empty, is consumed one step per call and takes
	// precedence over Response/Err. Lets tests model fail-then-succeed
	// sequences.
	Script []MockStep
	Calls  []string // records prompts sent
}

// MockStep is one scripted Complete outcome.
type MockStep struct {
	Response *Response
	Err      error
}

// Complete records the call and returns the next scripted outcome, or the
// fixed Response/Err pair.
func (m *MockClient) Complete(ctx context.Context, prompt string) (*Response, error) {
	m.Calls = append(m.Calls, prompt)

	if len(m.Script) > 0 {
		step := m.Script[0]
		m.Script = m.Script[1:]
		return step.Response, step.Err
	}
	return m.Response, m.Err
}
