// Package llm abstracts the "structured completion" capability LLM-backed
// policies depend on: a prompt plus a JSON schema in, a typed response out.
// The simulation engine never touches a vendor protocol directly; adapters
// for Anthropic and OpenAI live beside the interface, and MockCompleter
// serves tests and offline runs.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Request is a single structured-completion request. Schema is a JSON Schema
// object describing the shape the model must emit.
type Request struct {
	System string
	Prompt string
	Schema map[string]any
}

// Completer produces a structured completion and unmarshals it into out.
// Implementations must respect ctx cancellation and deadlines.
type Completer interface {
	Complete(ctx context.Context, req Request, out any) error
}

// MockCompleter is a lightweight in-memory Completer for tests and dry runs.
// Responses are raw JSON payloads matched by prompt substring, in
// registration order; unmatched prompts get the fallback (default "{}").
type MockCompleter struct {
	mu        sync.Mutex
	responses []mockResponse
	fallback  string
	err       error
	calls     int
}

type mockResponse struct {
	substring string
	payload   string
}

// NewMockCompleter constructs a MockCompleter with an empty-object fallback.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{fallback: "{}"}
}

// AddResponse registers a canned JSON payload for prompts containing substring.
func (m *MockCompleter) AddResponse(substring, payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{substring: substring, payload: payload})
}

// SetFallback sets the JSON payload returned for unmatched prompts.
func (m *MockCompleter) SetFallback(payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = payload
}

// FailWith makes every subsequent Complete call return err.
func (m *MockCompleter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of Complete invocations so far.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, req Request, out any) error {
	m.mu.Lock()
	m.calls++
	err := m.err
	payload := m.fallback
	for _, r := range m.responses {
		if r.substring != "" && strings.Contains(req.Prompt, r.substring) {
			payload = r.payload
			break
		}
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("llm: mock payload: %w", err)
	}
	return nil
}
