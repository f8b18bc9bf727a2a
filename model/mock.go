package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/vortexion256/caremax/core"
)

type scriptItem struct {
	resp Response
	err  error
}

// MockModel is a deterministic in-memory Model for tests. Responses can be
// scripted in order (text, tool-call rounds, errors); when the script is
// exhausted it falls back to canned prompt lookups, then to an echo response.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	script    []scriptItem
	requests  []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion for an exact input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// EnqueueText scripts a final assistant text response.
func (m *MockModel) EnqueueText(text string) {
	m.enqueue(scriptItem{resp: Response{
		Content:      core.NewAssistantText(text),
		FinishReason: "stop",
	}})
}

// EnqueueToolCalls scripts an assistant response proposing the given calls.
func (m *MockModel) EnqueueToolCalls(calls ...core.FunctionCall) {
	parts := make([]core.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: c})
	}
	m.enqueue(scriptItem{resp: Response{
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: "tool_calls",
	}})
}

// EnqueueError scripts a model-side failure.
func (m *MockModel) EnqueueError(err error) {
	m.enqueue(scriptItem{err: err})
}

func (m *MockModel) enqueue(item scriptItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, item)
}

// Requests returns a copy of every request seen, in order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var item scriptItem
	var scripted bool
	if len(m.script) > 0 {
		item = m.script[0]
		m.script = m.script[1:]
		scripted = true
	}
	var canned string
	if !scripted && len(req.Contents) > 0 {
		canned = m.responses[req.Contents[len(req.Contents)-1].Text()]
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		default:
		}

		if scripted {
			if item.err != nil {
				errCh <- item.err
				return
			}
			respCh <- item.resp
			return
		}

		text := canned
		if text == "" {
			var last string
			if len(req.Contents) > 0 {
				last = req.Contents[len(req.Contents)-1].Text()
			}
			text = fmt.Sprintf("Mock response to: %s", last)
		}
		respCh <- Response{Content: core.NewAssistantText(text), FinishReason: "stop"}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
