package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vortexion256/caremax/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a minimal JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by the driver.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"`
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Complete drains a Generate stream and returns the final response. The
// timeout is a hard ceiling; expiry or a model-side error is returned to the
// caller, which is expected to fail into its recovery path rather than hang.
func Complete(ctx context.Context, m Model, req Request, timeout time.Duration) (Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	respCh, errCh := m.Generate(ctx, req)

	var final Response
	var sawFinal bool
	for {
		select {
		case <-ctx.Done():
			return Response{}, fmt.Errorf("model call exceeded deadline: %w", ctx.Err())
		case resp, ok := <-respCh:
			if !ok {
				if ctx.Err() != nil {
					return Response{}, fmt.Errorf("model call exceeded deadline: %w", ctx.Err())
				}
				if !sawFinal {
					return Response{}, fmt.Errorf("model produced no final response")
				}
				return final, nil
			}
			if !resp.Partial {
				final = resp
				sawFinal = true
			}
		case err, ok := <-errCh:
			if ok && err != nil {
				return Response{}, err
			}
			if !ok {
				errCh = nil
			}
		}
	}
}

// TrimFences strips markdown code fences that models often wrap around JSON
// payloads.
func TrimFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
