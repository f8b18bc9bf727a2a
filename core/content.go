package core

import "strings"

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// FunctionCall describes a tool invocation proposed by the model. Arguments
// is the raw serialized payload; it is only trusted after command.Parse has
// validated it against the tool's schema.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
}

func (FunctionCallPart) isPart() {}

// FunctionResponse carries the outcome of an executed tool call back to the
// model. Response holds the ToolResult (or any JSON-serializable shape).
type FunctionResponse struct {
	ID       string      `json:"id,omitempty"`
	Name     string      `json:"name"`
	Response interface{} `json:"response,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
}

func (FunctionResponsePart) isPart() {}

// Content holds a conversation role plus ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Text concatenates all text parts of the content.
func (c Content) Text() string {
	var b strings.Builder
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// FunctionCalls returns all function call parts in order.
func (c Content) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range c.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// NewUserText builds user-authored text content.
func NewUserText(text string) Content {
	return Content{Role: "user", Parts: []Part{TextPart{Text: text}}}
}

// NewAssistantText builds assistant-authored text content.
func NewAssistantText(text string) Content {
	return Content{Role: "assistant", Parts: []Part{TextPart{Text: text}}}
}

// NewSystemText builds system-authored text content.
func NewSystemText(text string) Content {
	return Content{Role: "system", Parts: []Part{TextPart{Text: text}}}
}

// NewToolResponse builds tool-role content carrying one function response.
// The id must echo a function call the model actually made; providers reject
// or drop responses that answer no prior call.
func NewToolResponse(id, name string, response interface{}, errMsg string) Content {
	return Content{Role: "tool", Parts: []Part{FunctionResponsePart{
		FunctionResponse: FunctionResponse{ID: id, Name: name, Response: response, Error: errMsg},
	}}}
}
