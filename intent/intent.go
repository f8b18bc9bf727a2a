// Package intent maps the latest user utterance plus recent history to a
// coarse intent with extracted entities and suggested tools. Classification
// is model-assisted with a deterministic keyword fallback; requests for a
// human operator are detected without any model round-trip.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/logging"
	"github.com/vortexion256/caremax/model"
)

// Well-known intent names.
const (
	NameBooking      = "booking"
	NameLookup       = "lookup"
	NameQuestion     = "question"
	NameHumanRequest = "human_request"
	NameOther        = "other"
)

// Intent is the coarse classification of a user turn.
type Intent struct {
	Name           string            `json:"intent"`
	Confidence     float64           `json:"confidence"`
	Entities       map[string]string `json:"entities,omitempty"`
	SuggestedTools []string          `json:"suggested_tools,omitempty"`
}

// IsHumanRequest reports whether the user asked for a human operator.
func (i Intent) IsHumanRequest() bool { return i.Name == NameHumanRequest }

// FallbackPolicy is the deterministic classification applied when the model
// is unavailable or returns an unusable payload. The keyword lists are
// test-fixture-driven policy, not a safety surface; callers may replace them.
type FallbackPolicy struct {
	HumanPhrases    []string
	BookingKeywords []string
	LookupKeywords  []string
}

// DefaultFallbackPolicy returns the built-in keyword sets.
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		HumanPhrases: []string{
			"talk to a human", "speak to a human", "real person",
			"human operator", "talk to someone", "speak with a person",
			"connect me to staff",
		},
		BookingKeywords: []string{"book", "appointment", "schedule", "reserve", "reschedule"},
		LookupKeywords:  []string{"when is my", "my appointment", "did i book", "confirm my"},
	}
}

// Classify runs the fallback policy only.
func (p FallbackPolicy) Classify(message string) Intent {
	lower := strings.ToLower(message)
	for _, phrase := range p.HumanPhrases {
		if strings.Contains(lower, phrase) {
			return Intent{Name: NameHumanRequest, Confidence: 1.0}
		}
	}
	for _, kw := range p.LookupKeywords {
		if strings.Contains(lower, kw) {
			return Intent{Name: NameLookup, Confidence: 0.5, SuggestedTools: []string{string(core.ActionLookupAppointment)}}
		}
	}
	for _, kw := range p.BookingKeywords {
		if strings.Contains(lower, kw) {
			return Intent{Name: NameBooking, Confidence: 0.5, SuggestedTools: []string{string(core.ActionBookAppointment)}}
		}
	}
	return Intent{Name: NameOther, Confidence: 0.3}
}

// Options configures a Classifier.
type Options struct {
	Timeout  time.Duration
	Fallback FallbackPolicy
	Logger   logging.Logger
}

// Classifier performs model-assisted intent classification.
type Classifier struct {
	model model.Model
	opts  Options
}

// New creates a Classifier.
func New(m model.Model, optFns ...func(o *Options)) *Classifier {
	opts := Options{
		Timeout:  15 * time.Second,
		Fallback: DefaultFallbackPolicy(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Classifier{model: m, opts: opts}
}

const classifyInstructions = `Classify the user's latest message for a clinic assistant.
Respond with JSON only:
{"intent":"booking|lookup|question|human_request|other","confidence":0.0-1.0,"entities":{"date":"...","phone":"..."},"suggested_tools":["book_appointment"]}`

// Classify returns the intent for the message. Human requests short-circuit
// deterministically; model failures degrade to the fallback policy and are
// never surfaced as errors.
func (c *Classifier) Classify(ctx context.Context, message string, history []core.Content) Intent {
	if fb := c.opts.Fallback.Classify(message); fb.IsHumanRequest() {
		return fb
	}

	contents := make([]core.Content, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, core.NewUserText(message))

	resp, err := model.Complete(ctx, c.model, model.Request{
		Instructions: classifyInstructions,
		Contents:     contents,
	}, c.opts.Timeout)
	if err != nil {
		c.opts.Logger.Warn("intent.model.failed", "error", err.Error())
		return c.opts.Fallback.Classify(message)
	}

	parsed, err := parseIntent(resp.Content.Text())
	if err != nil {
		c.opts.Logger.Warn("intent.parse.failed", "error", err.Error())
		return c.opts.Fallback.Classify(message)
	}
	return parsed
}

func parseIntent(text string) (Intent, error) {
	var out Intent
	if err := json.Unmarshal([]byte(model.TrimFences(text)), &out); err != nil {
		return Intent{}, fmt.Errorf("intent payload: %w", err)
	}
	switch out.Name {
	case NameBooking, NameLookup, NameQuestion, NameHumanRequest, NameOther:
	default:
		return Intent{}, fmt.Errorf("unknown intent name %q", out.Name)
	}
	return out, nil
}
