package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vortexion256/caremax/command"
	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/intent"
	"github.com/vortexion256/caremax/logging"
	"github.com/vortexion256/caremax/model"
)

// DecidePolicy is the deterministic simple-vs-multi-step fallback applied
// when the model is unavailable or its verdict is unusable. Like the intent
// fallback it is pluggable policy, not a safety surface.
type DecidePolicy struct {
	Conjunctions   []string
	MaxSimpleTools int
}

// DefaultDecidePolicy returns the built-in heuristic.
func DefaultDecidePolicy() DecidePolicy {
	return DecidePolicy{
		Conjunctions:   []string{"and then", "after that", "then book", "then schedule", "also", "as well as", "if possible"},
		MaxSimpleTools: 2,
	}
}

// MultiStep applies the fallback heuristic.
func (p DecidePolicy) MultiStep(it intent.Intent, message string) bool {
	if len(it.SuggestedTools) > p.MaxSimpleTools {
		return true
	}
	lower := strings.ToLower(message)
	for _, c := range p.Conjunctions {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

// Options configures a Planner.
type Options struct {
	Timeout time.Duration
	Policy  DecidePolicy
	Logger  logging.Logger
}

// Planner decides whether a request needs decomposition and builds plans.
type Planner struct {
	model model.Model
	opts  Options
}

// New creates a Planner.
func New(m model.Model, optFns ...func(o *Options)) *Planner {
	opts := Options{
		Timeout: 20 * time.Second,
		Policy:  DefaultDecidePolicy(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Planner{model: m, opts: opts}
}

const decideInstructions = `Decide whether the user's request needs a multi-step plan
(multiple dependent tool calls) or is a simple single-action request.
Answer with exactly one word: SIMPLE or MULTI.`

// Decide reports whether the request should be planned. Model failures fall
// back to the deterministic policy.
func (p *Planner) Decide(ctx context.Context, it intent.Intent, message string, history []core.Content) bool {
	contents := append(append([]core.Content{}, history...), core.NewUserText(message))
	resp, err := model.Complete(ctx, p.model, model.Request{
		Instructions: decideInstructions,
		Contents:     contents,
	}, p.opts.Timeout)
	if err != nil {
		p.opts.Logger.Warn("plan.decide.model_failed", "error", err.Error())
		return p.opts.Policy.MultiStep(it, message)
	}
	switch strings.ToUpper(strings.TrimSpace(resp.Content.Text())) {
	case "MULTI":
		return true
	case "SIMPLE":
		return false
	default:
		return p.opts.Policy.MultiStep(it, message)
	}
}

const createInstructions = `Decompose the user's request into an ordered plan for a clinic assistant.
Use only the available tools. List information the user has not provided in missing_info.
Respond with JSON only:
{"description":"...","missing_info":["date"],"steps":[{"description":"...","tool":"book_appointment","args":{"phone":"..."},"required_info":["date"],"requires_confirmation":true}]}`

type rawPlan struct {
	Description string    `json:"description"`
	MissingInfo []string  `json:"missing_info"`
	Steps       []rawStep `json:"steps"`
}

type rawStep struct {
	Description          string         `json:"description"`
	Tool                 string         `json:"tool"`
	Args                 map[string]any `json:"args"`
	RequiredInfo         []string       `json:"required_info"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
}

// Create asks the model to decompose the request, then applies the safety
// post-processing: every step bound to a state-changing tool requires
// confirmation regardless of what the model returned.
func (p *Planner) Create(ctx context.Context, it intent.Intent, message string, history []core.Content, tools []model.ToolDefinition) (*ExecutionPlan, error) {
	toolList := make([]string, 0, len(tools))
	for _, t := range tools {
		toolList = append(toolList, fmt.Sprintf("%s: %s", t.Function.Name, t.Function.Description))
	}
	instructions := createInstructions + "\n\nAvailable tools:\n" + strings.Join(toolList, "\n")

	contents := append(append([]core.Content{}, history...), core.NewUserText(message))
	resp, err := model.Complete(ctx, p.model, model.Request{
		Instructions: instructions,
		Contents:     contents,
	}, p.opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	var raw rawPlan
	if err := json.Unmarshal([]byte(model.TrimFences(resp.Content.Text())), &raw); err != nil {
		return nil, fmt.Errorf("plan payload: %w", err)
	}
	if len(raw.Steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}

	ep := &ExecutionPlan{
		PlanID:      core.NewID(),
		Complexity:  "multi_step",
		Description: raw.Description,
		MissingInfo: raw.MissingInfo,
		Status:      StatusPlanning,
	}
	for i, rs := range raw.Steps {
		step := &Step{
			StepNumber:           i + 1,
			Description:          rs.Description,
			ToolName:             rs.Tool,
			ToolArgs:             rs.Args,
			RequiredInfo:         rs.RequiredInfo,
			RequiresConfirmation: rs.RequiresConfirmation,
			Status:               StepPending,
		}
		// Hard safety rule: state-changing steps always gate on confirmation,
		// whether or not the model set the flag.
		if command.IsStateChanging(rs.Tool) {
			step.RequiresConfirmation = true
		}
		ep.Steps = append(ep.Steps, step)
	}

	ep.Status = initialStatus(ep)
	if ep.Status == StatusAwaitingConfirmation {
		ep.Steps[0].Status = StepAwaitingConfirmation
	}
	return ep, nil
}

// initialStatus derives the creation-time status: needs_info dominates, then
// a confirmation gate on the first step, else ready.
func initialStatus(p *ExecutionPlan) Status {
	if len(p.MissingInfo) > 0 {
		return StatusNeedsInfo
	}
	first := p.Steps[0]
	if first.RequiresConfirmation && !first.Confirmed {
		return StatusAwaitingConfirmation
	}
	return StatusReady
}
