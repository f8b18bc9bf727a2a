// Package plan decomposes multi-step requests into ordered, tool-bound steps
// with missing-information and confirmation gates. Confirmation on
// state-changing steps is a hard safety rule enforced in post-processing, not
// left to the model's discretion.
package plan

import (
	"github.com/vortexion256/caremax/core"
)

// Status is the lifecycle state of an ExecutionPlan.
type Status string

const (
	StatusPlanning             Status = "planning"
	StatusReady                Status = "ready"
	StatusExecuting            Status = "executing"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusNeedsInfo            Status = "needs_info"
	StatusCompleted            Status = "completed"
	StatusFailed               Status = "failed"
)

// StepStatus is the lifecycle state of a single step.
type StepStatus string

const (
	StepPending              StepStatus = "pending"
	StepInProgress           StepStatus = "in_progress"
	StepAwaitingConfirmation StepStatus = "awaiting_confirmation"
	StepCompleted            StepStatus = "completed"
	StepFailed               StepStatus = "failed"
	StepSkipped              StepStatus = "skipped"
)

// Step is one ordered, optionally tool-bound unit of a plan.
type Step struct {
	StepNumber           int              `json:"stepNumber"`
	Description          string           `json:"description"`
	ToolName             string           `json:"toolName,omitempty"`
	ToolArgs             map[string]any   `json:"toolArgs,omitempty"`
	RequiredInfo         []string         `json:"requiredInfo,omitempty"`
	RequiresConfirmation bool             `json:"requiresConfirmation"`
	Confirmed            bool             `json:"confirmed"`
	Status               StepStatus       `json:"status"`
	Result               *core.ToolResult `json:"result,omitempty"`
	Verified             bool             `json:"verified"`
}

// ExecutionPlan is an ordered decomposition of a multi-step request.
type ExecutionPlan struct {
	PlanID      string   `json:"planId"`
	Complexity  string   `json:"complexity"` // "simple" or "multi_step"
	Description string   `json:"description"`
	Steps       []*Step  `json:"steps"`
	MissingInfo []string `json:"missingInfo,omitempty"`
	Status      Status   `json:"status"`
}

// Clone returns a deep copy safe to mutate independently.
func (p *ExecutionPlan) Clone() *ExecutionPlan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.MissingInfo = append([]string(nil), p.MissingInfo...)
	cp.Steps = make([]*Step, len(p.Steps))
	for i, s := range p.Steps {
		sc := *s
		sc.RequiredInfo = append([]string(nil), s.RequiredInfo...)
		if s.Result != nil {
			res := *s.Result
			sc.Result = &res
		}
		if s.ToolArgs != nil {
			args := make(map[string]any, len(s.ToolArgs))
			for k, v := range s.ToolArgs {
				args[k] = v
			}
			sc.ToolArgs = args
		}
		cp.Steps[i] = &sc
	}
	return &cp
}

// NextStep returns the step to execute next, or nil when execution is paused
// (awaiting confirmation or missing information) or finished. Encountering an
// unconfirmed gated step parks the plan in awaiting_confirmation.
func NextStep(p *ExecutionPlan) *Step {
	if p == nil {
		return nil
	}
	switch p.Status {
	case StatusAwaitingConfirmation, StatusNeedsInfo, StatusCompleted, StatusFailed:
		return nil
	}
	for _, step := range p.Steps {
		switch step.Status {
		case StepCompleted, StepSkipped:
			continue
		case StepFailed:
			return nil
		}
		if step.RequiresConfirmation && !step.Confirmed {
			step.Status = StepAwaitingConfirmation
			p.Status = StatusAwaitingConfirmation
			return nil
		}
		step.Status = StepInProgress
		p.Status = StatusExecuting
		return step
	}
	return nil
}

// Confirm records an explicit confirmation for the numbered step. It is the
// only transition out of awaiting_confirmation.
func Confirm(p *ExecutionPlan, stepNumber int) bool {
	step := findStep(p, stepNumber)
	if step == nil {
		return false
	}
	step.Confirmed = true
	if step.Status == StepAwaitingConfirmation {
		step.Status = StepPending
	}
	if p.Status == StatusAwaitingConfirmation {
		p.Status = StatusReady
	}
	return true
}

// UpdateWithResult marks the numbered step with its execution result. Success
// promotes the following step; failure halts the remainder of the plan.
func UpdateWithResult(p *ExecutionPlan, stepNumber int, result core.ToolResult) {
	step := findStep(p, stepNumber)
	if step == nil {
		return
	}
	res := result
	step.Result = &res
	step.Verified = result.Verified

	if result.Success {
		step.Status = StepCompleted
		promoteNext(p, stepNumber)
	} else {
		step.Status = StepFailed
		for _, s := range p.Steps {
			if s.StepNumber > stepNumber && s.Status != StepCompleted {
				s.Status = StepSkipped
			}
		}
	}
	p.Status = deriveStatus(p)
}

func promoteNext(p *ExecutionPlan, after int) {
	for _, s := range p.Steps {
		if s.StepNumber <= after || s.Status != StepPending {
			continue
		}
		if s.RequiresConfirmation && !s.Confirmed {
			s.Status = StepAwaitingConfirmation
		} else {
			s.Status = StepInProgress
		}
		return
	}
}

// deriveStatus applies the precedence failed > completed >
// awaiting_confirmation > executing.
func deriveStatus(p *ExecutionPlan) Status {
	anyFailed := false
	allDone := len(p.Steps) > 0
	anyAwaiting := false
	for _, s := range p.Steps {
		switch s.Status {
		case StepFailed:
			anyFailed = true
		case StepAwaitingConfirmation:
			anyAwaiting = true
		}
		if s.Status != StepCompleted && s.Status != StepSkipped {
			allDone = false
		}
	}
	switch {
	case anyFailed:
		return StatusFailed
	case allDone:
		return StatusCompleted
	case anyAwaiting:
		return StatusAwaitingConfirmation
	default:
		return StatusExecuting
	}
}

func findStep(p *ExecutionPlan, stepNumber int) *Step {
	if p == nil {
		return nil
	}
	for _, s := range p.Steps {
		if s.StepNumber == stepNumber {
			return s
		}
	}
	return nil
}
