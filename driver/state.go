package driver

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
	"github.com/vortexion256/caremax/plan"
	"github.com/vortexion256/caremax/session"
)

// state enumerates the turn state machine. Transitions only move forward;
// every path terminates in stateDone with a non-empty reply.
type state int

const (
	stateIntent state = iota
	statePlanDecision
	stateAwaitingModel
	stateExecutingTools
	stateExecutingPlan
	stateFormatting
	stateRecovering
	stateValidating
	stateDone
)

// turn carries the mutable state of one conversation turn through the
// machine.
type turn struct {
	tenantID   string
	message    string
	sess       *session.Session
	log        *core.ExecutionLog
	logger     *logging.AssistantLogger
	it         intent.Intent
	activePlan *plan.ExecutionPlan
	contents   []core.Content
	tools      []model.ToolDefinition
	lastResp   model.Response
	modelErr   error
	rounds     int
	reply      Reply
}

func (d *Driver) step(ctx context.Context, st state, t *turn) state {
	switch st {
	case stateIntent:
		return d.runIntent(ctx, t)
	case statePlanDecision:
		return d.runPlanDecision(ctx, t)
	case stateAwaitingModel:
		return d.runModel(ctx, t)
	case stateExecutingTools:
		return d.runToolRound(ctx, t)
	case stateExecutingPlan:
		return d.runPlanSteps(ctx, t)
	case stateFormatting:
		return d.runFormat(t)
	case stateRecovering:
		return d.runRecovery(ctx, t)
	case stateValidating:
		return d.runValidate(t)
	default:
		return stateDone
	}
}

// runIntent classifies the message. A human request exits the turn
// immediately with the fixed handoff message.
func (d *Driver) runIntent(ctx context.Context, t *turn) state {
	t.it = d.classifier.Classify(ctx, t.message, t.sess.Recent(d.opts.ContextTurns))
	if t.it.IsHumanRequest() {
		t.reply = Reply{Text: HandoffMessage, Handoff: true}
		return stateDone
	}
	return statePlanDecision
}

// runPlanDecision resumes a pending plan from a previous turn or asks the
// planner whether this request needs decomposition. A plan that lacks
// information exits with a clarification question before any tool executes.
func (d *Driver) runPlanDecision(ctx context.Context, t *turn) state {
	if next, done := d.resumePendingPlan(t); done {
		return next
	}

	history := t.sess.Recent(d.opts.ContextTurns)
	if !d.planner.Decide(ctx, t.it, t.message, history) {
		t.tools = command.ToolDefinitions()
		t.contents = d.buildContents(t, d.opts.ContextTurns)
		return stateAwaitingModel
	}

	p, err := d.planner.Create(ctx, t.it, t.message, history, command.ToolDefinitions())
	if err != nil {
		t.logger.Warn("driver.plan.create_failed", "error", err.Error())
		t.tools = command.ToolDefinitions()
		t.contents = d.buildContents(t, d.opts.ContextTurns)
		return stateAwaitingModel
	}
	t.activePlan = p

	switch p.Status {
	case plan.StatusNeedsInfo:
		t.sess.ActivePlan = p
		t.reply = Reply{
			Text:        clarificationQuestion(p.MissingInfo),
			PlanStatus:  p.Status,
			MissingInfo: p.MissingInfo,
		}
		return stateDone
	case plan.StatusAwaitingConfirmation:
		t.sess.ActivePlan = p
		t.reply = Reply{
			Text:       confirmationQuestion(p),
			PlanStatus: p.Status,
		}
		return stateDone
	}
	return stateExecutingPlan
}

// resumePendingPlan handles a plan parked in a previous turn. An affirmative
// message confirms the parked step; anything else abandons the plan and lets
// the turn proceed fresh.
func (d *Driver) resumePendingPlan(t *turn) (state, bool) {
	p := t.sess.ActivePlan
	if p == nil {
		return 0, false
	}
	if p.Status != plan.StatusAwaitingConfirmation {
		// needs_info or stale terminal plans are replanned from scratch with
		// the new message in context.
		t.sess.ActivePlan = nil
		return 0, false
	}
	if !isAffirmative(t.message) {
		t.sess.ActivePlan = nil
		return 0, false
	}
	for _, s := range p.Steps {
		if s.Status == plan.StepAwaitingConfirmation {
			plan.Confirm(p, s.StepNumber)
		}
	}
	t.activePlan = p
	return stateExecutingPlan, true
}

// runModel invokes the model over the assembled context. Failures route to
// recovery, never to the caller.
func (d *Driver) runModel(ctx context.Context, t *turn) state {
	knowledge := d.retrieveKnowledge(ctx, t)
	start := time.Now()
	resp, err := model.Complete(ctx, d.model, model.Request{
		Instructions: d.instructions(knowledge),
		Contents:     t.contents,
		Tools:        t.tools,
	}, d.opts.ModelTimeout)
	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	logging.LogModelCall(t.logger, d.model.Info().Name, tokens, time.Since(start), err)
	if err != nil {
		t.modelErr = err
		return stateRecovering
	}
	t.lastResp = resp
	t.modelErr = nil

	if len(resp.Content.FunctionCalls()) > 0 && t.tools != nil {
		return stateExecutingTools
	}
	return stateFormatting
}

// runToolRound executes every call the model proposed, appends the results
// and loops back to the model until it stops calling or the round budget is
// spent.
func (d *Driver) runToolRound(ctx context.Context, t *turn) state {
	calls := t.lastResp.Content.FunctionCalls()
	t.contents = append(t.contents, t.lastResp.Content)
	for _, fc := range calls {
		result := d.orch.Execute(ctx, t.tenantID, toolCallFromFunction(fc), t.log)
		t.contents = append(t.contents, core.NewToolResponse(fc.ID, fc.Name, result, result.Error))
	}

	t.rounds++
	if t.rounds >= d.opts.MaxToolRounds {
		// Budget spent: one final text-only invocation to wrap up.
		t.tools = nil
		t.logger.Info("driver.tool_rounds.exhausted", "rounds", t.rounds)
	}
	return stateAwaitingModel
}

// runPlanSteps executes plan steps strictly in order through the
// orchestrator, halting on the first failure. Step outcomes enter the model
// context as one plain-text report: tool responses that answer no prior tool
// call are rejected or silently dropped by the model providers.
func (d *Driver) runPlanSteps(ctx context.Context, t *turn) state {
	p := t.activePlan
	t.contents = d.buildContents(t, d.opts.ContextTurns)

	var report []string
	for {
		step := plan.NextStep(p)
		if step == nil {
			break
		}
		if step.ToolName == "" {
			plan.UpdateWithResult(p, step.StepNumber, core.ToolResult{Success: true})
			continue
		}
		result := d.orch.Execute(ctx, t.tenantID, core.ToolCall{Name: step.ToolName, Args: step.ToolArgs}, t.log)
		plan.UpdateWithResult(p, step.StepNumber, result)
		logging.LogPlanExecution(t.logger, p.PlanID, step.StepNumber, string(p.Status))
		report = append(report, stepReportLine(step.StepNumber, step.ToolName, result))
	}

	if p.Status == plan.StatusAwaitingConfirmation {
		t.sess.ActivePlan = p
		t.reply = Reply{Text: confirmationQuestion(p), PlanStatus: p.Status}
		return stateDone
	}
	t.sess.ActivePlan = nil
	t.reply.PlanStatus = p.Status

	if len(report) > 0 {
		t.contents = append(t.contents, core.NewUserText(
			"Results of the actions just performed:\n"+strings.Join(report, "\n")))
	}

	// Formatting pass over the step results; no further tool calls allowed.
	t.tools = nil
	return stateAwaitingModel
}

// stepReportLine renders one executed step for the formatting context.
func stepReportLine(number int, tool string, result core.ToolResult) string {
	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte("{}")
	}
	return fmt.Sprintf("%d. %s: %s", number, tool, payload)
}

// runFormat lifts the final text out of the model response; an empty reply
// is a defect the recovery pipeline must repair.
func (d *Driver) runFormat(t *turn) state {
	text := strings.TrimSpace(t.lastResp.Content.Text())
	if text == "" {
		return stateRecovering
	}
	t.reply.Text = text
	return stateValidating
}

// runValidate applies the booking-confirmation guard and handoff detection
// to the final text.
func (d *Driver) runValidate(t *turn) state {
	if looksLikeBookingConfirmation(t.reply.Text) && !t.log.HasVerifiedBooking() {
		t.logger.Warn("driver.reply.unverified_confirmation_blocked")
		t.reply.Text = unverifiedBookingMessage
	}
	if text, handoff := detectHandoff(t.reply.Text); handoff {
		t.reply.Text = text
		t.reply.Handoff = true
	}
	return stateDone
}

func clarificationQuestion(missing []string) string {
	if len(missing) == 0 {
		return "Could you share a bit more detail so I can set that up?"
	}
	return fmt.Sprintf("Before I can set that up, could you tell me your %s?", strings.Join(missing, " and "))
}

func confirmationQuestion(p *plan.ExecutionPlan) string {
	for _, s := range p.Steps {
		if s.Status == plan.StepAwaitingConfirmation {
			return fmt.Sprintf("I'd like to %s. Shall I go ahead?", strings.TrimRight(s.Description, "."))
		}
	}
	return "Shall I go ahead with that?"
}

var affirmations = []string{"yes", "yep", "sure", "ok", "okay", "confirm", "go ahead", "please do", "do it"}

func isAffirmative(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, a := range affirmations {
		if lower == a || strings.HasPrefix(lower, a+" ") || strings.HasPrefix(lower, a+",") {
			return true
		}
	}
	return false
}
