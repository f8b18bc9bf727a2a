package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/model"
	"github.com/vortexion256/caremax/plan"
)

// emptyCause classifies why a turn reached recovery without usable text.
type emptyCause string

const (
	causeModelFailure    emptyCause = "model_failure"
	causeContextOverflow emptyCause = "context_overflow"
	causeToolOnly        emptyCause = "tool_only_output"
	causePlanFailure     emptyCause = "plan_failure"
	causeToolErrors      emptyCause = "tool_errors"
	causeAmbiguous       emptyCause = "ambiguous_input"
)

const genericApology = "I'm sorry, I wasn't able to process that just now. Could you try again, or let me know if you'd like to speak with our staff?"

func (d *Driver) classifyEmptyReply(t *turn) emptyCause {
	if t.modelErr != nil {
		msg := strings.ToLower(t.modelErr.Error())
		if strings.Contains(msg, "context") || strings.Contains(msg, "token") || strings.Contains(msg, "too long") {
			return causeContextOverflow
		}
		return causeModelFailure
	}
	if len(t.lastResp.Content.FunctionCalls()) > 0 {
		return causeToolOnly
	}
	if t.activePlan != nil && t.activePlan.Status == plan.StatusFailed {
		return causePlanFailure
	}
	if t.log.HasErrors() {
		return causeToolErrors
	}
	return causeAmbiguous
}

// runRecovery turns an empty or failed model pass into user-facing text. The
// cause picks the strategy; every path terminates with some reply, the
// generic apology at worst.
func (d *Driver) runRecovery(ctx context.Context, t *turn) state {
	cause := d.classifyEmptyReply(t)
	t.logger.Warn("driver.reply.recovering", "cause", string(cause))

	var text string
	switch cause {
	case causeToolOnly:
		text = d.summarizeToolResults(ctx, t)
	case causeContextOverflow:
		text = d.retryWithShrunkContext(ctx, t)
	case causePlanFailure:
		text = planFailureMessage(t.activePlan)
	case causeToolErrors:
		text = d.toolErrorMessage()
	case causeAmbiguous:
		text = "I'm not sure I followed that. Could you rephrase what you'd like me to do?"
	}
	if strings.TrimSpace(text) == "" {
		text = genericApology
	}
	t.reply.Text = text
	return stateValidating
}

// summarizeToolResults asks the model for a text-only wrap-up of the results
// already in context; a deterministic summary from the execution log backs it
// up.
func (d *Driver) summarizeToolResults(ctx context.Context, t *turn) string {
	resp, err := model.Complete(ctx, d.model, model.Request{
		Instructions: "Summarize the tool results above for the patient in one or two short sentences. Plain text only, no tool calls.",
		Contents:     t.contents,
	}, d.opts.ModelTimeout)
	if err == nil {
		if text := strings.TrimSpace(resp.Content.Text()); text != "" {
			return text
		}
	}
	return logSummary(t.log)
}

// retryWithShrunkContext re-invokes once with only the latest turns and no
// tools.
func (d *Driver) retryWithShrunkContext(ctx context.Context, t *turn) string {
	resp, err := model.Complete(ctx, d.model, model.Request{
		Instructions: d.instructions(""),
		Contents:     d.buildContents(t, 2),
	}, d.opts.ModelTimeout)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(resp.Content.Text())
}

func logSummary(log *core.ExecutionLog) string {
	entries := log.Entries()
	if len(entries) == 0 {
		return ""
	}
	var done, failed int
	for _, e := range entries {
		if e.Result.Success {
			done++
		} else {
			failed++
		}
	}
	if failed == 0 {
		return fmt.Sprintf("I've completed %d action(s) for you. Is there anything else you need?", done)
	}
	return fmt.Sprintf("I completed %d action(s), but %d did not go through. Would you like me to try again?", done, failed)
}

func planFailureMessage(p *plan.ExecutionPlan) string {
	if p != nil {
		for _, s := range p.Steps {
			if s.Status == plan.StepFailed && s.Result != nil && s.Result.Error != "" {
				return fmt.Sprintf("I couldn't finish that request: %s. Nothing further was changed. Would you like to try a different time or speak with our staff?", s.Result.Error)
			}
		}
	}
	return "I couldn't finish that request, and I've stopped before making any further changes. Would you like to try again?"
}

func (d *Driver) toolErrorMessage() string {
	return "I ran into a problem while working on that and didn't complete it. Could you try again in a moment?"
}
