package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/intent"
	"github.com/vortexion256/caremax/logging"
	"github.com/vortexion256/caremax/model"
	"github.com/vortexion256/caremax/orchestrate"
	"github.com/vortexion256/caremax/plan"
	"github.com/vortexion256/caremax/session"
)

// HandoffMessage is returned verbatim when the user asks for a human; it
// never costs a model round-trip.
const HandoffMessage = "Of course. I'm connecting you with a member of our staff who will continue this conversation."

// HandoffMarker is the token the model is instructed to emit when it decides
// a human should take over.
const HandoffMarker = "[HANDOFF]"

// Reply is the outcome of one conversation turn.
type Reply struct {
	Text        string      `json:"text"`
	Handoff     bool        `json:"handoff"`
	PlanStatus  plan.Status `json:"planStatus,omitempty"`
	MissingInfo []string    `json:"missingInfo,omitempty"`
}

// KnowledgeSearcher is the slice of the memory store the driver needs:
// ranked retrieval for context assembly.
type KnowledgeSearcher interface {
	Search(ctx context.Context, tenantID, query string, limit int) ([]core.SearchResult, error)
}

// Options configures a Driver.
type Options struct {
	// MaxToolRounds caps model/tool back-and-forth per turn.
	MaxToolRounds int
	// ContextTurns bounds how much history enters the model context.
	ContextTurns int
	// KnowledgeLimit caps retrieved knowledge snippets per turn.
	KnowledgeLimit int
	// ModelTimeout is the hard ceiling per model call; expiry fails into the
	// recovery path instead of hanging the turn.
	ModelTimeout time.Duration
	// Instructions overrides the built-in system prompt when non-empty.
	Instructions string
	Logger       logging.Logger
}

// Driver owns the per-turn conversation loop. Turns within one tenant are
// sequential by design; each tenant carries its own execution log, so one
// tenant's verified booking never vouches for another's reply.
type Driver struct {
	model      model.Model
	classifier *intent.Classifier
	planner    *plan.Planner
	orch       *orchestrate.Orchestrator
	knowledge  KnowledgeSearcher
	sessions   session.Store
	base       *logging.AssistantLogger
	opts       Options

	mu   sync.Mutex
	logs map[string]*core.ExecutionLog
}

// New creates a Driver.
func New(m model.Model, classifier *intent.Classifier, planner *plan.Planner, orch *orchestrate.Orchestrator, knowledge KnowledgeSearcher, sessions session.Store, optFns ...func(o *Options)) *Driver {
	opts := Options{
		MaxToolRounds:  3,
		ContextTurns:   10,
		KnowledgeLimit: 5,
		ModelTimeout:   60 * time.Second,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.MaxToolRounds < 1 {
		opts.MaxToolRounds = 1
	}
	return &Driver{
		model:      m,
		classifier: classifier,
		planner:    planner,
		orch:       orch,
		knowledge:  knowledge,
		sessions:   sessions,
		base:       logging.NewAssistantLogger(opts.Logger).WithComponent("driver"),
		opts:       opts,
		logs:       map[string]*core.ExecutionLog{},
	}
}

// logFor returns the tenant's execution log, creating it on first use.
func (d *Driver) logFor(tenantID string) *core.ExecutionLog {
	d.mu.Lock()
	defer d.mu.Unlock()
	log, ok := d.logs[tenantID]
	if !ok {
		log = core.NewExecutionLog()
		d.logs[tenantID] = log
	}
	return log
}

const defaultInstructions = `You are CareMax, a clinic assistant. You help patients book,
change and look up appointments and answer questions about the clinic.
Use the provided tools for anything involving appointments, sheets, notes or
the knowledge base; never claim an appointment is booked unless a tool result
confirms it. If you cannot help or the patient needs a person, include the
token ` + HandoffMarker + ` in your reply.`

// Chat runs one turn for the tenant and returns the final reply. Model-side
// failures are absorbed by the recovery pipeline; the returned error is
// reserved for session store faults.
func (d *Driver) Chat(ctx context.Context, tenantID, message string) (Reply, error) {
	sess, err := d.sessions.Get(tenantID)
	if err != nil {
		return Reply{}, fmt.Errorf("load session: %w", err)
	}
	log := d.logFor(tenantID)
	log.Reset()

	t := &turn{
		tenantID: tenantID,
		message:  message,
		sess:     sess,
		log:      log,
		logger:   d.base.WithTenant(tenantID).WithTurn(core.NewID()),
	}
	for st := stateIntent; st != stateDone; {
		st = d.step(ctx, st, t)
	}

	sess.AddTurn(core.NewUserText(message))
	sess.AddTurn(core.NewAssistantText(t.reply.Text))
	if err := d.sessions.Save(sess); err != nil {
		return Reply{}, fmt.Errorf("save session: %w", err)
	}
	return t.reply, nil
}

// Confirm records an explicit confirmation for a parked plan step and, when
// the plan becomes runnable again, resumes it in a fresh turn context.
func (d *Driver) Confirm(ctx context.Context, tenantID string, stepNumber int) (Reply, error) {
	sess, err := d.sessions.Get(tenantID)
	if err != nil {
		return Reply{}, fmt.Errorf("load session: %w", err)
	}
	if sess.ActivePlan == nil {
		return Reply{Text: "There is nothing awaiting your confirmation right now."}, nil
	}
	if !plan.Confirm(sess.ActivePlan, stepNumber) {
		return Reply{Text: "I could not find that step in the current plan.", PlanStatus: sess.ActivePlan.Status}, nil
	}

	log := d.logFor(tenantID)
	log.Reset()
	t := &turn{
		tenantID:   tenantID,
		message:    "",
		sess:       sess,
		activePlan: sess.ActivePlan,
		log:        log,
		logger:     d.base.WithTenant(tenantID).WithTurn(core.NewID()),
	}
	for st := stateExecutingPlan; st != stateDone; {
		st = d.step(ctx, st, t)
	}

	sess.AddTurn(core.NewAssistantText(t.reply.Text))
	if err := d.sessions.Save(sess); err != nil {
		return Reply{}, fmt.Errorf("save session: %w", err)
	}
	return t.reply, nil
}

// Log exposes the tenant's execution log for audit inspection.
func (d *Driver) Log(tenantID string) *core.ExecutionLog { return d.logFor(tenantID) }

func (d *Driver) instructions(knowledgeBlock string) string {
	base := d.opts.Instructions
	if base == "" {
		base = defaultInstructions
	}
	if knowledgeBlock != "" {
		base += "\n\nRelevant clinic knowledge:\n" + knowledgeBlock
	}
	return base
}

// buildContents assembles the bounded model context: recent history then the
// current user message.
func (d *Driver) buildContents(t *turn, historyTurns int) []core.Content {
	contents := t.sess.Recent(historyTurns)
	if t.message != "" {
		contents = append(contents, core.NewUserText(t.message))
	}
	return contents
}

// retrieveKnowledge is best effort: retrieval faults degrade to an empty
// block, never fail the turn.
func (d *Driver) retrieveKnowledge(ctx context.Context, t *turn) string {
	if d.knowledge == nil || strings.TrimSpace(t.message) == "" {
		return ""
	}
	hits, err := d.knowledge.Search(ctx, t.tenantID, t.message, d.opts.KnowledgeLimit)
	if err != nil {
		t.logger.Warn("driver.knowledge.unavailable", "error", err.Error())
		return ""
	}
	var b strings.Builder
	for _, h := range hits {
		b.WriteString("- ")
		b.WriteString(h.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// decodeArgs parses a serialized tool argument payload. Invalid JSON yields
// an empty map so the call still flows through schema validation and the
// execution log.
func decodeArgs(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}

func toolCallFromFunction(fc core.FunctionCall) core.ToolCall {
	return core.ToolCall{Name: fc.Name, Args: decodeArgs(fc.Arguments)}
}
