// Package caremax is a deterministic orchestration layer between a
// conversational model and the systems it acts on. The model only proposes
// actions; validation, execution, post-write verification and the final say
// over what the user is told belong to this layer.
package caremax

import (
	"context"
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/vortexion256/caremax/config"
	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/driver"
	"github.com/vortexion256/caremax/executor"
	"github.com/vortexion256/caremax/intent"
	"github.com/vortexion256/caremax/logging"
	"github.com/vortexion256/caremax/memory"
	"github.com/vortexion256/caremax/model"
	"github.com/vortexion256/caremax/model/anthropic"
	"github.com/vortexion256/caremax/model/openai"
	"github.com/vortexion256/caremax/orchestrate"
	"github.com/vortexion256/caremax/plan"
	"github.com/vortexion256/caremax/session"
	"github.com/vortexion256/caremax/store"
)

// Options configures an Assistant. Every collaborator has a safe in-memory
// default so a bare New() yields a working assistant for local use and tests.
type Options struct {
	Config    *config.Config
	Model     model.Model
	Bookings  core.BookingStore
	Notes     core.NoteStore
	Sheets    core.SheetSource
	Records   core.RecordRepository
	Retriever core.Retriever
	Sessions  session.Store
	Logger    logging.Logger
}

// Assistant aggregates the configured stores, model and driver behind a
// single conversational entry point.
type Assistant struct {
	cfg    *config.Config
	model  model.Model
	driver *driver.Driver
	memory *memory.Store
	logger logging.Logger
}

// New builds an Assistant. Unset collaborators fall back to in-memory
// implementations; the model defaults to the provider named in the config.
func New(optFns ...func(o *Options)) (*Assistant, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	}

	m := opts.Model
	if m == nil {
		var err error
		m, err = buildModel(cfg)
		if err != nil {
			return nil, err
		}
	}

	bookings := opts.Bookings
	if bookings == nil {
		bookings = store.NewInMemoryBookingStore()
	}
	notes := opts.Notes
	if notes == nil {
		notes = store.NewInMemoryNoteStore()
	}
	sheets := opts.Sheets
	if sheets == nil {
		sheets = store.NewStaticSheetSource(cfg.Sheets)
	}
	records := opts.Records
	if records == nil {
		records = memory.NewInMemoryRecordRepository()
	}
	retriever := opts.Retriever
	if retriever == nil {
		retriever = store.NewInMemoryRetriever()
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewInMemoryStore()
	}

	base := logging.NewAssistantLogger(logger)
	mem := memory.New(records, retriever, func(o *memory.Options) {
		o.Logger = base.WithComponent("memory")
	})
	exec := executor.New(bookings, notes, sheets, mem, func(o *executor.Options) {
		o.Logger = base.WithComponent("executor")
	})
	verifier := orchestrate.NewVerifier(bookings, cfg.Verify.Attempts, cfg.Verify.RetryDelay, base.WithComponent("verifier"))
	orch := orchestrate.New(exec, verifier, notes, func(o *orchestrate.Options) {
		o.Logger = base.WithComponent("orchestrator")
	})
	classifier := intent.New(m, func(o *intent.Options) {
		o.Logger = base.WithComponent("intent")
	})
	planner := plan.New(m, func(o *plan.Options) {
		o.Logger = base.WithComponent("planner")
	})
	drv := driver.New(m, classifier, planner, orch, mem, sessions, func(o *driver.Options) {
		o.MaxToolRounds = cfg.Driver.MaxToolRounds
		o.ContextTurns = cfg.Driver.ContextTurns
		o.KnowledgeLimit = cfg.Driver.KnowledgeLimit
		o.ModelTimeout = cfg.Model.Timeout
		o.Logger = logger
	})

	return &Assistant{
		cfg:    cfg,
		model:  m,
		driver: drv,
		memory: mem,
		logger: logger,
	}, nil
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Model.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxCompletionTokens = cfg.Model.MaxTokens
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxTokens = cfg.Model.MaxTokens
		}), nil
	case "mock":
		return model.NewMockModel("mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

// Chat runs one conversation turn for the tenant.
func (a *Assistant) Chat(ctx context.Context, tenantID, message string) (driver.Reply, error) {
	return a.driver.Chat(ctx, tenantID, message)
}

// ConfirmStep confirms a parked plan step and resumes the plan.
func (a *Assistant) ConfirmStep(ctx context.Context, tenantID string, stepNumber int) (driver.Reply, error) {
	return a.driver.Confirm(ctx, tenantID, stepNumber)
}

// Memory exposes the knowledge store for the approval workflow and
// consolidation.
func (a *Assistant) Memory() *memory.Store { return a.memory }

// ExecutionLog exposes the tenant's latest-turn audit trail.
func (a *Assistant) ExecutionLog(tenantID string) *core.ExecutionLog { return a.driver.Log(tenantID) }

// Config returns the effective configuration.
func (a *Assistant) Config() *config.Config { return a.cfg }

// Consolidate runs a model-assisted merge pass over the tenant's knowledge
// records, staging proposals for approval.
func (a *Assistant) Consolidate(ctx context.Context, tenantID string) ([]core.ModificationRequest, error) {
	return a.memory.Consolidate(ctx, tenantID, a.model)
}
