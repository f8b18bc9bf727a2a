package logging

// AssistantLogger wraps a Logger with contextual attributes attached to every
// entry. With* methods clone, so derived loggers are cheap and never leak
// context back to the parent.
type AssistantLogger struct {
	base      Logger
	component string
	tenantID  string
	turnID    string
	context   map[string]any
}

// NewAssistantLogger wraps base; a nil base logs nowhere.
func NewAssistantLogger(base Logger) *AssistantLogger {
	return &AssistantLogger{base: OrNoOp(base), context: map[string]any{}}
}

func (l *AssistantLogger) clone() *AssistantLogger {
	nl := *l
	nl.context = make(map[string]any, len(l.context))
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithComponent sets the logical component (driver, executor, memory, ...).
func (l *AssistantLogger) WithComponent(c string) *AssistantLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithTenant attaches the tenant identifier.
func (l *AssistantLogger) WithTenant(tenantID string) *AssistantLogger {
	nl := l.clone()
	nl.tenantID = tenantID
	return nl
}

// WithTurn attaches the turn identifier.
func (l *AssistantLogger) WithTurn(turnID string) *AssistantLogger {
	nl := l.clone()
	nl.turnID = turnID
	return nl
}

// WithContext adds a key/value attribute attached to every entry.
func (l *AssistantLogger) WithContext(key string, value any) *AssistantLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

func (l *AssistantLogger) attrs(args []any) []any {
	out := make([]any, 0, len(args)+6+2*len(l.context))
	if l.component != "" {
		out = append(out, "component", l.component)
	}
	if l.tenantID != "" {
		out = append(out, "tenant_id", l.tenantID)
	}
	if l.turnID != "" {
		out = append(out, "turn_id", l.turnID)
	}
	for k, v := range l.context {
		out = append(out, k, v)
	}
	return append(out, args...)
}

// Debug implements Logger.
func (l *AssistantLogger) Debug(msg string, args ...any) { l.base.Debug(msg, l.attrs(args)...) }

// Info implements Logger.
func (l *AssistantLogger) Info(msg string, args ...any) { l.base.Info(msg, l.attrs(args)...) }

// Warn implements Logger.
func (l *AssistantLogger) Warn(msg string, args ...any) { l.base.Warn(msg, l.attrs(args)...) }

// Error implements Logger.
func (l *AssistantLogger) Error(msg string, args ...any) { l.base.Error(msg, l.attrs(args)...) }
