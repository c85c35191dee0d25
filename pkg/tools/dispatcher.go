package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/isitobservable/ynab-mcp/pkg/types"
	"github.com/isitobservable/ynab-mcp/pkg/ynab"
)

// Phase names a step of one dispatched call.
type Phase string

const (
	PhaseRouting    Phase = "routing"
	PhaseValidating Phase = "validating"
	PhaseInvoking   Phase = "invoking"
	PhaseFormatting Phase = "formatting"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock sets the clock used for relative date ranges.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Dispatcher routes tool calls to their handlers and turns every failure into
// an error result.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher binds every catalog entry to its handler. Handlers reach the
// budgeting service only through the rate-limited client. It panics when the
// catalog and the handler table disagree.
func NewDispatcher(remote *ynab.Client, opts ...Option) *Dispatcher {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	h := &handlers{remote: remote, now: o.now}
	table := h.table()
	registry := NewRegistry()
	for _, d := range Catalog() {
		fn, ok := table[d.Name]
		if !ok {
			panic(fmt.Sprintf("tools: no handler for catalog tool %q", d.Name))
		}
		registry.Register(d, fn)
		delete(table, d.Name)
	}
	for name := range table {
		panic(fmt.Sprintf("tools: handler %q has no catalog entry", name))
	}

	return &Dispatcher{registry: registry, logger: o.logger}
}

// ListTools returns the full catalog in declaration order.
func (d *Dispatcher) ListTools() []Descriptor {
	return d.registry.List()
}

// Dispatch runs the named tool. It never returns an error: unknown names,
// validation failures, rate limiting, remote failures and handler panics all
// come back as a Result with IsError set. A nil args is treated as empty.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args Arguments) (res Result) {
	log := d.logger.With("tool", name)
	log.Debug("tools: dispatch", "phase", PhaseRouting)

	tool, ok := d.registry.Get(name)
	if !ok {
		log.Debug("tools: dispatch", "phase", PhaseFailed, "reason", "unknown tool")
		return Result{Content: []string{"Unknown tool: " + name}, IsError: true}
	}
	if args == nil {
		args = Arguments{}
	}

	defer func() {
		if r := recover(); r != nil {
			err := types.RemoteFailure(fmt.Sprintf("internal error: %v", r))
			err.Tool = name
			log.Error("tools: handler panicked", "panic", r)
			res = errorResult(err)
		}
	}()

	log.Debug("tools: dispatch", "phase", PhaseValidating)
	text, err := tool.Handler(withPhaseLogger(ctx, log), args)
	if err != nil {
		mcpErr := types.AsMCPError(err)
		mcpErr.Tool = name
		log.Debug("tools: dispatch", "phase", PhaseFailed, "code", mcpErr.Code, "error", mcpErr.Error())
		return errorResult(mcpErr)
	}

	log.Debug("tools: dispatch", "phase", PhaseDone)
	return textResult(text)
}

func errorResult(err *types.MCPError) Result {
	return Result{
		Content: []string{"Error: " + err.Error()},
		IsError: true,
		Err:     err,
	}
}

type phaseLoggerKey struct{}

func withPhaseLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, phaseLoggerKey{}, l)
}

func logPhase(ctx context.Context, p Phase) {
	if l, ok := ctx.Value(phaseLoggerKey{}).(*slog.Logger); ok {
		l.Debug("tools: dispatch", "phase", p)
	}
}

// invoke wraps the single remote call of a handler with phase logging.
func invoke[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	logPhase(ctx, PhaseInvoking)
	v, err := fn()
	if err == nil {
		logPhase(ctx, PhaseFormatting)
	}
	return v, err
}
