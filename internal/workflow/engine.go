// Package workflow runs chat conversations. Each command invocation gets
// its own Run, a forward-only state machine that chains selection prompts,
// the quantity form and one store call, and ends with exactly one terminal
// rewrite of its message.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/stockroom/internal/audit"
	"github.com/mesh-intelligence/stockroom/internal/inventory"
	"github.com/mesh-intelligence/stockroom/internal/session"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

var _ session.CommandHandler = (*Engine)(nil)

// Engine starts a Run for every command event. Runs share only the store.
type Engine struct {
	store            *inventory.Store
	router           *session.Router
	messenger        session.Messenger
	registry         *Registry
	audit            audit.Sink
	selectionTimeout time.Duration
	formTimeout      time.Duration
	logger           *slog.Logger
	now              func() time.Time
	newID            func() string

	wg sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithAudit sets the sink completed conversations are recorded to.
func WithAudit(sink audit.Sink) Option {
	return func(e *Engine) {
		e.audit = sink
	}
}

// WithRegistry replaces the default command set.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithSession sets the collector windows. Zero values keep the default.
func WithSession(cfg types.SessionConfig) Option {
	return func(e *Engine) {
		e.selectionTimeout = cfg.SelectionTimeoutOrDefault()
		e.formTimeout = cfg.FormTimeoutOrDefault()
	}
}

// WithClock sets the time source for audit records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine serving the default commands.
func New(store *inventory.Store, router *session.Router, messenger session.Messenger, opts ...Option) *Engine {
	e := &Engine{
		store:            store,
		router:           router,
		messenger:        messenger,
		audit:            audit.Discard,
		selectionTimeout: types.DefaultStepTimeout,
		formTimeout:      types.DefaultStepTimeout,
		logger:           slog.Default(),
		now:              time.Now,
		newID:            uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	return e
}

// Registry returns the commands the engine serves.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// HandleCommand starts a Run in its own goroutine.
func (e *Engine) HandleCommand(ctx context.Context, ev *session.CommandEvent) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_, _ = e.Execute(ctx, ev)
	}()
}

// Wait blocks until every Run started by HandleCommand has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Execute runs the conversation for ev on the calling goroutine and returns
// the finished Run.
func (e *Engine) Execute(ctx context.Context, ev *session.CommandEvent) (*Run, error) {
	cmd, ok := e.registry.Lookup(ev.Command)
	if !ok {
		_, err := e.messenger.Send(ctx, ev.ChannelID,
			errorMessage("Unknown command", "There is no command named **"+ev.Command+"**."))
		return nil, errors.Join(ErrUnknownCommand, err)
	}

	r := &Run{ID: e.newID(), Event: ev, cmd: cmd, engine: e, m: newMachine()}
	log := e.logger.With("run", r.ID, "command", cmd.Name, "user", ev.User.ID)

	if err := r.start(ctx); err != nil {
		log.Error("conversation not started", "error", err)
		return r, err
	}

	var err error
	if optErr := cmd.checkOptions(ev.Options); optErr != nil {
		err = r.abort(ctx, inventory.KindValidation, optionBody(optErr), optErr)
	} else {
		err = cmd.Run(ctx, r)
	}

	if !r.State().Terminal() {
		// A Run func that returns without finishing still owes the user a
		// terminal message.
		if err == nil {
			err = ErrInvalidTransition
		}
		log.Error("conversation left unfinished", "state", r.State(), "error", err)
		_ = r.abort(ctx, inventory.KindStorage, bodyFor(inventory.KindStorage), err)
		return r, err
	}

	switch {
	case err == nil:
		log.Info("conversation done", "path", r.Path())
	case errors.Is(err, ErrAborted) && r.Outcome() != inventory.KindStorage:
		log.Info("conversation aborted", "outcome", r.Outcome(), "reason", err)
	default:
		log.Error("conversation failed", "outcome", r.Outcome(), "error", err)
	}
	if errors.Is(err, ErrAborted) {
		return r, nil
	}
	return r, err
}

func optionBody(err error) string {
	switch {
	case errors.Is(err, types.ErrInvalidQuantity):
		return "Quantity must be a whole number."
	case errors.Is(err, types.ErrNegativeQuantity):
		return "Quantity must not be negative."
	}
	return "A required option is missing."
}
