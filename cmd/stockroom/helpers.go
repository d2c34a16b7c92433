package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/user"
	"strings"
	"time"

	"github.com/mesh-intelligence/stockroom/internal/audit"
	"github.com/mesh-intelligence/stockroom/internal/inventory"
	"github.com/mesh-intelligence/stockroom/internal/session"
	"github.com/mesh-intelligence/stockroom/pkg/backend"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// env is an attached backend and what is built on top of it.
type env struct {
	config  types.Config
	backend types.Backend
	store   *inventory.Store
	audit   audit.Sink
	actor   audit.Actor
}

// open attaches the configured backend. The caller must defer env.close.
func (a *app) open() (*env, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, err
	}
	b, err := backend.Open(cfg, a.logger)
	if err != nil {
		return nil, err
	}
	return &env{
		config:  cfg,
		backend: b,
		store:   inventory.New(b, inventory.WithLogger(a.logger)),
		audit:   a.auditSink(cfg.DataDir, nil),
		actor:   currentActor(),
	}, nil
}

func (e *env) close() {
	_ = e.backend.Detach()
}

// auditSink builds the configured sinks. The channel sink is only added when
// a messenger is available.
func (a *app) auditSink(dataDir string, messenger session.Messenger) audit.Sink {
	if !a.settings.Audit.Enabled {
		return audit.Discard
	}
	sinks := audit.Multi{
		audit.NewLogSink(a.logger),
		audit.NewFileSink(a.settings.AuditFile(dataDir)),
	}
	if messenger != nil && a.settings.Audit.Channel != "" {
		sinks = append(sinks, audit.NewChannelSink(messenger, a.settings.Audit.Channel))
	}
	return sinks
}

// record writes an audit event for a CLI mutation. Sink failures are logged.
func (a *app) record(ctx context.Context, e *env, evt *audit.Event, res interface {
	Err() error
}) {
	evt.Actor = e.actor
	evt.Time = time.Now().UTC()
	evt.Outcome = audit.OutcomeSuccess
	if err := res.Err(); err != nil {
		evt.Outcome = audit.OutcomeFailure
		evt.Reason = err.Error()
	}
	if err := e.audit.Record(ctx, evt); err != nil {
		a.logger.Warn("audit record failed", "action", evt.Action, "error", err)
	}
}

func currentActor() audit.Actor {
	u, err := user.Current()
	if err != nil {
		return audit.Actor{ID: "cli"}
	}
	return audit.Actor{ID: u.Uid, Name: u.Username}
}

// findCategory resolves a category by name.
func findCategory(ctx context.Context, store *inventory.Store, name string) (*types.Category, error) {
	res := store.ListCategories(ctx)
	if !res.Success && res.Kind != inventory.KindEmptyResult {
		return nil, res.Err()
	}
	for _, c := range res.Data {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", types.ErrCategoryNotFound, name)
}

// report prints a result: its data as JSON with --json, its message
// otherwise. A failed result is returned as an error.
func (a *app) report(w io.Writer, message string, data any, err error) error {
	if err != nil {
		return err
	}
	if a.flagJSON {
		return printJSON(w, data)
	}
	fmt.Fprintln(w, plain(message))
	return nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// plain strips markdown emphasis from store messages.
func plain(s string) string {
	return strings.ReplaceAll(s, "**", "")
}

// failure turns a failed result into a terminal-friendly error.
func failure(err error) error {
	if err == nil {
		return nil
	}
	var re *inventory.ResultError
	if errors.As(err, &re) {
		return &cliError{msg: plain(re.Message), cause: re}
	}
	return err
}

// cliError prints only the user-facing message but still matches the
// underlying kind with errors.Is.
type cliError struct {
	msg   string
	cause error
}

func (e *cliError) Error() string { return e.msg }
func (e *cliError) Unwrap() error { return e.cause }
