package session

import (
	"context"
	"fmt"
	"log/slog"
)

// CommandHandler starts a conversation for a command invocation.
// HandleCommand must not block for the length of the conversation.
type CommandHandler interface {
	HandleCommand(ctx context.Context, ev *CommandEvent)
}

// Dispatcher is the single entry point for inbound events: commands start
// conversations and every other event goes to the Router.
type Dispatcher struct {
	commands CommandHandler
	router   *Router
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(commands CommandHandler, router *Router, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{commands: commands, router: router, logger: logger}
}

// Dispatch routes one event.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case *CommandEvent:
		d.logger.Debug("command received", "command", e.Command, "user", e.User.ID)
		d.commands.HandleCommand(ctx, e)
	case *SelectEvent, *FormEvent:
		d.router.Deliver(ev)
	default:
		d.logger.Debug("dropping unknown event", "type", fmt.Sprintf("%T", ev))
	}
}
