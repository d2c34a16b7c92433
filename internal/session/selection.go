package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// Selection describes one choice to put in front of a user.
type Selection struct {
	Key         string // Custom id of the select component; see SelectKey.
	User        User
	MessageID   string
	Prompt      *Message // Rendered with the select component appended.
	Placeholder string
	Choices     []Choice
}

// SelectionCollector shows a Selection and waits for one answer.
type SelectionCollector struct {
	router    *Router
	messenger Messenger
	timeout   time.Duration
	logger    *slog.Logger
	used      atomic.Bool
}

// NewSelectionCollector creates a collector that waits at most timeout.
func NewSelectionCollector(router *Router, messenger Messenger, timeout time.Duration, logger *slog.Logger) *SelectionCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &SelectionCollector{router: router, messenger: messenger, timeout: timeout, logger: logger}
}

// Wait renders sel on its message and blocks until the user picks a choice,
// the window closes or ctx is done. It returns the chosen value.
//
// A timeout, or a response that is not a selection, returns ErrTimeout. A
// value outside sel.Choices returns ErrValidation. Before Wait returns the
// message's components are cleared exactly once. A collector waits once;
// later calls return ErrCollectorUsed.
func (c *SelectionCollector) Wait(ctx context.Context, sel Selection) (string, error) {
	if !c.used.CompareAndSwap(false, true) {
		return "", ErrCollectorUsed
	}

	events, cancel, err := c.router.subscribe(sel.Key, sel.User.ID)
	if err != nil {
		return "", err
	}
	defer cancel()

	defer c.clear(ctx, sel.MessageID)
	if err := c.messenger.Edit(ctx, sel.MessageID, withSelect(sel)); err != nil {
		return "", fmt.Errorf("rendering selection: %w", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case ev := <-events:
		se, ok := ev.(*SelectEvent)
		if !ok {
			return "", fmt.Errorf("%w: expected a selection", types.ErrTimeout)
		}
		if len(se.Values) == 0 {
			return "", fmt.Errorf("%w: empty selection", types.ErrValidation)
		}
		value := se.Values[0]
		if !slices.ContainsFunc(sel.Choices, func(ch Choice) bool { return ch.Value == value }) {
			return "", fmt.Errorf("%w: %q is not one of the choices", types.ErrValidation, value)
		}
		return value, nil
	case <-timer.C:
		return "", types.ErrTimeout
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", types.ErrTimeout, ctx.Err())
	}
}

func (c *SelectionCollector) clear(ctx context.Context, messageID string) {
	if err := c.messenger.ClearComponents(context.WithoutCancel(ctx), messageID); err != nil {
		c.logger.Warn("clearing components failed", "message", messageID, "error", err)
	}
}

// withSelect copies the prompt and appends the select component.
func withSelect(sel Selection) *Message {
	msg := &Message{Kind: KindInfo}
	if sel.Prompt != nil {
		cp := *sel.Prompt
		cp.Fields = slices.Clone(cp.Fields)
		cp.Components = slices.Clone(cp.Components)
		msg = &cp
	}
	msg.Components = append(msg.Components, Select{
		CustomID:    sel.Key,
		Placeholder: sel.Placeholder,
		Options:     slices.Clone(sel.Choices),
	})
	return msg
}
