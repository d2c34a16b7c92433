package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/stockroom/internal/audit"
	"github.com/mesh-intelligence/stockroom/internal/inventory"
	"github.com/mesh-intelligence/stockroom/internal/session"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// ErrAborted is returned by a Run step that ended the conversation with a
// terminal error message. The cause is wrapped alongside it.
var ErrAborted = errors.New("conversation aborted")

// Run is one conversation. It is owned by a single goroutine.
type Run struct {
	ID    string
	Event *session.CommandEvent

	cmd       Command
	engine    *Engine
	m         *machine
	messageID string
	outcome   inventory.Kind
}

// State returns the current state.
func (r *Run) State() State { return r.m.state }

// Path returns every state visited, in order.
func (r *Run) Path() []State { return append([]State(nil), r.m.path...) }

// MessageID returns the id of the message this run renders on.
func (r *Run) MessageID() string { return r.messageID }

// Outcome returns the kind of the failure that aborted the run, or
// inventory.KindNone.
func (r *Run) Outcome() inventory.Kind { return r.outcome }

func (r *Run) title() string {
	if r.cmd.Title != "" {
		return r.cmd.Title
	}
	return r.cmd.Name
}

// start posts the message the rest of the conversation rewrites.
func (r *Run) start(ctx context.Context) error {
	id, err := r.engine.messenger.Send(ctx, r.Event.ChannelID, pendingMessage(r.title()))
	if err != nil {
		return fmt.Errorf("acknowledging %s: %w", r.cmd.Name, err)
	}
	r.messageID = id
	return nil
}

// SelectCategory lists the categories and waits for the user to pick one.
func (r *Run) SelectCategory(ctx context.Context) (*types.Category, error) {
	if err := r.m.advance(StateAwaitCategory); err != nil {
		return nil, err
	}
	res := r.engine.store.ListCategories(ctx)
	if !res.Success {
		return nil, r.abort(ctx, res.Kind, res.Message, res.Err())
	}

	id, err := r.selectOne(ctx, "category", "Select a category.", "Category", categoryChoices(res.Data))
	if err != nil {
		return nil, err
	}
	for _, c := range res.Data {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, r.abortErr(ctx, types.ErrCategoryNotFound)
}

// SelectItem lists the category's items and waits for the user to pick one.
func (r *Run) SelectItem(ctx context.Context, cat *types.Category) (*types.Item, error) {
	if err := r.m.advance(StateAwaitItem); err != nil {
		return nil, err
	}
	res := r.engine.store.ListItems(ctx, cat.ID)
	if !res.Success {
		return nil, r.abort(ctx, res.Kind, res.Message, res.Err())
	}
	if len(res.Data) == 0 {
		return nil, r.abort(ctx, inventory.KindEmptyResult,
			fmt.Sprintf("Category **%s** has no items.", cat.Name), types.ErrEmptyResult)
	}

	body := fmt.Sprintf("Category **%s**. Select an item.", cat.Name)
	name, err := r.selectOne(ctx, "item", body, "Item", itemChoices(res.Data))
	if err != nil {
		return nil, err
	}
	for _, it := range res.Data {
		if it.Name == name {
			return it, nil
		}
	}
	return nil, r.abortErr(ctx, types.ErrItemNotFound)
}

// SelectOperation waits for the user to choose a direction for item.
func (r *Run) SelectOperation(ctx context.Context, item *types.Item) (types.Operation, error) {
	if err := r.m.advance(StateAwaitOperation); err != nil {
		return "", err
	}
	body := fmt.Sprintf("Item **%s** (quantity %d). Add or remove stock?", item.Name, item.Quantity)
	token, err := r.selectOne(ctx, "operation", body, "Operation", operationChoices())
	if err != nil {
		return "", err
	}
	op, err := types.ParseOperation(token)
	if err != nil {
		return "", r.abortErr(ctx, err)
	}
	return op, nil
}

// CollectQuantity opens the quantity form for item and applies the
// submitted magnitude. It always ends the conversation.
func (r *Run) CollectQuantity(ctx context.Context, cat *types.Category, item *types.Item, op types.Operation) error {
	if err := r.m.advance(StateAwaitQuantity); err != nil {
		return err
	}
	e := r.engine
	req := session.QuantityRequest{
		Key:       session.FormKey{CategoryID: cat.ID, ItemName: item.Name, Operation: op},
		User:      r.Event.User,
		MessageID: r.messageID,
		Title:     fmt.Sprintf("%s: %s", op.Label(), item.Name),
	}
	if err := e.messenger.Edit(ctx, r.messageID, promptMessage(r.title(),
		fmt.Sprintf("Enter the quantity to %s for **%s**.", verb(op), item.Name))); err != nil {
		return r.abortErr(ctx, fmt.Errorf("%w: %w", types.ErrStorage, err))
	}

	collector := session.NewQuantityCollector(e.router, e.messenger, mutateOnce{r}, e.formTimeout, e.logger)
	res := collector.Wait(ctx, req)
	if r.m.state != StateMutate {
		return r.abort(ctx, res.Kind, collectorBody(res), res.Err())
	}

	evt := &audit.Event{
		Action:       audit.ActionItemAdjust,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Item:         item.Name,
		Operation:    string(op),
	}
	if res.Success {
		evt.Before, evt.After = audit.Qty(res.Data.Before), audit.Qty(res.Data.After)
	}
	return finish(ctx, r, res, evt, func(*types.QuantityChange) *session.Message {
		return successMessage(r.title(), res.Message)
	})
}

// mutateOnce moves the run to StateMutate at the moment the collector calls
// the store.
type mutateOnce struct{ r *Run }

func (m mutateOnce) AdjustQuantity(ctx context.Context, categoryID, name string, magnitude int64, op types.Operation) inventory.Result[*types.QuantityChange] {
	if err := m.r.m.advance(StateMutate); err != nil {
		return inventory.Result[*types.QuantityChange]{Message: "Something went wrong.", Kind: inventory.KindStorage, Detail: err.Error()}
	}
	return m.r.engine.store.AdjustQuantity(ctx, categoryID, name, magnitude, op)
}

// Mutate moves the run to StateMutate. Call it right before the single
// store call that ends the conversation.
func (r *Run) Mutate() error {
	return r.m.advance(StateMutate)
}

// selectOne renders a selection and waits for it. Failures abort the run.
func (r *Run) selectOne(ctx context.Context, step, body, placeholder string, choices []session.Choice) (string, error) {
	e := r.engine
	c := session.NewSelectionCollector(e.router, e.messenger, e.selectionTimeout, e.logger)
	value, err := c.Wait(ctx, session.Selection{
		Key:         session.SelectKey(r.ID, step),
		User:        r.Event.User,
		MessageID:   r.messageID,
		Prompt:      promptMessage(r.title(), body),
		Placeholder: placeholder,
		Choices:     choices,
	})
	if err != nil {
		return "", r.abortErr(ctx, err)
	}
	return value, nil
}

// finish renders the outcome of the store call made in StateMutate and
// records it. evt is completed with actor, outcome and time.
func finish[T any](ctx context.Context, r *Run, res inventory.Result[T], evt *audit.Event, success func(T) *session.Message) error {
	if evt != nil {
		if res.Success {
			evt.Outcome = audit.OutcomeSuccess
		} else {
			evt.Outcome = audit.OutcomeFailure
			evt.Reason = res.Message
		}
		r.record(ctx, evt)
	}
	if !res.Success {
		return r.abort(ctx, res.Kind, res.Message, res.Err())
	}
	if err := r.m.advance(StateDone); err != nil {
		return err
	}
	if err := r.engine.messenger.Edit(ctx, r.messageID, success(res.Data)); err != nil {
		r.engine.logger.Error("rendering result failed", "run", r.ID, "error", err)
	}
	return nil
}

// abort ends the conversation with one message rewrite.
func (r *Run) abort(ctx context.Context, kind inventory.Kind, body string, cause error) error {
	if err := r.m.advance(StateAborted); err != nil {
		return err
	}
	r.outcome = kind
	if err := r.engine.messenger.Edit(ctx, r.messageID, failureMessage(r.title(), kind, body)); err != nil {
		r.engine.logger.Error("rendering abort failed", "run", r.ID, "error", err)
	}
	if cause == nil {
		return ErrAborted
	}
	return fmt.Errorf("%w: %w", ErrAborted, cause)
}

// abortErr aborts with a message chosen from err's kind.
func (r *Run) abortErr(ctx context.Context, err error) error {
	kind := inventory.KindOf(err)
	return r.abort(ctx, kind, bodyFor(kind), err)
}

func (r *Run) record(ctx context.Context, evt *audit.Event) {
	e := r.engine
	evt.Actor = audit.Actor{ID: r.Event.User.ID, Name: r.Event.User.Name}
	evt.Time = e.now()
	if err := e.audit.Record(context.WithoutCancel(ctx), evt); err != nil {
		e.logger.Warn("audit record failed", "action", evt.Action, "error", err)
	}
}

func bodyFor(kind inventory.Kind) string {
	switch kind {
	case inventory.KindTimeout:
		return timeoutBody()
	case inventory.KindValidation, inventory.KindInvalidOperation:
		return "That selection is not valid."
	case inventory.KindNotFound:
		return "The selected entry no longer exists."
	}
	return "Something went wrong. Please try again later."
}

// collectorBody picks the message for a quantity form that never reached
// the store.
func collectorBody(res inventory.Result[*types.QuantityChange]) string {
	if res.Kind == inventory.KindTimeout {
		return timeoutBody()
	}
	return res.Message
}

func verb(op types.Operation) string {
	if op == types.OpDecrement {
		return "remove"
	}
	return "add"
}
