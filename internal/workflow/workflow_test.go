package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockroom/internal/audit"
	"github.com/mesh-intelligence/stockroom/internal/inventory"
	"github.com/mesh-intelligence/stockroom/internal/session"
)

const (
	quick = 40 * time.Millisecond
	ample = 2 * time.Second
)

var alice = session.User{ID: "alice", Name: "Alice"}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ample)

	r, err := h.engine.Execute(ctx, command(alice, CmdCreateCategory, map[string]string{"name": "Minerals"}))
	require.NoError(t, err)
	assert.Equal(t, StateDone, r.State())
	assert.Equal(t, []State{StateStart, StateMutate, StateDone}, r.Path())

	msg := h.chat.lastEdit(t, r.MessageID())
	assert.Equal(t, session.KindSuccess, msg.Kind)
	assert.Contains(t, msg.Body, "Minerals")

	events := h.sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionCategoryCreate, events[0].Action)
	assert.Equal(t, audit.OutcomeSuccess, events[0].Outcome)
	assert.Equal(t, "alice", events[0].Actor.ID)
	assert.NotEmpty(t, events[0].CategoryID)

	t.Run("duplicate name aborts", func(t *testing.T) {
		r, err := h.engine.Execute(ctx, command(alice, CmdCreateCategory, map[string]string{"name": "Minerals"}))
		require.NoError(t, err)
		assert.Equal(t, StateAborted, r.State())
		assert.Equal(t, inventory.KindAlreadyExists, r.Outcome())
		assert.Contains(t, h.chat.lastEdit(t, r.MessageID()).Body, "already exists")

		cats, err := h.backend.ListCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, cats, 1)
	})

	t.Run("missing name aborts before the store", func(t *testing.T) {
		r, err := h.engine.Execute(ctx, command(alice, CmdCreateCategory, nil))
		require.NoError(t, err)
		assert.Equal(t, []State{StateStart, StateAborted}, r.Path())
		assert.Equal(t, inventory.KindValidation, r.Outcome())
	})
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("increment", func(t *testing.T) {
		h := newHarness(t, ample)
		cat := h.category(t, "Minerals", map[string]int64{"Iron": 10})
		h.chat.script(alice, "5", "Minerals", "Iron", "Add stock")

		r, err := h.engine.Execute(ctx, command(alice, CmdUpdateItem, nil))
		require.NoError(t, err)
		assert.Equal(t, []State{
			StateStart, StateAwaitCategory, StateAwaitItem, StateAwaitOperation,
			StateAwaitQuantity, StateMutate, StateDone,
		}, r.Path())
		assert.Equal(t, int64(15), h.quantity(t, cat.ID, "Iron"))
		assert.Contains(t, h.chat.lastEdit(t, r.MessageID()).Body, "10 → 15")
		assert.Equal(t, 3, h.chat.clearsOf(r.MessageID()), "one clear per selection")

		events := h.sink.all()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionItemAdjust, events[0].Action)
		assert.Equal(t, int64(10), *events[0].Before)
		assert.Equal(t, int64(15), *events[0].After)
		assert.Equal(t, "increment", events[0].Operation)
	})

	t.Run("plus five then minus three", func(t *testing.T) {
		h := newHarness(t, ample)
		cat := h.category(t, "Minerals", map[string]int64{"Iron": 10})

		h.chat.script(alice, "5", "Minerals", "Iron", "Add stock")
		_, err := h.engine.Execute(ctx, command(alice, CmdUpdateItem, nil))
		require.NoError(t, err)
		h.chat.script(alice, "3", "Minerals", "Iron", "Remove stock")
		_, err = h.engine.Execute(ctx, command(alice, CmdUpdateItem, nil))
		require.NoError(t, err)

		assert.Equal(t, int64(12), h.quantity(t, cat.ID, "Iron"))
	})

	t.Run("non-integer quantity aborts without mutating", func(t *testing.T) {
		h := newHarness(t, ample)
		cat := h.category(t, "Minerals", map[string]int64{"Iron": 10})
		h.chat.script(alice, "lots", "Minerals", "Iron", "Add stock")

		r, err := h.engine.Execute(ctx, command(alice, CmdUpdateItem, nil))
		require.NoError(t, err)
		assert.Equal(t, StateAborted, r.State())
		assert.NotContains(t, r.Path(), StateMutate)
		assert.Equal(t, inventory.KindValidation, r.Outcome())
		assert.Equal(t, session.KindWarning, h.chat.lastEdit(t, r.MessageID()).Kind)
		assert.Equal(t, int64(10), h.quantity(t, cat.ID, "Iron"))
		assert.Empty(t, h.sink.all())
	})

	t.Run("decrement below zero is rejected by the store", func(t *testing.T) {
		h := newHarness(t, ample)
		cat := h.category(t, "Minerals", map[string]int64{"Iron": 2})
		h.chat.script(alice, "5", "Minerals", "Iron", "Remove stock")

		r, err := h.engine.Execute(ctx, command(alice, CmdUpdateItem, nil))
		require.NoError(t, err)
		assert.Contains(t, r.Path(), StateMutate)
		assert.Equal(t, StateAborted, r.State())
		assert.Equal(t, int64(2), h.quantity(t, cat.ID, "Iron"))

		events := h.sink.all()
		require.Len(t, events, 1)
		assert.Equal(t, audit.OutcomeFailure, events[0].Outcome)
	})

	t.Run("form timeout aborts", func(t *testing.T) {
		h := newHarness(t, quick)
		h.category(t, "Minerals", map[string]int64{"Iron": 10})
		h.chat.script(alice, noAnswer, "Minerals", "Iron", "Add stock")

		r, err := h.engine.Execute(ctx, command(alice, CmdUpdateItem, nil))
		require.NoError(t, err)
		assert.Equal(t, inventory.KindTimeout, r.Outcome())
		assert.Zero(t, h.router.Pending())
	})
}

func TestSelectionTimeoutRewritesOnce(t *testing.T) {
	h := newHarness(t, quick)
	h.category(t, "Minerals", nil)

	r, err := h.engine.Execute(context.Background(), command(alice, CmdViewStock, nil))
	require.NoError(t, err)
	assert.Equal(t, []State{StateStart, StateAwaitCategory, StateAborted}, r.Path())
	assert.Equal(t, inventory.KindTimeout, r.Outcome())

	edits := h.chat.editsOf(r.MessageID())
	require.Len(t, edits, 2, "the prompt and exactly one terminal rewrite")
	assert.NotEmpty(t, edits[0].Components)
	assert.Empty(t, edits[1].Components)
	assert.Contains(t, edits[1].Body, "No response received in time")
	assert.Equal(t, 1, h.chat.clearsOf(r.MessageID()))
	assert.Zero(t, h.router.Pending(), "no collector left pending")

	late := &session.SelectEvent{User: alice, CustomID: session.SelectKey(r.ID, "category"), Values: []string{"x"}}
	assert.False(t, h.router.Deliver(late))
	assert.Len(t, h.chat.editsOf(r.MessageID()), 2)
}

func TestViewStock(t *testing.T) {
	ctx := context.Background()

	t.Run("lists items", func(t *testing.T) {
		h := newHarness(t, ample)
		h.category(t, "Minerals", map[string]int64{"Iron": 10, "Gold": 2})
		h.chat.script(alice, noAnswer, "Minerals")

		r, err := h.engine.Execute(ctx, command(alice, CmdViewStock, nil))
		require.NoError(t, err)
		assert.Equal(t, []State{StateStart, StateAwaitCategory, StateMutate, StateDone}, r.Path())

		msg := h.chat.lastEdit(t, r.MessageID())
		assert.Equal(t, "Stock: Minerals", msg.Title)
		require.Len(t, msg.Fields, 2)
		assert.Equal(t, "Gold", msg.Fields[0].Name)
		assert.Equal(t, "Quantity: 2", msg.Fields[0].Value)
		assert.Equal(t, audit.ActionStockView, h.sink.all()[0].Action)
	})

	t.Run("no categories", func(t *testing.T) {
		h := newHarness(t, ample)
		r, err := h.engine.Execute(ctx, command(alice, CmdViewStock, nil))
		require.NoError(t, err)
		assert.Equal(t, inventory.KindEmptyResult, r.Outcome())
		assert.Equal(t, "No categories found.", h.chat.lastEdit(t, r.MessageID()).Body)
	})

	t.Run("selection from another user is ignored", func(t *testing.T) {
		h := newHarness(t, 200*time.Millisecond)
		h.engine.newID = func() string { return "run-1" }
		h.category(t, "Minerals", nil)

		done := make(chan *Run, 1)
		go func() {
			r, _ := h.engine.Execute(ctx, command(alice, CmdViewStock, nil))
			done <- r
		}()
		require.Eventually(t, func() bool { return h.router.Pending() == 1 }, ample, time.Millisecond)

		bob := &session.SelectEvent{
			User:     session.User{ID: "bob"},
			CustomID: session.SelectKey("run-1", "category"),
			Values:   []string{"x"},
		}
		assert.False(t, h.router.Deliver(bob))

		r := <-done
		assert.Equal(t, inventory.KindTimeout, r.Outcome())
	})
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ample)
	cat := h.category(t, "Minerals", nil)
	h.chat.script(alice, noAnswer, "Minerals")

	r, err := h.engine.Execute(ctx, command(alice, CmdAddItem, map[string]string{
		"item": "Iron", "quantity": "10", "description": "raw ore",
	}))
	require.NoError(t, err)
	assert.Equal(t, StateDone, r.State())

	items, err := h.backend.ListItems(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "raw ore", items[0].Description)

	t.Run("non-integer quantity option", func(t *testing.T) {
		r, err := h.engine.Execute(ctx, command(alice, CmdAddItem, map[string]string{"item": "Gold", "quantity": "ten"}))
		require.NoError(t, err)
		assert.Equal(t, []State{StateStart, StateAborted}, r.Path())
		assert.Equal(t, "Quantity must be a whole number.", h.chat.lastEdit(t, r.MessageID()).Body)
	})

	t.Run("negative quantity is rejected before any prompt", func(t *testing.T) {
		before := len(h.sink.all())
		r, err := h.engine.Execute(ctx, command(alice, CmdAddItem, map[string]string{"item": "Gold", "quantity": "-2"}))
		require.NoError(t, err)
		assert.Equal(t, []State{StateStart, StateAborted}, r.Path())
		assert.Len(t, h.chat.editsOf(r.MessageID()), 1)
		assert.Zero(t, h.chat.clearsOf(r.MessageID()))
		assert.Equal(t, "Quantity must not be negative.", h.chat.lastEdit(t, r.MessageID()).Body)
		assert.Len(t, h.sink.all(), before)
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the chosen item", func(t *testing.T) {
		h := newHarness(t, ample)
		cat := h.category(t, "Minerals", map[string]int64{"Iron": 10, "Gold": 1})
		h.chat.script(alice, noAnswer, "Minerals", "Iron")

		r, err := h.engine.Execute(ctx, command(alice, CmdRemoveItem, nil))
		require.NoError(t, err)
		assert.Equal(t, StateDone, r.State())

		got, err := h.backend.ListItems(ctx, cat.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Gold", got[0].Name)
		assert.Equal(t, int64(10), *h.sink.all()[0].Before)
	})

	t.Run("empty category aborts", func(t *testing.T) {
		h := newHarness(t, ample)
		h.category(t, "Minerals", nil)
		h.chat.script(alice, noAnswer, "Minerals")

		r, err := h.engine.Execute(ctx, command(alice, CmdRemoveItem, nil))
		require.NoError(t, err)
		assert.Equal(t, inventory.KindEmptyResult, r.Outcome())
		assert.Equal(t, []State{StateStart, StateAwaitCategory, StateAwaitItem, StateAborted}, r.Path())
	})
}

func TestSetQuantity(t *testing.T) {
	h := newHarness(t, ample)
	cat := h.category(t, "Minerals", map[string]int64{"Iron": 10})
	h.chat.script(alice, noAnswer, "Minerals", "Iron")

	r, err := h.engine.Execute(context.Background(), command(alice, CmdSetQuantity, map[string]string{"quantity": "3"}))
	require.NoError(t, err)
	assert.Equal(t, StateDone, r.State())
	assert.Equal(t, int64(3), h.quantity(t, cat.ID, "Iron"))
	assert.Equal(t, audit.ActionItemSet, h.sink.all()[0].Action)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, ample)
	_, err := h.engine.Execute(context.Background(), command(alice, "dance", nil))
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestConcurrentRunsAreIsolated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ample)
	a := h.category(t, "Minerals", map[string]int64{"Iron": 10})
	b := h.category(t, "Tools", map[string]int64{"Hammer": 4})

	before, err := h.backend.ListItems(ctx, b.ID)
	require.NoError(t, err)

	users := []session.User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}
	for _, u := range users {
		h.chat.script(u, "1", "Minerals", "Iron", "Add stock")
	}
	viewer := session.User{ID: "viewer"}
	h.chat.script(viewer, noAnswer, "Tools")

	var wg sync.WaitGroup
	for _, u := range users {
		h.engine.HandleCommand(ctx, command(u, CmdUpdateItem, nil))
	}
	wg.Add(1)
	var view *Run
	go func() {
		defer wg.Done()
		view, _ = h.engine.Execute(ctx, command(viewer, CmdViewStock, nil))
	}()
	h.engine.Wait()
	wg.Wait()

	after, err := h.backend.ListItems(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, StateDone, view.State())
	assert.Equal(t, int64(13), h.quantity(t, a.ID, "Iron"))
}
