package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockroom/internal/sqlite"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = b.Detach() })
	return New(b)
}

// panicking is an Inventory whose ListCategories panics.
type panicking struct{ types.Inventory }

func (panicking) ListCategories(context.Context) ([]*types.Category, error) {
	panic("connection reset")
}

func TestStore_CreateCategory(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	res := s.CreateCategory(ctx, "Minerals")
	require.True(t, res.Success)
	assert.Equal(t, KindNone, res.Kind)
	assert.Equal(t, "Category **Minerals** created successfully!", res.Message)
	assert.Equal(t, "Minerals", res.Data.Name)
	assert.NoError(t, res.Err())

	res = s.CreateCategory(ctx, "Minerals")
	assert.False(t, res.Success)
	assert.Equal(t, KindAlreadyExists, res.Kind)
	assert.Equal(t, "Category **Minerals** already exists!", res.Message)
	assert.ErrorIs(t, res.Err(), types.ErrAlreadyExists)

	res = s.CreateCategory(ctx, "")
	assert.Equal(t, KindValidation, res.Kind)
}

func TestStore_ListCategoriesEmpty(t *testing.T) {
	res := newStore(t).ListCategories(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, KindEmptyResult, res.Kind)
	assert.Equal(t, "No categories found.", res.Message)
}

func TestStore_ItemResults(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	cat := s.CreateCategory(ctx, "Minerals").Data

	tests := []struct {
		name    string
		run     func() (bool, Kind, string)
		success bool
		kind    Kind
		message string
	}{
		{
			name: "add item",
			run: func() (bool, Kind, string) {
				r := s.AddItem(ctx, cat.ID, types.ItemInput{Name: "Iron", Quantity: 10})
				return r.Success, r.Kind, r.Message
			},
			success: true,
			message: "Item **Iron** added with quantity 10.",
		},
		{
			name: "duplicate item",
			run: func() (bool, Kind, string) {
				r := s.AddItem(ctx, cat.ID, types.ItemInput{Name: "Iron", Quantity: 1})
				return r.Success, r.Kind, r.Message
			},
			kind:    KindAlreadyExists,
			message: "Item **Iron** already exists in this category!",
		},
		{
			name: "increment",
			run: func() (bool, Kind, string) {
				r := s.AdjustQuantity(ctx, cat.ID, "Iron", 5, types.OpIncrement)
				return r.Success, r.Kind, r.Message
			},
			success: true,
			message: "Item **Iron** updated successfully! Quantity 10 → 15.",
		},
		{
			name: "invalid operation",
			run: func() (bool, Kind, string) {
				r := s.AdjustQuantity(ctx, cat.ID, "Iron", 5, types.Operation("double"))
				return r.Success, r.Kind, r.Message
			},
			kind:    KindInvalidOperation,
			message: `Invalid operation "double". Use "increment" or "decrement".`,
		},
		{
			name: "below zero",
			run: func() (bool, Kind, string) {
				r := s.AdjustQuantity(ctx, cat.ID, "Iron", 99, types.OpDecrement)
				return r.Success, r.Kind, r.Message
			},
			kind:    KindValidation,
			message: "Quantity must not go below zero.",
		},
		{
			name: "unknown item",
			run: func() (bool, Kind, string) {
				r := s.RemoveItem(ctx, cat.ID, "Gold")
				return r.Success, r.Kind, r.Message
			},
			kind:    KindNotFound,
			message: "Item not found!",
		},
		{
			name: "unknown category",
			run: func() (bool, Kind, string) {
				r := s.SetQuantity(ctx, "missing", "Iron", 1)
				return r.Success, r.Kind, r.Message
			},
			kind:    KindNotFound,
			message: "Category not found!",
		},
		{
			name: "remove item",
			run: func() (bool, Kind, string) {
				r := s.RemoveItem(ctx, cat.ID, "Iron")
				return r.Success, r.Kind, r.Message
			},
			success: true,
			message: "Item **Iron** removed successfully!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			success, kind, message := tt.run()
			assert.Equal(t, tt.success, success)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestStore_GetCategoryName(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	cat := s.CreateCategory(ctx, "Minerals").Data

	res := s.GetCategoryName(ctx, cat.ID)
	require.True(t, res.Success)
	assert.Equal(t, "Minerals", res.Data)

	res = s.GetCategoryName(ctx, "missing")
	assert.Equal(t, KindNotFound, res.Kind)
}

func TestStore_RecoversPanics(t *testing.T) {
	s := New(panicking{})
	var res Result[[]*types.Category]
	require.NotPanics(t, func() { res = s.ListCategories(context.Background()) })
	assert.False(t, res.Success)
	assert.Equal(t, KindStorage, res.Kind)
	assert.Contains(t, res.Detail, "connection reset")
	assert.ErrorIs(t, res.Err(), types.ErrStorage)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{types.ErrItemNotFound, KindNotFound},
		{types.ErrAlreadyExists, KindAlreadyExists},
		{types.ErrEmptyResult, KindEmptyResult},
		{types.ErrInvalidOperation, KindInvalidOperation},
		{types.ErrNegativeQuantity, KindValidation},
		{types.ErrTimeout, KindTimeout},
		{types.ErrBackendDetached, KindStorage},
		{errors.New("boom"), KindStorage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "%v", tt.err)
	}
}
