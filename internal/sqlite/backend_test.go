package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()
	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	require.NoError(t, b.Attach(config))
	defer b.Detach()

	for _, name := range []string{dbFileName, categoriesFileName, itemsFileName} {
		_, err := os.Stat(filepath.Join(tmpDir, name))
		assert.NoErrorf(t, err, "%s not created", name)
	}

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
	assert.Equal(t, tmpDir, b.DataDir())
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	_, err := b.ListCategories(ctx)
	assert.ErrorIs(t, err, types.ErrBackendDetached)
	assert.ErrorIs(t, err, types.ErrStorage)

	_, err = b.CreateCategory(ctx, "Minerals")
	assert.ErrorIs(t, err, types.ErrBackendDetached)

	_, err = b.AdjustQuantity(ctx, "x", "y", 1, types.OpIncrement)
	assert.ErrorIs(t, err, types.ErrBackendDetached)
}

func TestBackend_ReattachReloadsJSONL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	cat := mustCategory(t, b, "Minerals")
	_, err := b.AddItem(ctx, cat.ID, types.ItemInput{Name: "Iron", Quantity: 10, Description: "ore"})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := attachAt(t, dir)
	got, err := b2.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Minerals", got.Name)
	require.Len(t, got.ItemIDs, 1)

	items, err := b2.ListItems(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Iron", items[0].Name)
	assert.Equal(t, int64(10), items[0].Quantity)
	assert.Equal(t, "ore", items[0].Description)
	assert.Equal(t, got.ItemIDs[0], items[0].ID)
}
