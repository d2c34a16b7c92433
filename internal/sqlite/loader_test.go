package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, categoriesFileName,
		`{"category_id":"c1","name":"Minerals","item_ids":["i1"]}
not json
{"category_id":"","name":"nameless"}
`)
	writeDataFile(t, dir, itemsFileName,
		`{"item_id":"i1","category_id":"c1","name":"Iron","quantity":7}
{broken
`)

	b := attachAt(t, dir)
	cats, err := b.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, []string{"i1"}, cats[0].ItemIDs)

	items, err := b.ListItems(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].Quantity)
}

func TestLoadDropsDanglingMembership(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, categoriesFileName,
		`{"category_id":"c1","name":"Minerals","item_ids":["i1","ghost"]}
{"category_id":"c2","name":"Tools","item_ids":["i1"]}
`)
	writeDataFile(t, dir, itemsFileName,
		`{"item_id":"i1","category_id":"c1","name":"Iron","quantity":1}
`)

	b := attachAt(t, dir)
	got, err := b.GetCategory(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, got.ItemIDs)

	tools, err := b.GetCategory(context.Background(), "c2")
	require.NoError(t, err)
	assert.Empty(t, tools.ItemIDs, "an item belongs to the category it names")

	requireNoDanglingRefs(t, dir)
}

func TestLoadSkipsItemsOfUnknownCategory(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, categoriesFileName, `{"category_id":"c1","name":"Minerals","item_ids":[]}
`)
	writeDataFile(t, dir, itemsFileName, `{"item_id":"i9","category_id":"gone","name":"Iron","quantity":1}
`)

	attachAt(t, dir)
	assert.Empty(t, readFileRecords[itemRecord](t, dir, itemsFileName))
}

func TestLoadReportDirtyFiles(t *testing.T) {
	assert.Empty(t, loadReport{}.dirtyFiles())
	assert.Equal(t, []string{categoriesFileName}, loadReport{droppedRefs: 1}.dirtyFiles())
	assert.Equal(t, []string{categoriesFileName, itemsFileName},
		loadReport{droppedRefs: 1, prunedItems: 2}.dirtyFiles())
}
