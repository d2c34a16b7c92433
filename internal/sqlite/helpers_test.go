package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// newTestBackend attaches a backend to a fresh temp dir.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	return attachAt(t, t.TempDir())
}

// attachAt attaches a backend to dir and detaches it at cleanup.
func attachAt(t *testing.T, dir string) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

// mustCategory creates a category or fails the test.
func mustCategory(t *testing.T, b *Backend, name string) *types.Category {
	t.Helper()
	cat, err := b.CreateCategory(context.Background(), name)
	require.NoError(t, err)
	return cat
}

// mustItem adds an item or fails the test.
func mustItem(t *testing.T, b *Backend, categoryID, name string, qty int64) *types.Item {
	t.Helper()
	it, err := b.AddItem(context.Background(), categoryID, types.ItemInput{Name: name, Quantity: qty})
	require.NoError(t, err)
	return it
}

// readFileRecords decodes every line of a JSONL data file into T.
func readFileRecords[T any](t *testing.T, dir, file string) []T {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, file))
	require.NoError(t, err)
	defer f.Close()

	var out []T
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec T
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, sc.Err())
	return out
}

// requireNoDanglingRefs asserts that every membership id on disk names an
// existing item record.
func requireNoDanglingRefs(t *testing.T, dir string) {
	t.Helper()
	items := map[string]bool{}
	for _, it := range readFileRecords[itemRecord](t, dir, itemsFileName) {
		items[it.ItemID] = true
	}
	for _, c := range readFileRecords[categoryRecord](t, dir, categoriesFileName) {
		for _, id := range c.ItemIDs {
			require.Truef(t, items[id], "category %s references missing item %s", c.Name, id)
		}
	}
}
