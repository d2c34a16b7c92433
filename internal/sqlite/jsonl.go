package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// categoryRecord is one line of categories.jsonl.
type categoryRecord struct {
	CategoryID string   `json:"category_id"`
	Name       string   `json:"name"`
	ItemIDs    []string `json:"item_ids"`
}

// itemRecord is one line of items.jsonl.
type itemRecord struct {
	ItemID      string `json:"item_id"`
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Quantity    int64  `json:"quantity"`
	Description string `json:"description,omitempty"`
}

// initJSONLFiles creates empty data files that do not exist yet.
func initJSONLFiles(dataDir string) error {
	for _, name := range []string{categoriesFileName, itemsFileName} {
		path := filepath.Join(dataDir, name)
		_, err := os.Stat(path)
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", name, err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
	}
	return nil
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// snapshotCategories renders every category with its membership set.
func snapshotCategories(ctx context.Context, q querier) ([]json.RawMessage, error) {
	cats, err := queryCategories(ctx, q, "", nil)
	if err != nil {
		return nil, err
	}
	records := make([]json.RawMessage, 0, len(cats))
	for _, c := range cats {
		ids := c.ItemIDs
		if ids == nil {
			ids = []string{}
		}
		data, err := json.Marshal(categoryRecord{CategoryID: c.ID, Name: c.Name, ItemIDs: ids})
		if err != nil {
			return nil, fmt.Errorf("marshaling category: %w", err)
		}
		records = append(records, data)
	}
	return records, nil
}

// snapshotItems renders every item record.
func snapshotItems(ctx context.Context, q querier) ([]json.RawMessage, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT item_id, category_id, name, quantity, description FROM items ORDER BY category_id, name")
	if err != nil {
		return nil, fmt.Errorf("querying items for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec itemRecord
		if err := rows.Scan(&rec.ItemID, &rec.CategoryID, &rec.Name, &rec.Quantity, &rec.Description); err != nil {
			return nil, fmt.Errorf("scanning item for JSONL: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling item for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items for JSONL: %w", err)
	}
	return records, nil
}
