package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
)

// loadReport counts the repairs made while loading.
type loadReport struct {
	prunedItems  int // item records no category references
	droppedRefs  int // membership ids pointing at a missing or foreign item
	skippedItems int // item records whose category does not exist
}

// dirtyFiles lists the data files that no longer match SQLite.
func (r loadReport) dirtyFiles() []string {
	var files []string
	if r.droppedRefs > 0 {
		files = append(files, categoriesFileName)
	}
	if r.prunedItems > 0 || r.skippedItems > 0 {
		files = append(files, itemsFileName)
	}
	return files
}

// load reads both JSONL files into the empty SQLite tables in one
// transaction and restores the membership invariant: an item survives only
// if its category lists it. An unreferenced item is what an add or remove
// leaves behind when it stops between its two files, so pruning it either
// rolls back the add or completes the remove.
func (b *Backend) load(ctx context.Context) (loadReport, error) {
	var report loadReport

	cats, err := readCategoryRecords(filepath.Join(b.config.DataDir, categoriesFileName))
	if err != nil {
		return report, err
	}
	items, err := readItemRecords(filepath.Join(b.config.DataDir, itemsFileName))
	if err != nil {
		return report, err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	knownCats := make(map[string]bool, len(cats))
	for _, c := range cats {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO categories (category_id, name) VALUES (?, ?)", c.CategoryID, c.Name); err != nil {
			b.logger.Warn("skipping category record", "category_id", c.CategoryID, "error", err)
			continue
		}
		knownCats[c.CategoryID] = true
	}

	owner := make(map[string]string, len(items))
	for _, it := range items {
		if !knownCats[it.CategoryID] {
			b.logger.Warn("skipping item with unknown category", "item_id", it.ItemID, "category_id", it.CategoryID)
			report.skippedItems++
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO items (item_id, category_id, name, quantity, description) VALUES (?, ?, ?, ?, ?)",
			it.ItemID, it.CategoryID, it.Name, it.Quantity, it.Description); err != nil {
			b.logger.Warn("skipping item record", "item_id", it.ItemID, "error", err)
			report.skippedItems++
			continue
		}
		owner[it.ItemID] = it.CategoryID
	}

	referenced := make(map[string]bool, len(owner))
	for _, c := range cats {
		if !knownCats[c.CategoryID] {
			continue
		}
		for _, id := range c.ItemIDs {
			if owner[id] != c.CategoryID || referenced[id] {
				b.logger.Warn("dropping dangling membership", "category_id", c.CategoryID, "item_id", id)
				report.droppedRefs++
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO category_items (category_id, item_id) VALUES (?, ?)", c.CategoryID, id); err != nil {
				return report, fmt.Errorf("loading membership: %w", err)
			}
			referenced[id] = true
		}
	}

	for id := range owner {
		if referenced[id] {
			continue
		}
		b.logger.Warn("pruning unreferenced item", "item_id", id, "category_id", owner[id])
		if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE item_id = ?", id); err != nil {
			return report, fmt.Errorf("pruning item: %w", err)
		}
		report.prunedItems++
	}

	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("committing load transaction: %w", err)
	}
	return report, nil
}

// readCategoryRecords parses categories.jsonl, skipping unusable lines.
func readCategoryRecords(path string) ([]categoryRecord, error) {
	raw, err := readJSONL(path)
	if err != nil {
		return nil, err
	}
	records := make([]categoryRecord, 0, len(raw))
	for _, line := range raw {
		var rec categoryRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.CategoryID == "" || rec.Name == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// readItemRecords parses items.jsonl, skipping unusable lines.
func readItemRecords(path string) ([]itemRecord, error) {
	raw, err := readJSONL(path)
	if err != nil {
		return nil, err
	}
	records := make([]itemRecord, 0, len(raw))
	for _, line := range raw {
		var rec itemRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.ItemID == "" || rec.Name == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
