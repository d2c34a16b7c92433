package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema DDL. category_items is the membership set; items.category_id is
// the weak back-reference.
const (
	createCategories = `CREATE TABLE categories (
    category_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);`

	createItems = `CREATE TABLE items (
    item_id TEXT PRIMARY KEY,
    category_id TEXT NOT NULL,
    name TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    UNIQUE (category_id, name),
    FOREIGN KEY (category_id) REFERENCES categories(category_id)
);`

	createCategoryItems = `CREATE TABLE category_items (
    category_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    PRIMARY KEY (category_id, item_id),
    FOREIGN KEY (category_id) REFERENCES categories(category_id),
    FOREIGN KEY (item_id) REFERENCES items(item_id)
);`
)

// Index DDL for common queries.
const (
	idxItemsCategory     = `CREATE INDEX idx_items_category ON items(category_id);`
	idxCategoryItemsItem = `CREATE INDEX idx_category_items_item ON category_items(item_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCategories,
	createItems,
	createCategoryItems,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxItemsCategory,
	idxCategoryItemsItem,
}

// dataTables lists tables in the order they must be cleared.
var dataTables = []string{"category_items", "items", "categories"}

// createSchema executes every table and index statement.
func createSchema(db *sql.DB) error {
	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// clearTables deletes every row, children first.
func clearTables(ctx context.Context, q querier) error {
	for _, table := range dataTables {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}
