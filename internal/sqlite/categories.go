package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// CreateCategory creates a category with a unique name.
// Returns ErrInvalidName for an empty name and ErrAlreadyExists if the name
// is taken.
func (b *Backend) CreateCategory(ctx context.Context, name string) (*types.Category, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cat := &types.Category{ID: generateUUID(), Name: name, ItemIDs: []string{}}
	err := b.write(ctx, func(tx *sql.Tx) error {
		var dupID string
		err := tx.QueryRowContext(ctx,
			"SELECT category_id FROM categories WHERE name = ?", name,
		).Scan(&dupID)
		if err == nil {
			return fmt.Errorf("category %q: %w", name, types.ErrAlreadyExists)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return storageErr("checking category name uniqueness", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO categories (category_id, name) VALUES (?, ?)", cat.ID, cat.Name,
		); err != nil {
			return storageErr("inserting category", err)
		}
		return nil
	}, categoriesFileName)
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// ListCategories returns all categories ordered by name.
// Returns ErrEmptyResult when the store holds none.
func (b *Backend) ListCategories(ctx context.Context) ([]*types.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}

	cats, err := queryCategories(ctx, b.db, "", nil)
	if err != nil {
		return nil, storageErr("listing categories", err)
	}
	if len(cats) == 0 {
		return nil, types.ErrEmptyResult
	}
	return cats, nil
}

// GetCategory retrieves a category by ID.
func (b *Backend) GetCategory(ctx context.Context, id string) (*types.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return getCategory(ctx, b.db, id)
}

// getCategory loads one category with its membership set.
func getCategory(ctx context.Context, q querier, id string) (*types.Category, error) {
	if id == "" {
		return nil, types.ErrCategoryNotFound
	}
	cats, err := queryCategories(ctx, q, "WHERE category_id = ?", []any{id})
	if err != nil {
		return nil, storageErr("getting category", err)
	}
	if len(cats) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrCategoryNotFound, id)
	}
	return cats[0], nil
}

// queryCategories selects categories matching where and attaches their
// membership sets. The category rows are drained before the membership
// query runs so a single-connection transaction never has two open cursors.
func queryCategories(ctx context.Context, q querier, where string, args []any) ([]*types.Category, error) {
	rows, err := q.QueryContext(ctx, "SELECT category_id, name FROM categories "+where+" ORDER BY name", args...)
	if err != nil {
		return nil, err
	}

	var cats []*types.Category
	byID := make(map[string]*types.Category)
	for rows.Next() {
		c := &types.Category{ItemIDs: []string{}}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		cats = append(cats, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	rows.Close()

	if len(cats) == 0 {
		return cats, nil
	}

	members, err := q.QueryContext(ctx,
		"SELECT m.category_id, m.item_id FROM category_items m JOIN items i ON i.item_id = m.item_id ORDER BY i.name")
	if err != nil {
		return nil, err
	}
	defer members.Close()

	for members.Next() {
		var catID, itemID string
		if err := members.Scan(&catID, &itemID); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		if c, ok := byID[catID]; ok {
			c.ItemIDs = append(c.ItemIDs, itemID)
		}
	}
	if err := members.Err(); err != nil {
		return nil, fmt.Errorf("iterating membership: %w", err)
	}
	return cats, nil
}
