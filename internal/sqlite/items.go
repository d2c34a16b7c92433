package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// ListItems returns the items owned by a category ordered by name.
// Returns ErrCategoryNotFound for an unknown category.
func (b *Backend) ListItems(ctx context.Context, categoryID string) ([]*types.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	if _, err := getCategory(ctx, b.db, categoryID); err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, `SELECT i.item_id, i.category_id, i.name, i.quantity, i.description
FROM items i JOIN category_items m ON m.item_id = i.item_id
WHERE m.category_id = ?
ORDER BY i.name`, categoryID)
	if err != nil {
		return nil, storageErr("listing items", err)
	}
	defer rows.Close()

	items := []*types.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storageErr("scanning item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating items", err)
	}
	return items, nil
}

// AddItem creates an item and adds its id to the category's membership set.
// items.jsonl is written before categories.jsonl, so an interrupted add
// leaves at most an unreferenced item record that the next Attach prunes.
func (b *Backend) AddItem(ctx context.Context, categoryID string, in types.ItemInput) (*types.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	item := &types.Item{
		ID:          generateUUID(),
		Name:        in.Name,
		Quantity:    in.Quantity,
		Description: in.Description,
		CategoryID:  categoryID,
	}
	err := b.write(ctx, func(tx *sql.Tx) error {
		cat, err := getCategory(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if _, err := findItem(ctx, tx, categoryID, in.Name); err == nil {
			return fmt.Errorf("item %q in category %q: %w", in.Name, cat.Name, types.ErrAlreadyExists)
		} else if !errors.Is(err, types.ErrNotFound) {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO items (item_id, category_id, name, quantity, description) VALUES (?, ?, ?, ?, ?)",
			item.ID, item.CategoryID, item.Name, item.Quantity, item.Description,
		); err != nil {
			return storageErr("inserting item", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO category_items (category_id, item_id) VALUES (?, ?)", categoryID, item.ID,
		); err != nil {
			return storageErr("attaching item", err)
		}
		return nil
	}, itemsFileName, categoriesFileName)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem removes the item's id from its category and deletes the item.
// categories.jsonl is written before items.jsonl, so an interrupted remove
// never leaves a membership id pointing at a missing item.
func (b *Backend) RemoveItem(ctx context.Context, categoryID, name string) (*types.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var removed *types.Item
	err := b.write(ctx, func(tx *sql.Tx) error {
		if _, err := getCategory(ctx, tx, categoryID); err != nil {
			return err
		}
		it, err := findItem(ctx, tx, categoryID, name)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM category_items WHERE category_id = ? AND item_id = ?", categoryID, it.ID,
		); err != nil {
			return storageErr("detaching item", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE item_id = ?", it.ID); err != nil {
			return storageErr("deleting item", err)
		}
		removed = it
		return nil
	}, categoriesFileName, itemsFileName)
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// AdjustQuantity adds or subtracts magnitude from the item's quantity.
// Returns ErrInvalidOperation for an unknown op and ErrNegativeQuantity if
// the result would drop below zero.
func (b *Backend) AdjustQuantity(ctx context.Context, categoryID, name string, magnitude int64, op types.Operation) (*types.QuantityChange, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidOperation, string(op))
	}
	if magnitude < 0 {
		return nil, fmt.Errorf("%w: magnitude must not be negative", types.ErrValidation)
	}
	return b.updateQuantity(ctx, categoryID, name, func(current int64) (int64, error) {
		return op.Apply(current, magnitude)
	})
}

// SetQuantity overwrites the item's quantity with an absolute value.
func (b *Backend) SetQuantity(ctx context.Context, categoryID, name string, quantity int64) (*types.QuantityChange, error) {
	return b.updateQuantity(ctx, categoryID, name, func(int64) (int64, error) {
		return quantity, nil
	})
}

// updateQuantity reads the item, computes the new quantity and writes it
// inside one transaction.
func (b *Backend) updateQuantity(ctx context.Context, categoryID, name string, next func(int64) (int64, error)) (*types.QuantityChange, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var change *types.QuantityChange
	err := b.write(ctx, func(tx *sql.Tx) error {
		if _, err := getCategory(ctx, tx, categoryID); err != nil {
			return err
		}
		it, err := findItem(ctx, tx, categoryID, name)
		if err != nil {
			return err
		}

		after, err := next(it.Quantity)
		if err != nil {
			return err
		}
		if after < 0 {
			return fmt.Errorf("%w: %s would become %d", types.ErrNegativeQuantity, name, after)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE items SET quantity = ? WHERE item_id = ?", after, it.ID,
		); err != nil {
			return storageErr("updating quantity", err)
		}

		before := it.Quantity
		it.Quantity = after
		change = &types.QuantityChange{Item: it, Before: before, After: after}
		return nil
	}, itemsFileName)
	if err != nil {
		return nil, err
	}
	return change, nil
}

// findItem looks an item up by name within a category.
func findItem(ctx context.Context, q querier, categoryID, name string) (*types.Item, error) {
	row := q.QueryRowContext(ctx,
		"SELECT item_id, category_id, name, quantity, description FROM items WHERE category_id = ? AND name = ?",
		categoryID, name)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", types.ErrItemNotFound, name)
		}
		return nil, storageErr("finding item", err)
	}
	return it, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanItem converts one row into a *types.Item.
func scanItem(s scanner) (*types.Item, error) {
	var it types.Item
	if err := s.Scan(&it.ID, &it.CategoryID, &it.Name, &it.Quantity, &it.Description); err != nil {
		return nil, err
	}
	return &it, nil
}
