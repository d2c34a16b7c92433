package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// Store is the result-returning façade over a types.Inventory.
type Store struct {
	inv    types.Inventory
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New wraps inv.
func New(inv types.Inventory, opts ...Option) *Store {
	s := &Store{inv: inv, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// call runs fn and converts its outcome. A panic inside fn becomes a
// KindStorage result.
func call[T any](s *Store, op string, fn func() (T, error), success func(T) string, failure func(error) string) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", types.ErrStorage, r)
			s.logger.Error("inventory operation panicked", "op", op, "panic", r)
			res = fail[T](err, failure(err))
		}
	}()

	data, err := fn()
	if err != nil {
		if KindOf(err) == KindStorage {
			s.logger.Error("inventory operation failed", "op", op, "error", err)
		}
		return fail[T](err, failure(err))
	}
	return ok(data, success(data))
}

// CreateCategory creates a category named name.
func (s *Store) CreateCategory(ctx context.Context, name string) Result[*types.Category] {
	return call(s, "create category",
		func() (*types.Category, error) { return s.inv.CreateCategory(ctx, name) },
		func(c *types.Category) string { return fmt.Sprintf("Category **%s** created successfully!", c.Name) },
		func(err error) string {
			switch KindOf(err) {
			case KindAlreadyExists:
				return fmt.Sprintf("Category **%s** already exists!", name)
			case KindValidation:
				return "Category name must not be empty."
			}
			return fmt.Sprintf("Failed to create category **%s**.", name)
		})
}

// ListCategories lists every category.
func (s *Store) ListCategories(ctx context.Context) Result[[]*types.Category] {
	return call(s, "list categories",
		func() ([]*types.Category, error) { return s.inv.ListCategories(ctx) },
		func([]*types.Category) string { return "Categories listed successfully!" },
		func(err error) string {
			if KindOf(err) == KindEmptyResult {
				return "No categories found."
			}
			return "Failed to list categories."
		})
}

// GetCategory looks up a category by id.
func (s *Store) GetCategory(ctx context.Context, id string) Result[*types.Category] {
	return call(s, "get category",
		func() (*types.Category, error) { return s.inv.GetCategory(ctx, id) },
		func(*types.Category) string { return "Category found." },
		categoryFailure("Failed to look up category."))
}

// GetCategoryName returns the name of the category with the given id.
func (s *Store) GetCategoryName(ctx context.Context, id string) Result[string] {
	return call(s, "get category name",
		func() (string, error) {
			c, err := s.inv.GetCategory(ctx, id)
			if err != nil {
				return "", err
			}
			return c.Name, nil
		},
		func(name string) string { return fmt.Sprintf("Category **%s** found.", name) },
		categoryFailure("Failed to look up category."))
}

// ListItems lists the items of a category. An empty category is a success
// with an empty slice.
func (s *Store) ListItems(ctx context.Context, categoryID string) Result[[]*types.Item] {
	return call(s, "list items",
		func() ([]*types.Item, error) { return s.inv.ListItems(ctx, categoryID) },
		func(items []*types.Item) string {
			if len(items) == 0 {
				return "This category has no items."
			}
			return "Items listed successfully!"
		},
		categoryFailure("Failed to list items."))
}

// AddItem creates an item in a category.
func (s *Store) AddItem(ctx context.Context, categoryID string, in types.ItemInput) Result[*types.Item] {
	return call(s, "add item",
		func() (*types.Item, error) { return s.inv.AddItem(ctx, categoryID, in) },
		func(it *types.Item) string {
			return fmt.Sprintf("Item **%s** added with quantity %d.", it.Name, it.Quantity)
		},
		func(err error) string {
			switch KindOf(err) {
			case KindAlreadyExists:
				return fmt.Sprintf("Item **%s** already exists in this category!", in.Name)
			case KindValidation:
				return validationMessage(err)
			case KindNotFound:
				return "Category not found!"
			}
			return "Failed to add item."
		})
}

// RemoveItem removes an item from a category.
func (s *Store) RemoveItem(ctx context.Context, categoryID, name string) Result[*types.Item] {
	return call(s, "remove item",
		func() (*types.Item, error) { return s.inv.RemoveItem(ctx, categoryID, name) },
		func(it *types.Item) string { return fmt.Sprintf("Item **%s** removed successfully!", it.Name) },
		itemFailure("Failed to remove item."))
}

// AdjustQuantity applies a relative quantity change.
func (s *Store) AdjustQuantity(ctx context.Context, categoryID, name string, magnitude int64, op types.Operation) Result[*types.QuantityChange] {
	return call(s, "adjust quantity",
		func() (*types.QuantityChange, error) {
			return s.inv.AdjustQuantity(ctx, categoryID, name, magnitude, op)
		},
		quantityMessage,
		func(err error) string {
			if KindOf(err) == KindInvalidOperation {
				return fmt.Sprintf("Invalid operation %q. Use %q or %q.", op, types.OpIncrement, types.OpDecrement)
			}
			return itemFailure("Failed to update item.")(err)
		})
}

// SetQuantity overwrites an item's quantity.
func (s *Store) SetQuantity(ctx context.Context, categoryID, name string, quantity int64) Result[*types.QuantityChange] {
	return call(s, "set quantity",
		func() (*types.QuantityChange, error) {
			return s.inv.SetQuantity(ctx, categoryID, name, quantity)
		},
		quantityMessage,
		itemFailure("Failed to update item."))
}

func quantityMessage(c *types.QuantityChange) string {
	return fmt.Sprintf("Item **%s** updated successfully! Quantity %d → %d.", c.Item.Name, c.Before, c.After)
}

func categoryFailure(fallback string) func(error) string {
	return func(err error) string {
		if KindOf(err) == KindNotFound {
			return "Category not found!"
		}
		return fallback
	}
}

func itemFailure(fallback string) func(error) string {
	return func(err error) string {
		switch KindOf(err) {
		case KindNotFound:
			if isCategoryNotFound(err) {
				return "Category not found!"
			}
			return "Item not found!"
		case KindValidation:
			return validationMessage(err)
		}
		return fallback
	}
}
