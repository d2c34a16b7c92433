package types

import "context"

// Inventory defines the persistence operations the workflows drive.
// Every backend returns errors wrapping the kinds in errors.go; any failure
// of the backing store itself wraps ErrStorage.
type Inventory interface {
	// CreateCategory creates a category. Returns ErrAlreadyExists if a
	// category with that name exists.
	CreateCategory(ctx context.Context, name string) (*Category, error)

	// ListCategories returns every category ordered by name.
	// Returns ErrEmptyResult when there are none.
	ListCategories(ctx context.Context) ([]*Category, error)

	// GetCategory returns the category with the given id.
	GetCategory(ctx context.Context, id string) (*Category, error)

	// ListItems returns the items of a category ordered by name.
	ListItems(ctx context.Context, categoryID string) ([]*Item, error)

	// AddItem creates an item and attaches it to the category as one
	// logical operation.
	AddItem(ctx context.Context, categoryID string, in ItemInput) (*Item, error)

	// RemoveItem detaches the item from its category and deletes it as one
	// logical operation. Returns the removed item.
	RemoveItem(ctx context.Context, categoryID, name string) (*Item, error)

	// AdjustQuantity adds or subtracts magnitude from the item's quantity.
	AdjustQuantity(ctx context.Context, categoryID, name string, magnitude int64, op Operation) (*QuantityChange, error)

	// SetQuantity overwrites the item's quantity with an absolute value.
	SetQuantity(ctx context.Context, categoryID, name string, quantity int64) (*QuantityChange, error)
}

// Backend is an Inventory with an attach/detach lifecycle.
type Backend interface {
	Inventory

	// Attach connects the backend described by config.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	// After Detach, operations return ErrBackendDetached.
	Detach() error
}
