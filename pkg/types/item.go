package types

// Item is a stocked entity. Its name is unique within its category.
type Item struct {
	ID          string // UUID v7, generated on creation.
	Name        string
	Quantity    int64
	Description string // Optional.
	CategoryID  string // Weak back-reference used for lookup.
}

// ItemInput carries the user-supplied fields for AddItem.
type ItemInput struct {
	Name        string
	Quantity    int64
	Description string
}

// Validate checks the input before it reaches a backend.
func (in ItemInput) Validate() error {
	if in.Name == "" {
		return ErrInvalidName
	}
	if in.Quantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// QuantityChange records a quantity mutation. Item holds the state after
// the change.
type QuantityChange struct {
	Item   *Item
	Before int64
	After  int64
}
