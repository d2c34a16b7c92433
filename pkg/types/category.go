package types

import "slices"

// Category is a named grouping that owns a set of item identities.
// Names are unique across the store.
type Category struct {
	ID      string   // UUID v7, generated on creation.
	Name    string   // Unique, non-empty.
	ItemIDs []string // Membership set; ids of the items this category owns.
}

// HasItem reports whether id is in the category's membership set.
func (c *Category) HasItem(id string) bool {
	return slices.Contains(c.ItemIDs, id)
}
