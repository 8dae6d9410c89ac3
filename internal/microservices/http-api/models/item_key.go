package models

import "fmt"

// ItemKey identifies a rated item: the owning module plus the item's id inside it.
type ItemKey struct {
	Module string
	ItemID string
}

// String renders the key for logs. It is length-prefixed so that
// ("a1", "23") and ("a", "123") never print the same.
func (k ItemKey) String() string {
	return fmt.Sprintf("%d:%s:%s", len(k.Module), k.Module, k.ItemID)
}

// IsZero reports whether either part of the key is missing.
func (k ItemKey) IsZero() bool {
	return k.Module == "" || k.ItemID == ""
}
