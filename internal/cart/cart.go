package cart

import (
	"github.com/tokokriya/storefront/internal/pricing"
)

// Cart is the authoritative ordered collection of line items for one
// customer session. At most one line item exists per product id; quantities
// are always positive.
type Cart struct {
	ID    string             `json:"id"`
	Items []pricing.LineItem `json:"items"`
}

// Contains reports whether a line item exists for the product id.
func (c *Cart) Contains(productID string) bool {
	return c.indexOf(productID) >= 0
}

// Total recomputes the cart total from the item list on every call. There is
// no stored counter that could drift from the items.
func (c *Cart) Total() pricing.Money {
	return pricing.Subtotal(c.Items)
}

// Count recomputes the summed quantity across items on every call.
func (c *Cart) Count() int {
	return pricing.Count(c.Items)
}

// add merges the product into the cart. When a line item for the product
// already exists its quantity is increased; otherwise a new line item is
// appended preserving insertion order. It reports whether a new line was
// created.
func (c *Cart) add(item pricing.LineItem) (created bool) {
	if item.Qty < 1 {
		return false
	}
	if i := c.indexOf(item.ProductID); i >= 0 {
		c.Items[i].Qty += item.Qty
		return false
	}
	c.Items = append(c.Items, item)
	return true
}

// setQuantity replaces the quantity for the matching line item. Quantities
// below 1 are rejected without mutating; callers remove the item instead of
// setting zero. Unknown product ids are a no-op.
func (c *Cart) setQuantity(productID string, qty int) (changed bool) {
	if qty < 1 {
		return false
	}
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items[i].Qty = qty
	return true
}

// remove deletes the matching line item, preserving the order of the rest.
// Absent product ids are a no-op, not an error.
func (c *Cart) remove(productID string) (removed bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
