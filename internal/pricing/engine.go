package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// LineItem is a product-and-quantity entry used for pricing calculation. The
// price fields are a snapshot of the product at the time it entered the cart.
type LineItem struct {
	ProductID     string `json:"productId"`
	Title         string `json:"title"`
	UnitPrice     Money  `json:"unitPrice"`
	DiscountPrice *Money `json:"discountPrice,omitempty"`
	Image         string `json:"image,omitempty"`
	Qty           int    `json:"qty"`
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money `json:"subtotal"`
	Shipping Money `json:"shipping"`
	Total    Money `json:"total"`
}

// EffectiveUnitPrice returns the discounted price when one is present and
// lower than the list price, otherwise the list price. Negative prices are
// treated as zero.
func EffectiveUnitPrice(it LineItem) Money {
	price := it.UnitPrice
	if it.DiscountPrice != nil && *it.DiscountPrice < price {
		price = *it.DiscountPrice
	}
	if price < 0 {
		return 0
	}
	return price
}

// Subtotal sums effective price times quantity across items.
func Subtotal(items []LineItem) Money {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * EffectiveUnitPrice(it)
	}
	return subtotal
}

// Count sums quantities across items.
func Count(items []LineItem) int {
	var count int
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		count += it.Qty
	}
	return count
}

// Compute calculates cart totals given the provided inputs.
func Compute(items []LineItem, shipping Money) Summary {
	subtotal := Subtotal(items)
	if shipping < 0 {
		shipping = 0
	}
	return Summary{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}
