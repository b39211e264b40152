package events

// Topic constants for domain events emitted by the storefront.
const (
	TopicCartItemAdded      = "cart.item_added"
	TopicCartItemQtyUpdated = "cart.item_qty_updated"
	TopicCartItemRemoved    = "cart.item_removed"
	TopicCartCleared        = "cart.cleared"
	TopicCheckoutConfirmed  = "checkout.confirmed"
	TopicCheckoutFailed     = "checkout.failed"
)

// DefaultTopics returns the canonical list of topics notifiers may subscribe to.
func DefaultTopics() []string {
	return []string{
		TopicCartItemAdded,
		TopicCartItemQtyUpdated,
		TopicCartItemRemoved,
		TopicCartCleared,
		TopicCheckoutConfirmed,
		TopicCheckoutFailed,
	}
}
