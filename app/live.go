package app

import (
	"time"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

// Unsubscribe cancels a live subscription. Safe to call more than once.
type Unsubscribe func()

// LiveService opens live subscriptions. Callbacks run on the adapter's own
// goroutines and must not touch UI state directly.
type LiveService interface {
	// SubscribeVotes delivers the authoritative vote count of one item whenever it changes.
	SubscribeVotes(itemID string, onUpdate func(upvotes int), onErr func(error)) (Unsubscribe, error)

	// SubscribeNewItems delivers batches of items created after the given instant, newest first.
	SubscribeNewItems(after time.Time, onBatch func([]domain.Item), onErr func(error)) (Unsubscribe, error)

	// SubscribeTips delivers the full set of tips recorded for an item on every change.
	SubscribeTips(itemID string, onSnapshot func([]domain.Tip), onErr func(error)) (Unsubscribe, error)
}
