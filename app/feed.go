package app

import (
	"context"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

// FeedService fetches one page of a browse feed (latest, hot or random).
// Cursor is opaque: pass back exactly what a previous Page returned, or "" for page one.
type FeedService interface {
	FetchPage(ctx context.Context, mode domain.Mode, cursor string) (domain.Page, error)
}

// SearchService fetches one page of search results for a non-empty query.
type SearchService interface {
	Search(ctx context.Context, query, cursor string) (domain.Page, error)
}

// ItemService performs user actions on a single meme.
type ItemService interface {
	// Upvote adds the signed-in user's vote to the item.
	Upvote(ctx context.Context, id string) error

	// Delete removes an item the signed-in user owns.
	Delete(ctx context.Context, id string) error
}
