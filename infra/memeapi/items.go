package memeapi

import (
	"context"
	"fmt"
	"net/url"
)

// itemService implements app.ItemService using the meme API.
type itemService struct {
	client *Client
}

// NewItemService creates an ItemService backed by the meme API.
func NewItemService(client *Client) *itemService {
	return &itemService{client: client}
}

func (s *itemService) Upvote(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/memes/%s/upvote", url.PathEscape(id))
	if _, err := s.client.PostJSON(ctx, path, struct{}{}); err != nil {
		return fmt.Errorf("upvoting meme: %w", err)
	}
	return nil
}

func (s *itemService) Delete(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/memes/%s", url.PathEscape(id))
	if _, err := s.client.Delete(ctx, path); err != nil {
		return fmt.Errorf("deleting meme: %w", err)
	}
	return nil
}
