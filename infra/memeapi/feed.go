package memeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
)

const pageLimit = 20

// feedService implements app.FeedService and app.SearchService over the REST API.
type feedService struct {
	client  *Client
	session app.SessionService // Optional; marks the user's own memes.
}

// NewFeedService creates a feed and search service backed by the meme API.
func NewFeedService(client *Client, session app.SessionService) *feedService {
	return &feedService{client: client, session: session}
}

// memeOwner is the owner block of a meme document.
type memeOwner struct {
	Username string `json:"username"`
	Wallet   string `json:"wallet"`
}

// memeDTO is one entry of a page: a meme, or a server-side week separator.
type memeDTO struct {
	ID              string          `json:"id"`
	SecondaryID     string          `json:"secondaryId"`
	ImageURL        string          `json:"imageUrl"`
	FileType        string          `json:"fileType"`
	Owner           memeOwner       `json:"owner"`
	Upvotes         int             `json:"upvotes"`
	CreatedAt       json.RawMessage `json:"createdAt"`
	Tag             string          `json:"tag"`
	IsWeekSeparator bool            `json:"isWeekSeparator"`
	WeekDiff        int             `json:"weekDiff"`
}

type pageDTO struct {
	Items      []memeDTO `json:"items"`
	NextCursor string    `json:"nextCursor"`
	HasMore    bool      `json:"hasMore"`
	Total      int       `json:"total"`
}

func (s *feedService) FetchPage(ctx context.Context, mode domain.Mode, cursor string) (domain.Page, error) {
	if mode == domain.ModeSearch {
		return domain.Page{}, fmt.Errorf("fetch page: search is served by Search")
	}
	q := url.Values{}
	q.Set("sort", mode.String())
	q.Set("limit", fmt.Sprint(pageLimit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	data, err := s.client.Get(ctx, "/api/memes?"+q.Encode())
	if err != nil {
		return domain.Page{}, fmt.Errorf("fetching %s feed: %w", mode, err)
	}
	return s.parsePage(data)
}

func (s *feedService) Search(ctx context.Context, query, cursor string) (domain.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Page{}, nil
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", fmt.Sprint(pageLimit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	data, err := s.client.Get(ctx, "/api/search?"+q.Encode())
	if err != nil {
		return domain.Page{}, fmt.Errorf("searching %q: %w", query, err)
	}
	page, err := s.parsePage(data)
	if err != nil {
		return domain.Page{}, err
	}
	// Search results never carry separators.
	items := page.Entries[:0]
	for _, e := range page.Entries {
		if !e.IsSeparator() {
			items = append(items, e)
		}
	}
	page.Entries = items
	return page, nil
}

func (s *feedService) parsePage(data []byte) (domain.Page, error) {
	var dto pageDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.Page{}, fmt.Errorf("parsing page: %w", err)
	}
	var self domain.Identity
	if s.session != nil {
		self, _ = s.session.Current()
	}
	entries := make([]domain.Entry, 0, len(dto.Items))
	for _, m := range dto.Items {
		if m.IsWeekSeparator {
			entries = append(entries, domain.SeparatorEntry(m.WeekDiff))
			continue
		}
		if m.ID == "" {
			continue
		}
		entries = append(entries, domain.ItemEntry(mapMeme(m, self)))
	}
	return domain.Page{
		Entries:    entries,
		NextCursor: dto.NextCursor,
		HasMore:    dto.HasMore && dto.NextCursor != "",
		Total:      dto.Total,
	}, nil
}

func mapMeme(m memeDTO, self domain.Identity) domain.Item {
	it := domain.Item{
		ID:          m.ID,
		SecondaryID: strings.TrimSpace(m.SecondaryID),
		ImageURL:    strings.TrimSpace(m.ImageURL),
		FileType:    domain.ParseFileType(m.FileType),
		Owner:       domain.Owner{Username: m.Owner.Username, Wallet: m.Owner.Wallet},
		Upvotes:     max(m.Upvotes, 0),
		CreatedAt:   decodeTimestamp(m.CreatedAt),
		Tag:         m.Tag,
	}
	it.IsOwn = isOwn(it.Owner, self)
	return it
}

func isOwn(owner domain.Owner, self domain.Identity) bool {
	if self.Wallet != "" && owner.Wallet == self.Wallet {
		return true
	}
	return self.Username != "" && strings.EqualFold(owner.Username, self.Username)
}

// decodeTimestamp accepts any timestamp shape the backend emits (ISO string,
// epoch number, {"seconds": n}) and normalizes it.
func decodeTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return time.Time{}
	}
	return domain.NormalizeTime(v)
}
