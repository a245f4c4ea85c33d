package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type stubFeed struct {
	pages map[string]domain.Page // key: mode/cursor
	calls []string
}

func (s *stubFeed) FetchPage(_ context.Context, mode domain.Mode, cursor string) (domain.Page, error) {
	key := mode.String() + "/" + cursor
	s.calls = append(s.calls, key)
	p, ok := s.pages[key]
	if !ok {
		return domain.Page{}, fmt.Errorf("no page %s", key)
	}
	return p, nil
}

type stubSearch struct {
	pages map[string]domain.Page // key: query/cursor
}

func (s stubSearch) Search(_ context.Context, query, cursor string) (domain.Page, error) {
	return s.pages[query+"/"+cursor], nil
}

// fakeLive records subscriptions and lets tests push deliveries.
type fakeLive struct {
	mu        sync.Mutex
	voteCbs   map[string]func(int)
	opened    map[string]int
	cancelled map[string]int
	newAfter  []time.Time
	newCbs    []func([]domain.Item)
	newCancel int
	failVotes bool
}

func newFakeLive() *fakeLive {
	return &fakeLive{
		voteCbs:   make(map[string]func(int)),
		opened:    make(map[string]int),
		cancelled: make(map[string]int),
	}
}

func (f *fakeLive) SubscribeVotes(itemID string, onUpdate func(int), _ func(error)) (app.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failVotes {
		return nil, fmt.Errorf("votes unavailable")
	}
	f.opened[itemID]++
	f.voteCbs[itemID] = onUpdate
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancelled[itemID]++
	}, nil
}

func (f *fakeLive) SubscribeNewItems(after time.Time, onBatch func([]domain.Item), _ func(error)) (app.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newAfter = append(f.newAfter, after)
	f.newCbs = append(f.newCbs, onBatch)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.newCancel++
	}, nil
}

func (f *fakeLive) SubscribeTips(string, func([]domain.Tip), func(error)) (app.Unsubscribe, error) {
	return func() {}, nil
}

// pushVote invokes the latest vote callback for id.
func (f *fakeLive) pushVote(id string, n int) {
	f.mu.Lock()
	cb := f.voteCbs[id]
	f.mu.Unlock()
	if cb != nil {
		cb(n)
	}
}

// collector stands in for the inbox: it records posted messages.
type collector struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (c *collector) post(msg tea.Msg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *collector) drain() []tea.Msg {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.msgs
	c.msgs = nil
	return out
}

func makeItem(id string, createdAt time.Time) domain.Item {
	return domain.Item{
		ID:          id,
		SecondaryID: "s-" + id,
		ImageURL:    "https://cdn.example/" + id + ".png",
		FileType:    domain.FileImage,
		Owner:       domain.Owner{Username: "user" + id},
		Upvotes:     1,
		CreatedAt:   createdAt,
	}
}

func pageOf(cursor string, items ...domain.Item) domain.Page {
	p := domain.Page{NextCursor: cursor, HasMore: cursor != "", Total: len(items)}
	for _, it := range items {
		p.Entries = append(p.Entries, domain.ItemEntry(it))
	}
	return p
}

func itemIDs(entries []domain.Entry) []string {
	var ids []string
	for _, e := range entries {
		if e.Item != nil {
			ids = append(ids, e.Item.ID)
		}
	}
	return ids
}

func keys(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key()
	}
	return out
}

func newTestModel(feed *stubFeed, live *fakeLive, c *collector) Model {
	m := New(Options{
		Feed:   feed,
		Search: stubSearch{},
		Live:   live,
		Post:   c.post,
		Now:    func() time.Time { return testNow },
	})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// runCmd executes cmd and returns the messages it produced, expanding batches.
// Ticks are skipped so tests never sleep.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(50 * time.Millisecond):
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}
