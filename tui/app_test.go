package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
	"github.com/CrestNiraj12/terminalmeme/infra/localstore"
	"github.com/CrestNiraj12/terminalmeme/tui/common"
	"github.com/CrestNiraj12/terminalmeme/tui/feed"
	"github.com/CrestNiraj12/terminalmeme/tui/signin"
	"github.com/CrestNiraj12/terminalmeme/tui/tip"
)

type stubFeed struct{}

func (stubFeed) FetchPage(context.Context, domain.Mode, string) (domain.Page, error) {
	return domain.Page{}, nil
}

func (stubFeed) Search(context.Context, string, string) (domain.Page, error) {
	return domain.Page{}, nil
}

type stubItems struct {
	mu       sync.Mutex
	upvotes  []string
	deletes  []string
	upvoteEr error
}

func (s *stubItems) Upvote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upvotes = append(s.upvotes, id)
	return s.upvoteEr
}

func (s *stubItems) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	return nil
}

type stubLive struct {
	tipStreams int
	cancelled  int
}

func (l *stubLive) SubscribeVotes(string, func(int), func(error)) (app.Unsubscribe, error) {
	return func() {}, nil
}

func (l *stubLive) SubscribeNewItems(time.Time, func([]domain.Item), func(error)) (app.Unsubscribe, error) {
	return func() {}, nil
}

func (l *stubLive) SubscribeTips(string, func([]domain.Tip), func(error)) (app.Unsubscribe, error) {
	l.tipStreams++
	return func() { l.cancelled++ }, nil
}

type stubSession struct {
	id domain.Identity
	ok bool
}

func (s *stubSession) Current() (domain.Identity, bool) { return s.id, s.ok }

func (s *stubSession) SignInGuest(username, wallet string) (domain.Identity, error) {
	s.id = domain.Identity{Username: username, Wallet: wallet, Guest: true}
	s.ok = true
	return s.id, nil
}

type stubPrices struct{}

func (stubPrices) Price(string) (decimal.Decimal, bool) { return decimal.NewFromInt(1), true }
func (stubPrices) Refresh(context.Context) error        { return nil }

type harness struct {
	items   *stubItems
	live    *stubLive
	session *stubSession
	store   *localstore.MemoryStore
	inbox   *common.Inbox
}

func newHarness() *harness {
	return &harness{
		items:   &stubItems{},
		live:    &stubLive{},
		session: &stubSession{},
		store:   localstore.NewMemoryStore(),
		inbox:   common.NewInbox(16),
	}
}

func (h *harness) app() App {
	a := NewApp(Deps{
		Feed:    stubFeed{},
		Search:  stubFeed{},
		Items:   h.items,
		Live:    h.live,
		Session: h.session,
		Prices:  stubPrices{},
		Store:   h.store,
		Inbox:   h.inbox,
		Token:   "SOL",
	})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m.(App)
}

func update(a App, msg tea.Msg) (App, tea.Cmd) {
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

// collect runs cmd, expanding batches. Commands slower than 50ms (ticks,
// cursor blinks) are skipped.
func collect(cmd tea.Cmd) []tea.Msg {
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
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func keyMsg(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestApp_RestoresSavedMode(t *testing.T) {
	h := newHarness()
	h.store.SetString(localstore.KeyFeedMode, "hot")
	a := h.app()
	if a.feed.Selected() != domain.ModeHot {
		t.Fatalf("expected hot restored, got %v", a.feed.Selected())
	}
}

func TestApp_PersistsModeChanges(t *testing.T) {
	h := newHarness()
	a, _ := update(h.app(), feed.ModeChangedMsg{Mode: domain.ModeRandom})
	_ = a
	if got, _ := h.store.GetString(localstore.KeyFeedMode); got != "random" {
		t.Fatalf("expected random saved, got %q", got)
	}
}

func TestApp_QuitOnlyWhenFeedNotCapturing(t *testing.T) {
	h := newHarness()
	a := h.app()
	a, _ = update(a, keyMsg("/"))
	_, cmd := update(a, keyMsg("q"))
	for _, msg := range collect(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			t.Fatalf("q must type into the search input, not quit")
		}
	}

	_, cmd = update(h.app(), keyMsg("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestApp_UpvoteRequiresSignIn(t *testing.T) {
	h := newHarness()
	a, _ := update(h.app(), feed.UpvoteItemMsg{ID: "m1"})
	if a.active != signinView {
		t.Fatalf("expected sign-in prompt, got view %v", a.active)
	}
	if len(h.items.upvotes) != 0 {
		t.Fatalf("upvote must not be sent without a session")
	}
}

func TestApp_UpvoteOncePerItem(t *testing.T) {
	h := newHarness()
	h.session.id, h.session.ok = domain.Identity{Username: "alice"}, true
	a := h.app()

	a, cmd := update(a, feed.UpvoteItemMsg{ID: "m1"})
	a, _ = update(a, cmd())
	if len(h.items.upvotes) != 1 || !h.store.GetBool(localstore.VotedKey("m1")) {
		t.Fatalf("expected one upvote and a saved flag, got %v", h.items.upvotes)
	}

	a, cmd = update(a, feed.UpvoteItemMsg{ID: "m1"})
	if cmd != nil || len(h.items.upvotes) != 1 {
		t.Fatalf("second upvote must be refused locally")
	}
	if !strings.Contains(a.View(), "already upvoted") {
		t.Fatalf("expected notice in status bar")
	}
}

func TestApp_FailedUpvoteClearsFlag(t *testing.T) {
	h := newHarness()
	h.session.id, h.session.ok = domain.Identity{Username: "alice"}, true
	h.items.upvoteEr = errors.New("nope")
	a, cmd := update(h.app(), feed.UpvoteItemMsg{ID: "m1"})
	a, _ = update(a, cmd())
	if h.store.GetBool(localstore.VotedKey("m1")) {
		t.Fatalf("failed upvote must not leave the voted flag")
	}
	if !a.statusErr {
		t.Fatalf("expected an error status")
	}
}

func TestApp_DeleteIsOptimistic(t *testing.T) {
	h := newHarness()
	a, cmd := update(h.app(), feed.DeleteItemMsg{ID: "m1"})
	var result tea.Msg
	for _, msg := range collect(cmd) {
		if r, ok := msg.(feed.DeleteResultMsg); ok {
			result = r
		}
	}
	if result == nil || len(h.items.deletes) != 1 {
		t.Fatalf("expected a background delete, got %v", h.items.deletes)
	}
	a, _ = update(a, result)
	if !strings.Contains(a.View(), "Meme deleted") {
		t.Fatalf("expected delete notice")
	}
}

func TestApp_TipViewOpensAndCloses(t *testing.T) {
	h := newHarness()
	a, _ := update(h.app(), feed.TipItemMsg{Item: domain.Item{ID: "m1", Owner: domain.Owner{Username: "bob", Wallet: "BobWallet"}}})
	if a.active != tipView || h.live.tipStreams != 1 {
		t.Fatalf("expected tip view with one tip stream")
	}

	a, _ = update(a, tip.ClosedMsg{})
	if a.active != feedView || h.live.cancelled != 1 {
		t.Fatalf("closing must return to the feed and cancel the stream")
	}
}

func TestApp_SignInFromTipReturnsToTip(t *testing.T) {
	h := newHarness()
	a, _ := update(h.app(), feed.TipItemMsg{Item: domain.Item{ID: "m1"}})
	a, _ = update(a, common.SignInRequestedMsg{Reason: "wallet needed"})
	if a.active != signinView {
		t.Fatalf("expected sign-in view")
	}
	a, _ = update(a, signin.DoneMsg{Identity: domain.Identity{Username: "alice", Wallet: "W"}})
	if a.active != tipView {
		t.Fatalf("expected to resume the tip view, got %v", a.active)
	}
	if !strings.Contains(a.View(), "Signed in as alice") {
		t.Fatalf("expected sign-in notice")
	}
}

func TestApp_InboxMessagesAreRoutedAndDrainContinues(t *testing.T) {
	h := newHarness()
	a := h.app()
	h.inbox.Post(common.NoticeMsg{Text: "hello"})

	msg := h.inbox.Wait()()
	a, cmd := update(a, msg)
	if !strings.Contains(a.View(), "hello") {
		t.Fatalf("expected inbox notice to reach the status bar")
	}
	if cmd == nil {
		t.Fatalf("expected the inbox wait to be re-issued")
	}
	h.inbox.Close()
}

func TestApp_UnauthorizedNoticeSuggestsSignIn(t *testing.T) {
	h := newHarness()
	a, _ := update(h.app(), common.NoticeMsg{Text: "Upvote failed", Err: domain.ErrUnauthorized})
	if !strings.Contains(a.View(), "press s to sign in") {
		t.Fatalf("expected sign-in hint, got %q", a.View())
	}
}
