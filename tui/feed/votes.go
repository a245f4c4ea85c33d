package feed

import (
	"log/slog"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
)

const voteDebounce = 300 * time.Millisecond

// voteScope separates the browse listener from the search-results listener.
type voteScope int

const (
	scopeFeed voteScope = iota
	scopeSearch
)

// voteSyncMsg fires when the debounce window for a Sync call elapses.
type voteSyncMsg struct {
	Scope voteScope
	Seq   int
}

// VoteDeliveredMsg carries one live vote count. Token identifies the
// subscription that produced it.
type VoteDeliveredMsg struct {
	Scope   voteScope
	ItemID  string
	Token   int
	Upvotes int
}

// LiveErrorMsg reports a broken live stream. The stream degrades; the feed keeps working.
type LiveErrorMsg struct {
	Stream string
	ItemID string
	Err    error
}

type voteSub struct {
	token  int
	cancel app.Unsubscribe
}

// VoteListener keeps one live vote subscription per id of the current set
// and the latest observed count per id.
type VoteListener struct {
	scope voteScope
	live  app.LiveService
	post  func(tea.Msg)
	now   func() time.Time

	seq       int
	pending   []string
	active    []string // last reconciled id set
	subs      map[string]voteSub
	nextToken int
	updates   map[string]domain.VoteUpdate

	opens  map[string]int
	closes map[string]int
}

// NewVoteListener creates an idle listener. post is called from adapter
// goroutines and must be safe for concurrent use.
func NewVoteListener(scope voteScope, live app.LiveService, post func(tea.Msg)) *VoteListener {
	return &VoteListener{
		scope:   scope,
		live:    live,
		post:    post,
		now:     time.Now,
		subs:    make(map[string]voteSub),
		updates: make(map[string]domain.VoteUpdate),
		opens:   make(map[string]int),
		closes:  make(map[string]int),
	}
}

// Sync schedules a reconcile against ids after the debounce window. A later
// Sync supersedes an earlier one that has not fired. Unchanged sets are ignored.
func (l *VoteListener) Sync(ids []string) tea.Cmd {
	if l.pending != nil && slices.Equal(l.pending, ids) {
		return nil
	}
	if l.pending == nil && slices.Equal(l.active, ids) {
		return nil
	}
	l.pending = slices.Clone(ids)
	if l.pending == nil {
		l.pending = []string{}
	}
	l.seq++
	seq, scope := l.seq, l.scope
	return tea.Tick(voteDebounce, func(time.Time) tea.Msg {
		return voteSyncMsg{Scope: scope, Seq: seq}
	})
}

// HandleSync runs the reconcile for a debounce tick that is still current.
func (l *VoteListener) HandleSync(msg voteSyncMsg) bool {
	if msg.Seq != l.seq || l.pending == nil {
		return false
	}
	ids := l.pending
	l.pending = nil
	l.reconcile(ids)
	return true
}

// reconcile closes ids that left the set, opens ids that joined it, and
// leaves the rest untouched. A closed id loses its observed count: nothing
// keeps it current once the subscription is gone.
func (l *VoteListener) reconcile(ids []string) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			want[id] = struct{}{}
		}
	}
	for id, sub := range l.subs {
		if _, ok := want[id]; ok {
			continue
		}
		sub.cancel()
		delete(l.subs, id)
		delete(l.updates, id)
		l.closes[id]++
	}
	for _, id := range ids {
		if _, ok := want[id]; !ok {
			continue
		}
		if _, ok := l.subs[id]; ok {
			continue
		}
		l.open(id)
	}
	l.active = slices.Clone(ids)
}

func (l *VoteListener) open(id string) {
	l.nextToken++
	token, scope, post := l.nextToken, l.scope, l.post
	cancel, err := l.live.SubscribeVotes(id,
		func(upvotes int) {
			post(VoteDeliveredMsg{Scope: scope, ItemID: id, Token: token, Upvotes: upvotes})
		},
		func(err error) {
			post(LiveErrorMsg{Stream: "votes", ItemID: id, Err: err})
		},
	)
	if err != nil {
		slog.Warn("votes: subscribe failed", "item_id", id, "error", err)
		return
	}
	l.subs[id] = voteSub{token: token, cancel: cancel}
	l.opens[id]++
}

// Deliver records a live count. Deliveries from a cancelled subscription
// are dropped and Deliver reports false.
func (l *VoteListener) Deliver(msg VoteDeliveredMsg) bool {
	sub, ok := l.subs[msg.ItemID]
	if !ok || sub.token != msg.Token {
		return false
	}
	l.updates[msg.ItemID] = domain.VoteUpdate{
		ItemID:     msg.ItemID,
		Upvotes:    max(msg.Upvotes, 0),
		ObservedAt: l.now().UnixMilli(),
	}
	return true
}

// Disable cancels every subscription, drops any pending debounce and clears
// the update map.
func (l *VoteListener) Disable() {
	l.seq++
	l.pending = nil
	l.active = nil
	for id, sub := range l.subs {
		sub.cancel()
		l.closes[id]++
	}
	l.subs = make(map[string]voteSub)
	l.updates = make(map[string]domain.VoteUpdate)
}

// Updates is the current id -> VoteUpdate map. Callers must not modify it.
func (l *VoteListener) Updates() map[string]domain.VoteUpdate { return l.updates }

// Active lists the ids with an open subscription.
func (l *VoteListener) Active() []string {
	ids := make([]string, 0, len(l.subs))
	for id := range l.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Opens counts subscriptions opened for id over the listener's lifetime.
// An id kept across set changes stays at 1.
func (l *VoteListener) Opens(id string) int { return l.opens[id] }

// Closes counts subscriptions cancelled for id.
func (l *VoteListener) Closes(id string) int { return l.closes[id] }
