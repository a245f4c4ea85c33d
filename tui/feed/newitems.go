package feed

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
)

const (
	newItemLookback = 5 * time.Minute
	seenLimit       = 500
)

// NewItemsMsg carries a batch from the new-item stream.
type NewItemsMsg struct {
	Token int
	Items []domain.Item
}

// NewItemListener watches for memes created after a watermark and buffers
// the accepted ones, newest first.
type NewItemListener struct {
	live app.LiveService
	post func(tea.Msg)
	now  func() time.Time

	enabled   bool
	token     int
	cancel    app.Unsubscribe
	watermark time.Time // zero until first enable; survives Disable

	items []domain.Item
	count int
	seen  map[string]struct{}
	subs  int
}

// NewNewItemListener creates a disabled listener.
func NewNewItemListener(live app.LiveService, post func(tea.Msg)) *NewItemListener {
	return &NewItemListener{
		live: live,
		post: post,
		now:  time.Now,
		seen: make(map[string]struct{}),
	}
}

// Enable opens the single subscription. It is a no-op while enabled.
func (l *NewItemListener) Enable() {
	if l.enabled {
		return
	}
	l.enabled = true
	if l.watermark.IsZero() {
		l.watermark = l.now().Add(-newItemLookback)
	}
	l.token++
	token, post := l.token, l.post
	cancel, err := l.live.SubscribeNewItems(l.watermark,
		func(items []domain.Item) {
			post(NewItemsMsg{Token: token, Items: items})
		},
		func(err error) {
			post(LiveErrorMsg{Stream: "new-items", Err: err})
		},
	)
	if err != nil {
		slog.Warn("new items: subscribe failed", "error", err)
		return
	}
	l.cancel = cancel
	l.subs++
}

// Disable tears down the subscription and resets the outputs. The watermark is kept.
func (l *NewItemListener) Disable() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.enabled = false
	l.token++
	l.items = nil
	l.count = 0
	l.seen = make(map[string]struct{})
}

// Clear empties the buffer, the count and the seen-set.
func (l *NewItemListener) Clear() {
	l.items = nil
	l.count = 0
	l.seen = make(map[string]struct{})
}

// Accept filters a batch and prepends what passes. It returns how many items
// were accepted; batches from a torn-down subscription are ignored.
func (l *NewItemListener) Accept(msg NewItemsMsg) int {
	if !l.enabled || msg.Token != l.token {
		return 0
	}
	buffered := make(map[string]struct{}, len(l.items))
	for _, it := range l.items {
		buffered[it.EffectiveID()] = struct{}{}
	}

	var accepted []domain.Item
	for _, it := range msg.Items {
		if strings.TrimSpace(it.ImageURL) == "" || it.SecondaryID == "" {
			continue
		}
		if _, ok := l.seen[it.SecondaryID]; ok {
			continue
		}
		// The seen-set forgets everything once it passes seenLimit; the
		// buffer itself still dedups what is on screen.
		if _, ok := buffered[it.EffectiveID()]; ok {
			continue
		}
		l.seen[it.SecondaryID] = struct{}{}
		buffered[it.EffectiveID()] = struct{}{}
		accepted = append(accepted, it)
		if it.CreatedAt.After(l.watermark) {
			l.watermark = it.CreatedAt
		}
	}
	if len(l.seen) > seenLimit {
		l.seen = make(map[string]struct{})
	}
	if len(accepted) == 0 {
		return 0
	}

	slices.SortStableFunc(accepted, func(a, b domain.Item) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	l.items = append(accepted, l.items...)
	l.count += len(accepted)
	return len(accepted)
}

// Items is the buffer, newest first.
func (l *NewItemListener) Items() []domain.Item { return l.items }

// Count is the number of accepted items since the last Clear.
func (l *NewItemListener) Count() int { return l.count }

// Watermark is the createdAt lower bound for the next subscription.
func (l *NewItemListener) Watermark() time.Time { return l.watermark }

// Enabled reports whether the subscription is wanted.
func (l *NewItemListener) Enabled() bool { return l.enabled }

// Subscriptions counts how many times the stream was opened.
func (l *NewItemListener) Subscriptions() int { return l.subs }
