package live

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
)

// Subjects published by the backend.
const (
	subjectCreated = "memes.created"
	subjectVotes   = "memes.votes"
	subjectTips    = "tips"
)

// Connect dials NATS with reconnects enabled; live streams degrade rather than fail.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("terminalmeme"),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("live: disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("live: reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return nc, nil
}

// Service implements app.LiveService on NATS subjects.
type Service struct {
	nc   *nats.Conn
	tips app.TipService // Seeds tip snapshots before live events arrive.
}

// NewService creates a LiveService. tips may be nil, in which case tip
// snapshots start empty.
func NewService(nc *nats.Conn, tips app.TipService) *Service {
	return &Service{nc: nc, tips: tips}
}

type voteEvent struct {
	ItemID  string `json:"id"`
	Upvotes int    `json:"upvotes"`
}

type createdEvent struct {
	ID          string          `json:"id"`
	SecondaryID string          `json:"secondaryId"`
	ImageURL    string          `json:"imageUrl"`
	FileType    string          `json:"fileType"`
	Username    string          `json:"username"`
	Wallet      string          `json:"wallet"`
	Upvotes     int             `json:"upvotes"`
	CreatedAt   json.RawMessage `json:"createdAt"`
	Tag         string          `json:"tag"`
}

type tipEvent struct {
	TransactionID   string          `json:"transactionId"`
	FromWallet      string          `json:"fromWallet"`
	ToWallet        string          `json:"toWallet"`
	ItemID          string          `json:"memeId"`
	Amount          decimal.Decimal `json:"amount"`
	Token           string          `json:"token"`
	PriceAtSendTime decimal.Decimal `json:"priceAtSendTime"`
	CreatedAt       json.RawMessage `json:"createdAt"`
}

func (s *Service) SubscribeVotes(itemID string, onUpdate func(int), onErr func(error)) (app.Unsubscribe, error) {
	subj, err := subject(subjectVotes, itemID)
	if err != nil {
		return nil, err
	}
	sub, err := s.nc.Subscribe(subj, func(msg *nats.Msg) {
		var ev voteEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			report(onErr, fmt.Errorf("decoding vote event on %s: %w", msg.Subject, err))
			return
		}
		onUpdate(max(ev.Upvotes, 0))
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subj, err)
	}
	return unsubscriber(sub), nil
}

func (s *Service) SubscribeNewItems(after time.Time, onBatch func([]domain.Item), onErr func(error)) (app.Unsubscribe, error) {
	sub, err := s.nc.Subscribe(subjectCreated, func(msg *nats.Msg) {
		items, err := decodeCreated(msg.Data)
		if err != nil {
			report(onErr, fmt.Errorf("decoding created event: %w", err))
			return
		}
		items = newerThan(items, after)
		if len(items) > 0 {
			onBatch(items)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subjectCreated, err)
	}
	return unsubscriber(sub), nil
}

func (s *Service) SubscribeTips(itemID string, onSnapshot func([]domain.Tip), onErr func(error)) (app.Unsubscribe, error) {
	subj, err := subject(subjectTips, itemID)
	if err != nil {
		return nil, err
	}
	ledger := newTipLedger(onSnapshot)
	sub, err := s.nc.Subscribe(subj, func(msg *nats.Msg) {
		var ev tipEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			report(onErr, fmt.Errorf("decoding tip event: %w", err))
			return
		}
		ledger.event(ev.toTip())
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subj, err)
	}

	// Subscribe first, then seed, so nothing published in between is lost.
	// Events that arrive before the seed are folded into the first snapshot.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		var seed []domain.Tip
		if s.tips != nil {
			tips, err := s.tips.ListTips(ctx, itemID)
			if err != nil && ctx.Err() == nil {
				report(onErr, fmt.Errorf("seeding tips: %w", err))
			}
			seed = tips
		}
		ledger.seed(seed)
	}()

	unsub := unsubscriber(sub)
	return func() {
		cancel()
		ledger.close()
		unsub()
	}, nil
}

func (ev tipEvent) toTip() domain.Tip {
	return domain.Tip{
		TransactionID:   ev.TransactionID,
		FromWallet:      ev.FromWallet,
		ToWallet:        ev.ToWallet,
		ItemID:          ev.ItemID,
		Amount:          ev.Amount,
		Token:           ev.Token,
		PriceAtSendTime: ev.PriceAtSendTime,
		CreatedAt:       decodeTimestamp(ev.CreatedAt),
	}
}

// decodeCreated accepts either one event object or an array of them and
// returns the items newest first.
func decodeCreated(data []byte) ([]domain.Item, error) {
	data = bytes.TrimSpace(data)
	var events []createdEvent
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, err
		}
	} else {
		var ev createdEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		events = []createdEvent{ev}
	}
	items := make([]domain.Item, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" {
			continue
		}
		items = append(items, domain.Item{
			ID:          ev.ID,
			SecondaryID: strings.TrimSpace(ev.SecondaryID),
			ImageURL:    strings.TrimSpace(ev.ImageURL),
			FileType:    domain.ParseFileType(ev.FileType),
			Owner:       domain.Owner{Username: ev.Username, Wallet: ev.Wallet},
			Upvotes:     max(ev.Upvotes, 0),
			CreatedAt:   decodeTimestamp(ev.CreatedAt),
			Tag:         ev.Tag,
		})
	}
	sortNewestFirst(items)
	return items, nil
}

func newerThan(items []domain.Item, after time.Time) []domain.Item {
	out := items[:0]
	for _, it := range items {
		if it.CreatedAt.After(after) {
			out = append(out, it)
		}
	}
	return out
}

func sortNewestFirst(items []domain.Item) {
	slices.SortStableFunc(items, func(a, b domain.Item) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

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

// subject builds "<prefix>.<id>", rejecting ids that are not a single NATS token.
func subject(prefix, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, ".*> \t\r\n") {
		return "", fmt.Errorf("invalid subject token %q", id)
	}
	return prefix + "." + id, nil
}

func unsubscriber(sub *nats.Subscription) app.Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
				slog.Debug("live: unsubscribe", "subject", sub.Subject, "error", err)
			}
		})
	}
}

func report(onErr func(error), err error) {
	slog.Warn("live: stream error", "error", err)
	if onErr != nil {
		onErr(err)
	}
}

// tipLedger accumulates tips for one item, unique by transaction id.
// Snapshots are emitted under the lock, so they reach emit in ledger
// order and never shrink. Nothing is emitted before seed or after close.
type tipLedger struct {
	mu     sync.Mutex
	tips   []domain.Tip
	seen   map[string]struct{}
	emit   func([]domain.Tip)
	seeded bool
	closed bool
}

func newTipLedger(emit func([]domain.Tip)) *tipLedger {
	if emit == nil {
		emit = func([]domain.Tip) {}
	}
	return &tipLedger{seen: make(map[string]struct{}), emit: emit}
}

// event records a live tip and emits a snapshot once seeding is done.
func (l *tipLedger) event(t domain.Tip) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.add(t) && l.seeded && !l.closed {
		l.emit(l.copyTips())
	}
}

// seed merges the stored tips and emits the first snapshot.
func (l *tipLedger) seed(tips []domain.Tip) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.seeded {
		return
	}
	l.add(tips...)
	l.seeded = true
	l.emit(l.copyTips())
}

func (l *tipLedger) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// add appends unseen tips and reports whether anything changed. Callers hold mu.
func (l *tipLedger) add(tips ...domain.Tip) bool {
	changed := false
	for _, t := range tips {
		if t.TransactionID == "" {
			continue
		}
		if _, ok := l.seen[t.TransactionID]; ok {
			continue
		}
		l.seen[t.TransactionID] = struct{}{}
		l.tips = append(l.tips, t)
		changed = true
	}
	return changed
}

func (l *tipLedger) copyTips() []domain.Tip {
	return append([]domain.Tip(nil), l.tips...)
}
