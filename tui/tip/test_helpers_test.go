package tip

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
	"github.com/CrestNiraj12/terminalmeme/tui/common"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type stubSession struct {
	id domain.Identity
	ok bool
}

func (s stubSession) Current() (domain.Identity, bool) { return s.id, s.ok }

func (s stubSession) SignInGuest(username, wallet string) (domain.Identity, error) {
	return domain.Identity{Username: username, Wallet: wallet, Guest: true}, nil
}

type stubWallet struct {
	mu    sync.Mutex
	tx    string
	err   error
	calls int
}

func (w *stubWallet) Transfer(context.Context, string, string, decimal.Decimal, string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return "", w.err
	}
	return w.tx, nil
}

func (w *stubWallet) Confirmed(context.Context, string) (bool, error) { return true, nil }

type stubTips struct {
	mu      sync.Mutex
	err     error
	calls   int
	created []domain.Tip
}

func (s *stubTips) CreateTip(_ context.Context, tip domain.Tip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, tip)
	return nil
}

func (s *stubTips) ListTips(context.Context, string) ([]domain.Tip, error) { return nil, nil }

type stubPrices struct {
	mu        sync.Mutex
	prices    map[string]decimal.Decimal
	refreshes int
}

func (p *stubPrices) Price(token string) (decimal.Decimal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.prices[token]
	return v, ok
}

func (p *stubPrices) Refresh(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshes++
	return nil
}

func (p *stubPrices) set(token, usd string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[token] = decimal.RequireFromString(usd)
}

type stubLive struct {
	tipCbs    []func([]domain.Tip)
	cancelled int
}

func (l *stubLive) SubscribeVotes(string, func(int), func(error)) (app.Unsubscribe, error) {
	return func() {}, nil
}

func (l *stubLive) SubscribeNewItems(time.Time, func([]domain.Item), func(error)) (app.Unsubscribe, error) {
	return func() {}, nil
}

func (l *stubLive) SubscribeTips(_ string, onSnapshot func([]domain.Tip), _ func(error)) (app.Unsubscribe, error) {
	l.tipCbs = append(l.tipCbs, onSnapshot)
	return func() { l.cancelled++ }, nil
}

type stubReporter struct {
	mu      sync.Mutex
	reports []domain.Tip
}

func (r *stubReporter) ReportMissingTip(_ context.Context, tip domain.Tip, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, tip)
	return nil
}

type fixture struct {
	session  stubSession
	wallet   *stubWallet
	tips     *stubTips
	prices   *stubPrices
	live     *stubLive
	reporter *stubReporter
	posted   []tea.Msg
}

func newFixture() *fixture {
	return &fixture{
		session:  stubSession{id: domain.Identity{Username: "alice", Wallet: "AliceWallet111"}, ok: true},
		wallet:   &stubWallet{tx: "5igSig"},
		tips:     &stubTips{},
		prices:   &stubPrices{prices: map[string]decimal.Decimal{"SOL": decimal.NewFromInt(1)}},
		live:     &stubLive{},
		reporter: &stubReporter{},
	}
}

func (f *fixture) model() Model {
	m := New(Options{
		Session:  f.session,
		Wallet:   f.wallet,
		Tips:     f.tips,
		Prices:   f.prices,
		Live:     f.live,
		Reporter: f.reporter,
		Post:     func(msg tea.Msg) { f.posted = append(f.posted, msg) },
		Token:    "SOL",
		Now:      func() time.Time { return testNow },
	}, domain.Item{
		ID:       "m1",
		ImageURL: "https://cdn.example/m1.png",
		Owner:    domain.Owner{Username: "bob", Wallet: "BobWallet999"},
	})
	m.Init()
	return m
}

func tips(amounts ...string) []domain.Tip {
	out := make([]domain.Tip, len(amounts))
	for i, a := range amounts {
		out[i] = domain.Tip{
			TransactionID: "tx" + string(rune('a'+i)),
			ItemID:        "m1",
			Amount:        decimal.RequireFromString(a),
			Token:         "SOL",
		}
	}
	return out
}

// runCmd executes cmd and returns the messages it produced, expanding
// batches. Ticks are skipped so tests never sleep.
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

// pump feeds every message produced by cmd back into the model.
func pump(m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	var seen []tea.Msg
	queue := runCmd(cmd)
	for i := 0; len(queue) > 0 && i < 50; i++ {
		msg := queue[0]
		queue = queue[1:]
		seen = append(seen, msg)
		var next tea.Cmd
		m, next = m.Update(msg)
		queue = append(queue, runCmd(next)...)
	}
	return m, seen
}

func noticeErrors(msgs []tea.Msg) []error {
	var errs []error
	for _, msg := range msgs {
		if n, ok := msg.(common.NoticeMsg); ok && n.Err != nil {
			errs = append(errs, n.Err)
		}
	}
	return errs
}

var errBoom = errors.New("boom")
