package tip

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/domain"
	"github.com/CrestNiraj12/terminalmeme/tui/common"
)

// Init opens the tip stream and starts the price recheck.
func (m Model) Init() tea.Cmd {
	m.subscribe()
	cmds := []tea.Cmd{textinput.Blink, m.priceTick()}
	if m.opts.Preview && m.item.FileType != domain.FileVideo {
		cmds = append(cmds, fetchPreview(m.id, m.item.ImageURL, previewCols, previewRows))
	}
	return tea.Batch(cmds...)
}

func (m Model) subscribe() {
	view, post := m.id, m.opts.Post
	cancel, err := m.opts.Live.SubscribeTips(m.item.ID,
		func(tips []domain.Tip) {
			post(TipsSnapshotMsg{View: view, Tips: tips})
		},
		func(err error) {
			post(TipsErrorMsg{View: view, Err: err})
		},
	)
	if err != nil {
		slog.Warn("tip: subscribe failed", "item_id", m.item.ID, "error", err)
		return
	}
	m.stream.cancel = cancel
}

// Close cancels the tip stream and any running reveal.
func (m Model) Close() {
	if m.stream.cancel != nil {
		m.stream.cancel()
		m.stream.cancel = nil
	}
	m.earnings.Cancel()
}

func (m Model) priceTick() tea.Cmd {
	view := m.id
	return tea.Tick(priceRecheck, func(time.Time) tea.Msg { return priceTickMsg{View: view} })
}

func (m Model) revealTick() tea.Cmd {
	view, seq := m.id, m.earnings.Seq()
	return tea.Tick(revealWindow, func(time.Time) tea.Msg { return revealMsg{View: view, Seq: seq} })
}

func (m Model) revealIf(started bool) tea.Cmd {
	if !started {
		return nil
	}
	return m.revealTick()
}

// Update handles messages for the tip view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.state.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TipsSnapshotMsg:
		if msg.View != m.id {
			return m, nil
		}
		return m, m.revealIf(m.earnings.Snapshot(msg.Tips))

	case TipsErrorMsg:
		if msg.View == m.id {
			slog.Warn("tip: live stream error", "item_id", m.item.ID, "error", msg.Err)
		}
		return m, nil

	case revealMsg:
		if msg.View == m.id {
			m.earnings.Commit(msg.Seq)
		}
		return m, nil

	case priceTickMsg:
		if msg.View != m.id {
			return m, nil
		}
		return m, tea.Batch(m.revealIf(m.earnings.Reprice()), m.priceTick())

	case PricesRefreshedMsg:
		if msg.View != m.id {
			return m, nil
		}
		if msg.Err != nil {
			slog.Warn("tip: price refresh failed", "error", msg.Err)
			return m, emitNotice("Price refresh failed", msg.Err)
		}
		return m, m.revealIf(m.earnings.Reprice())

	case PreviewLoadedMsg:
		if msg.View != m.id {
			return m, nil
		}
		if msg.Err != nil {
			slog.Debug("tip: preview unavailable", "item_id", m.item.ID, "error", msg.Err)
			return m, nil
		}
		m.preview = msg.Preview
		return m, nil

	case TransferDoneMsg:
		if msg.View != m.id || m.state != sendTransferring {
			return m, nil
		}
		if msg.Err != nil {
			m.state = sendTransferFailed
			slog.Warn("tip: transfer failed", "item_id", m.item.ID, "error", msg.Err)
			return m, emitNotice("Transfer failed", msg.Err)
		}
		m.state = sendRecording
		m.lastTip = msg.Tip
		return m, m.recordCmd(msg.Tip)

	case RecordDoneMsg:
		if msg.View != m.id || m.state != sendRecording {
			return m, nil
		}
		m.amount.SetValue("")
		if msg.Err != nil {
			m.state = sendRecordFailed
			text := fmt.Sprintf("Tip sent (tx %s) but not recorded; it was reported for reconciliation", domain.ShortWallet(msg.Tip.TransactionID))
			return m, emitNotice(text, msg.Err)
		}
		m.state = sendDone
		text := fmt.Sprintf("Tipped %s %s to @%s", msg.Tip.Amount.String(), msg.Tip.Token, ownerName(m.item))
		return m, emitNotice(text, nil)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.amount, cmd = m.amount.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.state.busy() {
			return m, emitNotice("Tip in progress, please wait", nil)
		}
		return m, func() tea.Msg { return ClosedMsg{} }
	case key.Matches(msg, m.keys.Enter):
		return m.send()
	case key.Matches(msg, m.keys.Prices):
		return m, m.refreshPrices()
	}

	if msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if (r < '0' || r > '9') && r != '.' {
				return m, nil
			}
		}
	}
	if m.state.busy() {
		return m, nil
	}
	var cmd tea.Cmd
	m.amount, cmd = m.amount.Update(msg)
	return m, cmd
}

// send starts a tip. The transfer runs first; the record write only runs
// after a confirmed transfer, and a transfer is never retried.
func (m Model) send() (Model, tea.Cmd) {
	if m.state.busy() {
		return m, nil
	}
	id, ok := m.opts.Session.Current()
	if !ok || !id.CanTip() {
		return m, func() tea.Msg {
			return common.SignInRequestedMsg{Reason: "Sign in with a wallet to send tips."}
		}
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(m.amount.Value()))
	if err != nil || !amount.IsPositive() {
		m.err = domain.ErrInvalidAmount
		return m, nil
	}
	to := strings.TrimSpace(m.item.Owner.Wallet)
	switch {
	case to == "":
		m.err = errNoRecipient
		return m, nil
	case to == id.Wallet:
		m.err = errSelfTip
		return m, nil
	}

	price, _ := m.opts.Prices.Price(m.opts.Token)
	tip := domain.Tip{
		FromWallet:      id.Wallet,
		ToWallet:        to,
		ItemID:          m.item.ID,
		Amount:          amount,
		Token:           m.opts.Token,
		PriceAtSendTime: price,
		CreatedAt:       m.opts.Now(),
	}
	m.err = nil
	m.state = sendTransferring
	return m, tea.Batch(m.transferCmd(tip), m.spinner.Tick)
}

func (m Model) transferCmd(tip domain.Tip) tea.Cmd {
	wallet, view := m.opts.Wallet, m.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), transferTimeout)
		defer cancel()
		tx, err := wallet.Transfer(ctx, tip.FromWallet, tip.ToWallet, tip.Amount, tip.Token)
		if err != nil {
			return TransferDoneMsg{View: view, Err: err}
		}
		tip.TransactionID = tx
		return TransferDoneMsg{View: view, Tip: tip}
	}
}

func (m Model) recordCmd(tip domain.Tip) tea.Cmd {
	tips, reporter, view := m.opts.Tips, m.opts.Reporter, m.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		err := tips.CreateTip(ctx, tip)
		if err == nil {
			return RecordDoneMsg{View: view, Tip: tip}
		}
		slog.Error("tip: record failed after confirmed transfer", "tx", tip.TransactionID, "item_id", tip.ItemID, "error", err)
		if reporter != nil {
			rctx, rcancel := context.WithTimeout(context.Background(), recordTimeout)
			defer rcancel()
			if rerr := reporter.ReportMissingTip(rctx, tip, err); rerr != nil {
				slog.Error("tip: inconsistency report failed", "tx", tip.TransactionID, "error", rerr)
			}
		}
		return RecordDoneMsg{View: view, Tip: tip, Err: err}
	}
}

func (m Model) refreshPrices() tea.Cmd {
	prices, view := m.opts.Prices, m.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		return PricesRefreshedMsg{View: view, Err: prices.Refresh(ctx)}
	}
}

func emitNotice(text string, err error) tea.Cmd {
	return func() tea.Msg { return common.NoticeMsg{Text: text, Err: err} }
}

func ownerName(it domain.Item) string {
	if it.Owner.Username != "" {
		return it.Owner.Username
	}
	return domain.ShortWallet(it.Owner.Wallet)
}
