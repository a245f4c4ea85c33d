package tip

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
	"github.com/CrestNiraj12/terminalmeme/tui/common"
)

const (
	transferTimeout = 90 * time.Second
	recordTimeout   = 20 * time.Second
	priceRecheck    = 5 * time.Second
	previewCols     = 24
	previewRows     = 8
)

var (
	errNoRecipient = errors.New("this meme's owner has no wallet")
	errSelfTip     = errors.New("you cannot tip your own meme")
)

// sendState is the progress of one tip.
type sendState int

const (
	sendIdle sendState = iota
	sendTransferring
	sendRecording
	sendDone
	sendTransferFailed // terminal; nothing was recorded
	sendRecordFailed   // terminal; transfer confirmed, record reported
)

func (s sendState) busy() bool {
	return s == sendTransferring || s == sendRecording
}

var viewIDs atomic.Int64

// TransferDoneMsg is sent when the on-chain transfer finishes.
type TransferDoneMsg struct {
	View int64
	Tip  domain.Tip // TransactionID set on success
	Err  error
}

// RecordDoneMsg is sent when the tip record write finishes.
type RecordDoneMsg struct {
	View int64
	Tip  domain.Tip
	Err  error
}

// TipsSnapshotMsg carries the full tip set of the meme.
type TipsSnapshotMsg struct {
	View int64
	Tips []domain.Tip
}

// TipsErrorMsg reports a broken tip stream.
type TipsErrorMsg struct {
	View int64
	Err  error
}

// PricesRefreshedMsg is sent after a manual price refresh.
type PricesRefreshedMsg struct {
	View int64
	Err  error
}

// ClosedMsg asks the root to leave the tip view.
type ClosedMsg struct{}

type revealMsg struct {
	View int64
	Seq  int
}

type priceTickMsg struct {
	View int64
}

// Options configures a tip model.
type Options struct {
	Session  app.SessionService
	Wallet   app.WalletService
	Tips     app.TipService
	Prices   app.PriceService
	Live     app.LiveService
	Reporter app.InconsistencyReporter
	Post     func(tea.Msg)
	Token    string
	Now      func() time.Time
	Preview  bool // fetch an image thumbnail for the meme
}

// stream holds the live tip subscription; it outlives model copies.
type stream struct {
	cancel app.Unsubscribe
}

// Model is the tip view for one meme.
type Model struct {
	id   int64
	item domain.Item
	opts Options

	earnings *Earnings
	stream   *stream

	state   sendState
	err     error // validation error shown inline
	lastTip domain.Tip

	amount  textinput.Model
	spinner spinner.Model
	keys    common.KeyMap
	preview string

	width  int
	height int
}

// New creates the tip view for item.
func New(opts Options, item domain.Item) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Post == nil {
		opts.Post = func(tea.Msg) {}
	}
	if opts.Token == "" {
		opts.Token = "SOL"
	}

	ti := textinput.New()
	ti.Placeholder = "0.00"
	ti.Prompt = "Amount (" + opts.Token + "): "
	ti.CharLimit = 24
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6600"))

	prices := opts.Prices
	return Model{
		id:       viewIDs.Add(1),
		item:     item,
		opts:     opts,
		earnings: NewEarnings(func(token string) (decimal.Decimal, bool) { return prices.Price(token) }),
		stream:   &stream{},
		amount:   ti,
		spinner:  s,
		keys:     common.DefaultKeyMap(),
	}
}

// Item is the meme being tipped.
func (m Model) Item() domain.Item { return m.item }

// Busy reports whether a tip is in flight; the view cannot be left then.
func (m Model) Busy() bool { return m.state.busy() }

// Earnings exposes the earnings tracker.
func (m Model) Earnings() *Earnings { return m.earnings }
