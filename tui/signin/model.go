package signin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/app"
	"github.com/CrestNiraj12/terminalmeme/domain"
)

// field is the focused input.
type field int

const (
	usernameField field = iota
	walletField
)

// DoneMsg is sent when the prompt closes. Cancelled is set on esc.
type DoneMsg struct {
	Identity  domain.Identity
	Cancelled bool
	Err       error
}

// Model is the guest sign-in prompt: a username and an optional wallet
// address used for sending tips.
type Model struct {
	session  app.SessionService
	reason   string
	focus    field
	username textinput.Model
	wallet   textinput.Model
	err      error
	busy     bool
}

// New creates the prompt. reason is shown above the inputs.
func New(session app.SessionService, reason string) Model {
	u := textinput.New()
	u.Placeholder = "username"
	u.Prompt = "Username: "
	u.CharLimit = 32
	u.Focus()

	w := textinput.New()
	w.Placeholder = "optional, needed to tip"
	w.Prompt = "Wallet:   "
	w.CharLimit = 64

	if id, ok := session.Current(); ok {
		u.SetValue(id.Username)
		w.SetValue(id.Wallet)
	}

	return Model{
		session:  session,
		reason:   reason,
		username: u,
		wallet:   w,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the sign-in prompt.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DoneMsg:
		if msg.Err != nil {
			m.busy = false
			m.err = msg.Err
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, done(DoneMsg{Cancelled: true})
		case "tab", "shift+tab", "up", "down":
			m.toggleFocus()
			return m, nil
		case "enter":
			if m.focus == usernameField {
				if strings.TrimSpace(m.username.Value()) == "" {
					m.err = domain.ErrEmptyUsername
					return m, nil
				}
				m.err = nil
				m.toggleFocus()
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == usernameField {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.wallet, cmd = m.wallet.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == usernameField {
		m.focus = walletField
		m.username.Blur()
		m.wallet.Focus()
		return
	}
	m.focus = usernameField
	m.wallet.Blur()
	m.username.Focus()
}

func (m Model) submit() (Model, tea.Cmd) {
	username, wallet := m.username.Value(), m.wallet.Value()
	if strings.TrimSpace(username) == "" {
		m.err = domain.ErrEmptyUsername
		return m, nil
	}
	if w := strings.TrimSpace(wallet); w != "" && !plausibleWallet(w) {
		m.err = errors.New("wallet address looks invalid")
		return m, nil
	}
	m.busy = true
	m.err = nil
	session := m.session
	return m, func() tea.Msg {
		id, err := session.SignInGuest(username, wallet)
		if err != nil {
			return DoneMsg{Err: fmt.Errorf("signing in: %w", err)}
		}
		return DoneMsg{Identity: id}
	}
}

// plausibleWallet accepts base58 strings of a Solana address length.
func plausibleWallet(w string) bool {
	if len(w) < 32 || len(w) > 44 {
		return false
	}
	for _, r := range w {
		if !strings.ContainsRune(base58Alphabet, r) {
			return false
		}
	}
	return true
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func done(msg DoneMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}
