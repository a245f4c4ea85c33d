package feed

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

// Init opens the new-item stream and fetches page one.
func (m Model) Init() tea.Cmd {
	m.newItems.Enable()
	return tea.Batch(
		m.fetchPage(m.engine.FirstPage()),
		m.spinner.Tick,
	)
}

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-6, 10)
		cmd := m.rebuild()
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PageLoadedMsg:
		anchor := m.selectedKey()
		if !m.engine.ApplyPage(msg.Key, msg.Seq, msg.First, msg.Page) {
			return m, nil
		}
		m.notice = ""
		if msg.First && anchor == "" {
			m.cursor, m.offset = 0, 0
		}
		cmd := m.rebuildAnchored(anchor)
		if !m.engine.HasMore() && len(m.entries) > 0 && !msg.First {
			m.notice = "End of the memeverse reached."
		}
		return m, cmd

	case PageErrorMsg:
		if !m.engine.FailPage(msg.Key, msg.Seq, msg.Err) {
			return m, nil
		}
		slog.Warn("feed: page fetch failed", "mode", m.engine.Mode().String(), "first", msg.First, "error", msg.Err)
		return m, nil

	case voteSyncMsg:
		m.listener(msg.Scope).HandleSync(msg)
		return m, nil

	case VoteDeliveredMsg:
		if !m.listener(msg.Scope).Deliver(msg) {
			return m, nil
		}
		cmd := m.rebuild()
		return m, cmd

	case NewItemsMsg:
		if m.engine.Searching() || m.newItems.Accept(msg) == 0 {
			return m, nil
		}
		cmd := m.rebuildAnchored(m.selectedKey())
		return m, cmd

	case LiveErrorMsg:
		slog.Warn("feed: live stream error", "stream", msg.Stream, "item_id", msg.ItemID, "error", msg.Err)
		return m, nil

	case RefreshMsg:
		return m.refresh()

	case DeleteOptimisticMsg:
		m.engine.MarkDeleted(msg.ID)
		m.confirmDelete = false
		cmd := m.rebuild()
		return m, cmd

	case DeleteResultMsg:
		if msg.Err != nil {
			slog.Warn("feed: delete failed", "item_id", msg.ID, "error", msg.Err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.inputFocused {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) listener(scope voteScope) *VoteListener {
	if scope == scopeSearch {
		return m.searchVotes
	}
	return m.votes
}

func (m Model) currentVotes() map[string]domain.VoteUpdate {
	if m.engine.Searching() {
		return m.searchVotes.Updates()
	}
	return m.votes.Updates()
}

// Close cancels every live subscription the feed owns.
func (m Model) Close() {
	m.votes.Disable()
	m.searchVotes.Disable()
	m.newItems.Disable()
}

// Entries returns the merged rows currently rendered.
func (m Model) Entries() []domain.Entry { return m.entries }

// Mode is the effective mode.
func (m Model) Mode() domain.Mode { return m.engine.Mode() }

// Selected is the browse selector.
func (m Model) Selected() domain.Mode { return m.engine.Selected() }

// Loading reports whether a page fetch is in flight.
func (m Model) Loading() bool { return m.engine.Loading() }

// Err is the last fetch error of the active source.
func (m Model) Err() error { return m.engine.Err() }

// NewItemsCount is the number of memes waiting in the banner.
func (m Model) NewItemsCount() int {
	if m.engine.Searching() {
		return 0
	}
	return m.newItems.Count()
}

// CapturingInput reports whether keys go to the search input or a prompt.
func (m Model) CapturingInput() bool { return m.inputFocused || m.confirmDelete }

// SelectedItem returns the highlighted meme, if any.
func (m Model) SelectedItem() (domain.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return domain.Item{}, false
	}
	e := m.entries[m.cursor]
	if e.Item == nil {
		return domain.Item{}, false
	}
	return *e.Item, true
}

func (m Model) selectedKey() string {
	if it, ok := m.SelectedItem(); ok {
		return it.EffectiveID()
	}
	return ""
}
