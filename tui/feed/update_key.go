package feed

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.inputFocused {
		return m.handleInputKey(msg)
	}
	if m.confirmDelete {
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		m.inputFocused = true
		m.input.SetValue(m.engine.Query())
		m.input.CursorEnd()
		return m, tea.Batch(m.input.Focus(), textinput.Blink)

	case key.Matches(msg, m.keys.Back):
		if m.engine.Searching() {
			m.input.SetValue("")
			return m.applyQuery("")
		}
		return m, nil

	case key.Matches(msg, m.keys.Latest):
		return m.selectMode(domain.ModeLatest)
	case key.Matches(msg, m.keys.Hot):
		return m.selectMode(domain.ModeHot)
	case key.Matches(msg, m.keys.Random):
		return m.selectMode(domain.ModeRandom)
	case key.Matches(msg, m.keys.NextMode):
		return m.selectMode(nextMode(m.engine.Selected()))

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		cmd := m.afterLayout()
		return m, cmd
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		cmd := m.afterLayout()
		return m, cmd
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-max(m.viewportRows()/itemRows, 1))
		cmd := m.afterLayout()
		return m, cmd
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(max(m.viewportRows()/itemRows, 1))
		cmd := m.afterLayout()
		return m, cmd
	case key.Matches(msg, m.keys.Top):
		m.cursor, m.offset = 0, 0
		m.clampCursor()
		cmd := m.afterLayout()
		return m, cmd
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = len(m.entries) - 1
		m.clampCursor()
		m.ensureCursorVisible()
		cmd := m.afterLayout()
		return m, cmd

	case key.Matches(msg, m.keys.JumpNew):
		if m.engine.Searching() {
			return m, nil
		}
		return m.jumpToNew()

	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()

	case key.Matches(msg, m.keys.Upvote):
		if it, ok := m.SelectedItem(); ok {
			return m, emit(UpvoteItemMsg{ID: it.ID})
		}

	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.SelectedItem(); ok && it.IsOwn {
			m.confirmDelete = true
		}

	case key.Matches(msg, m.keys.Tip):
		if it, ok := m.SelectedItem(); ok {
			return m, emit(TipItemMsg{Item: it})
		}

	case key.Matches(msg, m.keys.ToggleHint):
		m.showHints = !m.showHints
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.inputFocused = false
		m.input.Blur()
		return m.applyQuery(m.input.Value())
	case "esc":
		m.inputFocused = false
		m.input.Blur()
		m.input.SetValue(m.engine.Query())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmDelete = false
		if it, ok := m.SelectedItem(); ok && it.IsOwn {
			return m, emit(DeleteItemMsg{ID: it.ID})
		}
	case "n", "N", "esc":
		m.confirmDelete = false
	}
	return m, nil
}

func nextMode(mode domain.Mode) domain.Mode {
	switch mode {
	case domain.ModeLatest:
		return domain.ModeHot
	case domain.ModeHot:
		return domain.ModeRandom
	default:
		return domain.ModeLatest
	}
}
