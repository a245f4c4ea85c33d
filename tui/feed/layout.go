package feed

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

// chromeRows is everything above and below the list: title, tabs, banner, status.
const chromeRows = 7

func (m Model) viewportRows() int {
	if m.height <= 0 {
		return defaultViewportRow
	}
	return max(m.height-chromeRows, itemRows)
}

func entryRows(e domain.Entry) int {
	if e.IsSeparator() {
		return separatorRows
	}
	return itemRows
}

func spansFor(entries []domain.Entry) []rowSpan {
	spans := make([]rowSpan, len(entries))
	row := 0
	for i, e := range entries {
		h := entryRows(e)
		spans[i] = rowSpan{Handle: e.Key(), Start: row, Height: h}
		row += h
	}
	return spans
}

func totalRows(spans []rowSpan) int {
	if len(spans) == 0 {
		return 0
	}
	last := spans[len(spans)-1]
	return last.Start + last.Height
}

// rebuild re-runs the merge and the layout pass.
func (m *Model) rebuild() tea.Cmd {
	return m.rebuildAnchored("")
}

// rebuildAnchored re-runs the merge, keeping the cursor on the item with
// key anchor when it is still present.
func (m *Model) rebuildAnchored(anchor string) tea.Cmd {
	m.entries = m.engine.Entries(m.newItems.Items(), m.currentVotes())
	m.spans = spansFor(m.entries)
	if anchor != "" {
		for i, e := range m.entries {
			if e.Item != nil && e.Key() == anchor {
				m.cursor = i
				break
			}
		}
	}
	m.clampCursor()
	m.ensureCursorVisible()
	return m.afterLayout()
}

func (m *Model) clampCursor() {
	if len(m.entries) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor, 0), len(m.entries)-1)
	if m.entries[m.cursor].Item != nil {
		return
	}
	for i := m.cursor + 1; i < len(m.entries); i++ {
		if m.entries[i].Item != nil {
			m.cursor = i
			return
		}
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.entries[i].Item != nil {
			m.cursor = i
			return
		}
	}
}

// moveCursor steps over separators.
func (m *Model) moveCursor(delta int) {
	if len(m.entries) == 0 || delta == 0 {
		return
	}
	dir := 1
	if delta < 0 {
		dir = -1
		delta = -delta
	}
	for range delta {
		next := m.cursor + dir
		for next >= 0 && next < len(m.entries) && m.entries[next].Item == nil {
			next += dir
		}
		if next < 0 || next >= len(m.entries) {
			break
		}
		m.cursor = next
	}
	m.ensureCursorVisible()
}

func (m *Model) ensureCursorVisible() {
	if len(m.spans) == 0 {
		m.offset = 0
		return
	}
	view := m.viewportRows()
	s := m.spans[m.cursor]
	// Keep a separator directly above the cursor in view with it.
	start := s.Start
	if m.cursor > 0 && m.entries[m.cursor-1].IsSeparator() {
		start = m.spans[m.cursor-1].Start
	}
	if start < m.offset {
		m.offset = start
	}
	if end := s.Start + s.Height; end > m.offset+view {
		m.offset = end - view
	}
	m.offset = min(max(m.offset, 0), max(totalRows(m.spans)-view, 0))
}

// afterLayout feeds the rendered geometry to visibility tracking and the
// vote listeners, then checks the infinite-scroll trigger.
func (m *Model) afterLayout() tea.Cmd {
	var cmds []tea.Cmd
	if m.engine.Searching() {
		ids := make([]string, 0, visibleLimit)
		for _, e := range m.entries {
			if e.Item == nil {
				continue
			}
			ids = append(ids, e.Item.ID)
			if len(ids) == visibleLimit {
				break
			}
		}
		cmds = append(cmds, m.searchVotes.Sync(ids))
	} else if m.tracker.Enabled() {
		keep := make(map[string]struct{}, len(m.entries))
		for _, e := range m.entries {
			if e.Item == nil {
				continue
			}
			keep[e.Key()] = struct{}{}
			m.tracker.Observe(e.Key(), e.Item.ID)
		}
		m.tracker.Retain(keep)
		m.tracker.Intersect(measure(m.spans, m.offset, m.viewportRows()))
		cmds = append(cmds, m.votes.Sync(m.tracker.Visible()))
	}
	cmds = append(cmds, m.maybeLoadMore())
	return tea.Batch(cmds...)
}
