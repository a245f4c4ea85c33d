package feed

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/terminalmeme/domain"
)

func (m Model) fetchPage(req fetchRequest) tea.Cmd {
	feed, search := m.feed, m.search
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		var (
			page domain.Page
			err  error
		)
		if req.Mode == domain.ModeSearch {
			page, err = search.Search(ctx, req.Query, req.Cursor)
		} else {
			page, err = feed.FetchPage(ctx, req.Mode, req.Cursor)
		}
		if err != nil {
			return PageErrorMsg{Key: req.Key, Seq: req.Seq, First: req.First, Err: err}
		}
		return PageLoadedMsg{Key: req.Key, Seq: req.Seq, First: req.First, Page: page}
	}
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// selectMode handles a tab press. Switching tabs (or reshuffling Random)
// clears the new-items buffer, which makes page one stale.
func (m Model) selectMode(mode domain.Mode) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.engine.Searching() {
		m.input.SetValue("")
		var cmd tea.Cmd
		m, cmd = m.applyQuery("")
		cmds = append(cmds, cmd)
	}

	changed, reshuffle := m.engine.Select(mode)
	if !changed && !reshuffle {
		return m, tea.Batch(cmds...)
	}
	m.newItems.Clear()
	m.engine.MarkStale()
	m.cursor, m.offset = 0, 0
	m.notice = ""
	if changed {
		cmds = append(cmds, emit(ModeChangedMsg{Mode: mode}))
	}
	cmds = append(cmds, m.fetchPage(m.engine.FirstPage()), m.rebuild())
	return m, tea.Batch(cmds...)
}

// applyQuery enters, changes or leaves search. While searching, the browse
// vote and new-item streams are torn down and visibility tracking is off.
func (m Model) applyQuery(q string) (Model, tea.Cmd) {
	wasSearching := m.engine.Searching()
	if !m.engine.SetQuery(q) {
		return m, nil
	}
	m.cursor, m.offset = 0, 0
	m.notice = ""

	var cmds []tea.Cmd
	if m.engine.Searching() {
		if !wasSearching {
			m.tracker.SetEnabled(false)
			m.votes.Disable()
			m.newItems.Disable()
		}
		m.searchVotes.Disable()
		cmds = append(cmds, m.fetchPage(m.engine.FirstPage()))
	} else {
		m.searchVotes.Disable()
		m.tracker.SetEnabled(true)
		m.newItems.Enable()
		if m.engine.NeedsFirstPage() {
			cmds = append(cmds, m.fetchPage(m.engine.FirstPage()))
		}
	}
	cmds = append(cmds, m.rebuild())
	return m, tea.Batch(cmds...)
}

// jumpToNew scrolls to the top and folds buffered memes back into page one.
func (m Model) jumpToNew() (Model, tea.Cmd) {
	m.cursor, m.offset = 0, 0
	if m.newItems.Count() == 0 {
		cmd := m.rebuild()
		return m, cmd
	}
	m.newItems.Clear()
	m.engine.MarkStale()
	fetch := m.fetchPage(m.engine.FirstPage())
	cmd := m.rebuild()
	return m, tea.Batch(fetch, cmd)
}

func (m Model) refresh() (Model, tea.Cmd) {
	m.notice = ""
	return m, m.fetchPage(m.engine.FirstPage())
}

// maybeLoadMore fetches the next page when the viewport is close to the
// bottom, or when the rendered rows do not fill it.
func (m Model) maybeLoadMore() tea.Cmd {
	if !m.engine.Loaded() {
		return nil
	}
	total := totalRows(m.spans)
	view := m.viewportRows()
	distance := total - (m.offset + view)
	if distance >= loadMoreRows && total >= view {
		return nil
	}
	req, ok := m.engine.LoadMore()
	if !ok {
		return nil
	}
	return m.fetchPage(req)
}
