package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/terminalmeme/domain"
	"github.com/CrestNiraj12/terminalmeme/infra/localstore"
	"github.com/CrestNiraj12/terminalmeme/tui/common"
)

// View renders the feed as a string.
func (m Model) View() string {
	var b strings.Builder

	title := common.AppTitleStyle.Render("▲ TerminalMeme")
	tagline := common.TaglineStyle.Render("<memes, but make it monospace>")
	b.WriteString(title + tagline + "\n")
	b.WriteString(m.renderTabs() + "\n")
	b.WriteString(m.renderBanner() + "\n")

	switch {
	case !m.engine.Loaded() && m.engine.Loading():
		b.WriteString(fmt.Sprintf("  %s Loading memes...\n", m.spinner.View()))
	case !m.engine.Loaded() && m.engine.Err() != nil:
		b.WriteString(common.ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.engine.Err())))
		b.WriteString("\n\n  Press r to retry.\n")
	case len(m.entries) == 0 && m.engine.Searching():
		b.WriteString(fmt.Sprintf("  No memes match %q.\n", m.engine.Query()))
	case len(m.entries) == 0:
		b.WriteString("  No memes yet.\n")
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderTabs() string {
	if m.inputFocused {
		return " " + m.input.View()
	}
	if m.engine.Searching() {
		return " " + common.TabActiveStyle.Render("Search: "+m.engine.Query()) +
			common.TimestampStyle.Render("  esc to clear")
	}
	tabs := []domain.Mode{domain.ModeLatest, domain.ModeHot, domain.ModeRandom}
	parts := make([]string, 0, len(tabs))
	for i, t := range tabs {
		label := fmt.Sprintf("%d %s", i+1, tabLabel(t))
		if t == m.engine.Selected() {
			parts = append(parts, common.TabActiveStyle.Render(label))
		} else {
			parts = append(parts, common.TabInactiveStyle.Render(label))
		}
	}
	return " " + strings.Join(parts, " ")
}

func tabLabel(mode domain.Mode) string {
	switch mode {
	case domain.ModeHot:
		return "Hot"
	case domain.ModeRandom:
		return "Random"
	default:
		return "Latest"
	}
}

func (m Model) renderBanner() string {
	n := m.NewItemsCount()
	if n == 0 {
		return ""
	}
	noun := "memes"
	if n == 1 {
		noun = "meme"
	}
	return " " + common.BannerStyle.Render(fmt.Sprintf("▲ %d new %s (n)", n, noun))
}

// renderList renders every row, then slices the viewport out of it so the
// rendered geometry matches the spans used for visibility.
func (m Model) renderList() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	var lines []string
	for i, e := range m.entries {
		var block string
		if e.IsSeparator() {
			block = m.renderSeparator(*e.Separator, width)
		} else {
			block = m.renderItem(*e.Item, i == m.cursor, width)
		}
		rows := strings.Split(block, "\n")
		want := entryRows(e)
		for len(rows) < want {
			rows = append(rows, "")
		}
		lines = append(lines, rows[:want]...)
	}

	view := m.viewportRows()
	start := min(m.offset, len(lines))
	end := min(start+view, len(lines))
	return strings.Join(lines[start:end], "\n") + "\n"
}

func (m Model) renderSeparator(s domain.WeekSeparator, width int) string {
	label := " " + common.WeekLabel(s.WeekDiff) + " "
	fill := max((width-lipgloss.Width(label)-4)/2, 2)
	return common.SeparatorStyle.Render("  " + strings.Repeat("─", fill) + label + strings.Repeat("─", fill))
}

func (m Model) renderItem(it domain.Item, selected bool, width int) string {
	inner := max(width-6, 20)

	owner := it.Owner.Username
	if owner == "" {
		owner = domain.ShortWallet(it.Owner.Wallet)
	}
	head := common.AuthorStyle.Render("@" + owner)
	if it.IsOwn {
		head += common.OwnBadgeStyle.Render("(you)")
	}
	head += "  " + common.TimestampStyle.Render(domain.FormatRelative(it.CreatedAt, m.now()))
	if it.Tag != "" {
		head += "  " + common.TimestampStyle.Render("#"+it.Tag)
	}

	vote := common.MetadataStyle.Render(fmt.Sprintf("▲ %d", it.Upvotes))
	if m.store != nil && m.store.GetBool(localstore.VotedKey(it.ID)) {
		vote = common.VotedStyle.Render(fmt.Sprintf("▲ %d", it.Upvotes))
	}
	kind := "[" + string(it.FileType) + "] "
	room := max(inner-lipgloss.Width(kind)-lipgloss.Width(vote)-2, 8)
	body := common.ContentStyle.Render(kind+common.Truncate(it.ImageURL, room)) + "  " + vote

	content := common.Truncate(head, inner) + "\n" + body
	style := common.UnselectedStyle
	if selected {
		style = common.SelectedStyle
	}
	return style.Width(inner + 2).Render(content)
}

func (m Model) renderFooter() string {
	var parts []string
	if m.engine.Loading() && m.engine.Loaded() {
		parts = append(parts, m.spinner.View()+" loading")
	}
	if m.confirmDelete {
		parts = append(parts, common.ConfirmStyle.Render("Delete this meme? (y/n)"))
	}
	if err := m.engine.Err(); err != nil && m.engine.Loaded() {
		parts = append(parts, common.ErrorStyle.Render("Error: "+err.Error()+" (r to retry)"))
	}
	if m.notice != "" {
		parts = append(parts, m.notice)
	}
	if m.showHints {
		parts = append(parts, "j/k move • 1/2/3 tabs • / search • l upvote • t tip • d delete • n new • r refresh • q quit")
	} else {
		parts = append(parts, "? hints")
	}
	return common.StatusBarStyle.Render(strings.Join(parts, "  ·  "))
}
