package tip

import (
	"fmt"
	"strings"

	"github.com/CrestNiraj12/terminalmeme/domain"
	"github.com/CrestNiraj12/terminalmeme/tui/common"
)

// View renders the tip view.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(common.AppTitleStyle.Render("▲ Tip @" + ownerName(m.item)))
	b.WriteString("\n")
	b.WriteString(common.TaglineStyle.Render(common.Truncate(m.item.ImageURL, max(m.width-4, 20))))
	b.WriteString("\n\n")

	if m.preview != "" {
		for _, line := range strings.Split(m.preview, "\n") {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\n")
	} else if m.item.FileType == domain.FileVideo {
		b.WriteString(common.MetadataStyle.Render("  [video]") + "\n\n")
	}

	b.WriteString("  " + m.renderEarnings() + "\n\n")
	b.WriteString("  " + m.amount.View() + "\n")
	if m.err != nil {
		b.WriteString("  " + common.ErrorStyle.Render(m.err.Error()) + "\n")
	}
	if line := m.renderState(); line != "" {
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(common.StatusBarStyle.Render("enter send • p refresh prices • esc back"))
	return b.String()
}

func (m Model) renderEarnings() string {
	if !m.earnings.Loaded() {
		return common.MetadataStyle.Render("Earnings: loading…")
	}
	line := "Earnings: " + common.EarningsStyle.Render(domain.FormatUSD(m.earnings.Displayed()))
	if m.earnings.Revealing() {
		line += "  " + common.SuccessStyle.Render("+"+domain.FormatUSD(m.earnings.Delta()))
	}
	n := m.earnings.Count()
	noun := "tips"
	if n == 1 {
		noun = "tip"
	}
	return line + common.MetadataStyle.Render(fmt.Sprintf("  (%d %s)", n, noun))
}

func (m Model) renderState() string {
	switch m.state {
	case sendTransferring:
		return m.spinner.View() + " Waiting for transfer confirmation…"
	case sendRecording:
		return m.spinner.View() + " Recording tip…"
	case sendDone:
		return common.SuccessStyle.Render("Tip recorded.")
	}
	return ""
}
