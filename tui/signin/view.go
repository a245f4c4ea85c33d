package signin

import (
	"strings"

	"github.com/CrestNiraj12/terminalmeme/tui/common"
)

// View renders the sign-in prompt.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(common.AppTitleStyle.Render("▲ TerminalMeme"))
	b.WriteString("  Sign in\n\n")
	if m.reason != "" {
		b.WriteString(common.TaglineStyle.Render(m.reason))
		b.WriteString("\n\n")
	}
	b.WriteString("  " + m.username.View() + "\n")
	b.WriteString("  " + m.wallet.View() + "\n\n")
	if m.err != nil {
		b.WriteString(common.ErrorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	status := "tab: switch field • enter: continue • esc: cancel"
	if m.busy {
		status = "Signing in..."
	}
	b.WriteString(common.StatusBarStyle.Render(status))
	return b.String()
}
