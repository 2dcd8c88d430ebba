package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/roster"
	"github.com/tessro/syncstream/internal/tui/styles"
)

// Peers displays the session roster with liveness
type Peers struct{}

// NewPeers creates a new Peers component
func NewPeers() *Peers {
	return &Peers{}
}

// Render renders the roster panel
func (p *Peers) Render(selfID string, participants []roster.Participant, width int) string {
	title := styles.PanelTitle("Session", false)

	var b strings.Builder
	if len(participants) == 0 {
		b.WriteString(styles.Muted.Render("No peers yet"))
	}
	for i, part := range participants {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styles.LivenessIcon(part.Liveness.String()))
		b.WriteString(" ")
		name := part.ID
		if part.ID == selfID {
			name += " (you)"
		}
		if part.Role == core.RoleLeader {
			b.WriteString(styles.Highlight.Render(name))
			b.WriteString(styles.Dim.Render(" leader"))
		} else {
			b.WriteString(styles.Subtitle.Render(name))
		}
		if part.Addr != nil {
			b.WriteString(styles.Dim.Render(" " + part.Addr.String()))
		}
	}

	panel := styles.Panel(false).Width(width)
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		b.String(),
	))
}
