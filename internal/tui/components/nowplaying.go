package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/session"
	"github.com/tessro/syncstream/internal/tui/styles"
)

// NowPlaying displays the current track and playback position
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel. bar is the pre-rendered progress bar.
func (n *NowPlaying) Render(snap session.Snapshot, bar string, width int) string {
	title := styles.PanelTitle("Now Playing", true)

	var content string
	if snap.TrackCount == 0 || snap.Track.Name == "" {
		content = styles.Muted.Render("No track loaded")
	} else {
		content = n.renderTrack(snap, bar)
	}

	panel := styles.Panel(true).Width(width)
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (n *NowPlaying) renderTrack(snap session.Snapshot, bar string) string {
	icon := styles.StatusIcon(snap.State == core.StatePlaying)
	name := styles.Title.Render(snap.Track.Name)
	ordinal := styles.Subtitle.Render(fmt.Sprintf("track %d of %d", snap.TrackIndex+1, snap.TrackCount))

	progress := fmt.Sprintf("%s %s %s",
		formatDuration(snap.Position), bar, formatDuration(snap.Duration))

	stateLine := styles.Muted.Render(snap.State.String())
	if snap.Rediscovering {
		stateLine = styles.Alert.Render("leader silent — rediscovering")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+name,
		"  "+ordinal,
		"",
		progress,
		"",
		stateLine,
	)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
