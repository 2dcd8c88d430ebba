package wizard

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/media"
)

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// PromptRole asks whether this node should lead or join the session.
func PromptRole() (core.Role, error) {
	var lead bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[bool]().
				Title("Start a session or join one?").
				Description("A session has exactly one leader; everyone else joins as a member").
				Options(
					huh.NewOption("Lead — start a new session on this machine", true),
					huh.NewOption("Join — follow a leader already on the network", false),
				).
				Value(&lead),
		),
	)
	if err := form.Run(); err != nil {
		return core.RoleMember, err
	}
	if lead {
		return core.RoleLeader, nil
	}
	return core.RoleMember, nil
}

// PromptTracks shows a multi-select over the scanned tracks and returns the
// chosen subset, reindexed so every node shares the same ordinals. Selecting
// nothing keeps the full list.
func PromptTracks(tracks []core.Track) ([]core.Track, error) {
	var options []huh.Option[int]
	for _, t := range tracks {
		label := fmt.Sprintf("%s (%s)", t.Name, humanize.Bytes(uint64(t.Size)))
		options = append(options, huh.NewOption(label, t.Index))
	}

	var picked []int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[int]().
				Title("Select tracks for the session").
				Description("Members must hold identical files under identical names; leave empty for all").
				Options(options...).
				Value(&picked),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return tracks, nil
	}

	chosen := make(map[int]bool, len(picked))
	for _, i := range picked {
		chosen[i] = true
	}
	var out []core.Track
	for _, t := range tracks {
		if chosen[t.Index] {
			out = append(out, t)
		}
	}
	return media.Reindex(out), nil
}
