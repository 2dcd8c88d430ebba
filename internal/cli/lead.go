package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/syncstream/internal/core"
)

var leadCmd = &cobra.Command{
	Use:   "lead",
	Short: "Start a session as the leader",
	Long: `Start a new playback session on this machine.

The leader is the clock reference for the whole session: it broadcasts a
heartbeat every second and members seek their players to follow it. There is
exactly one leader per session; a second leader on the same network is
ignored by nodes already bound to the first.

In a terminal, a picker lets you narrow the session to a subset of the
scanned tracks. Every member must hold identical files under identical
names, since tracks are referenced by their position in the sorted list.`,
	Args: cobra.NoArgs,
	RunE: runLead,
}

func init() {
	rootCmd.AddCommand(leadCmd)
}

func runLead(cmd *cobra.Command, args []string) error {
	return runSession(core.RoleLeader)
}
