package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/syncstream/internal/core"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a session as a member",
	Long: `Join a playback session already led by another machine on the LAN.

The node broadcasts Discover probes until the leader answers, then follows
the leader's heartbeats: position drift beyond the hard threshold is
corrected by seeking, and a silent leader pauses playback until it
reappears. If the leader never answers, the node gives up after the
configured number of probes.`,
	Args: cobra.NoArgs,
	RunE: runJoin,
}

func init() {
	rootCmd.AddCommand(joinCmd)
}

func runJoin(cmd *cobra.Command, args []string) error {
	return runSession(core.RoleMember)
}
