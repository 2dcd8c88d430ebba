package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/syncstream/internal/media"
)

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List the tracks in the media directory",
	Long: `List the audio files that would make up a session, in session order.

Order matters: tracks are identified between nodes by their position in
this list, so every machine must produce the same listing.`,
	Args: cobra.NoArgs,
	RunE: runTracks,
}

func init() {
	rootCmd.AddCommand(tracksCmd)
}

func runTracks(cmd *cobra.Command, args []string) error {
	tracks, err := media.Scan(cfg.Media.Dir)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(tracks)
	}

	for _, t := range tracks {
		fmt.Printf("%3d  %-40s %8s\n", t.Index, t.Name, humanize.Bytes(uint64(t.Size)))
	}
	if Verbose() {
		fmt.Printf("\n%d tracks in %s\n", len(tracks), cfg.Media.Dir)
	}
	return nil
}
