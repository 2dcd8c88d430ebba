package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/syncstream/internal/config"
	syncerrors "github.com/tessro/syncstream/internal/errors"
	"github.com/tessro/syncstream/internal/wizard"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool
	noUI    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "syncstream",
	Short: "Play audio in lockstep across machines on a LAN",
	Long: `Syncstream keeps independent audio players on separate machines playing
the same track list in lockstep. One node leads the session; the others join
and follow over UDP broadcast.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	// Bare invocation in a terminal asks which role to take; otherwise the
	// role must be given explicitly via 'lead' or 'join'.
	RunE: func(cmd *cobra.Command, args []string) error {
		if !wizard.IsTerminal() {
			return cmd.Help()
		}
		role, err := wizard.PromptRole()
		if err != nil {
			return err
		}
		return runSession(role)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.syncstreamrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noUI, "no-ui", false, "run without the terminal dashboard")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, syncerrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}
