package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iconidentify/mediagate/internal/config"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	// Version must work without a valid config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mediagate %s (built %s)\n", Version, BuildTime)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return
		}
		provider, err := newProvider(cfg.Provider)
		if err != nil {
			fmt.Fprintf(out, "yt-dlp: not found (%s)\n", cfg.Provider.BinaryPath)
			return
		}
		if v, err := provider.Version(cmd.Context()); err == nil {
			fmt.Fprintf(out, "yt-dlp %s\n", v)
		}
	},
}
