package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/iconidentify/mediagate/internal/service"
)

func init() {
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Print the metadata the analyze endpoint would return",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := newProvider(globalConfig.Provider)
		if err != nil {
			return err
		}

		// Analyze never touches temp storage.
		svc := service.NewMediaService(provider, nil, globalConfig.Provider, globalConfig.Storage, appLogger)

		meta, err := svc.Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	},
}
