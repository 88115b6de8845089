package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().Duration("max-age", 0, "Remove orphaned files older than this (default: sweep.max_age)")
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge temp files left by crashed or interrupted downloads",
	Long: `Removes files recorded in the allocation journal by a previous process,
then removes prefixed files in the temp root older than --max-age.
Run it only while no server is using the same temp root.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	maxAge, _ := cmd.Flags().GetDuration("max-age")
	if maxAge <= 0 {
		maxAge = globalConfig.Sweep.MaxAge
	}
	if maxAge <= 0 {
		maxAge = 2 * time.Hour
	}

	ctx := cmd.Context()
	artifacts, journal, err := openArtifacts(ctx, globalConfig.Storage)
	if err != nil {
		return err
	}
	defer journal.Close()

	recovered, err := artifacts.Recover(ctx)
	if err != nil {
		return err
	}
	swept, err := artifacts.Sweep(ctx, maxAge)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "recovered %d journaled files, swept %d orphaned files from %s\n",
		recovered, swept, artifacts.Root())
	return nil
}
