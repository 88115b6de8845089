package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iconidentify/mediagate/internal/artifact"
	"github.com/iconidentify/mediagate/internal/config"
	"github.com/iconidentify/mediagate/internal/logger"
	"github.com/iconidentify/mediagate/internal/repository"
	"github.com/iconidentify/mediagate/pkg/ytdlp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// cfgFile holds the path to the config file specified by the user
var cfgFile string

// globalConfig holds the loaded configuration
var globalConfig *config.Config

// appLogger is built from the loaded log configuration
var appLogger *slog.Logger

var rootCmd = &cobra.Command{
	Use:   "mediagate",
	Short: "Media retrieval gateway",
	Long: `mediagate resolves metadata for hosted videos and streams a chosen
rendition back to the caller as a file download.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadGlobalConfig,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file")
}

func loadGlobalConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	globalConfig = cfg

	appLogger = logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(appLogger)
	return nil
}

// openJournal returns the SQLite journal when a path is configured and an
// in-memory one otherwise.
func openJournal(ctx context.Context, cfg config.StorageConfig) (repository.AllocationRepository, error) {
	if cfg.JournalPath == "" {
		return repository.NewInMemoryAllocationRepository(), nil
	}
	return repository.NewSQLiteAllocationRepository(ctx, cfg.JournalPath)
}

// openArtifacts wires the artifact manager to its journal. The caller must
// close the journal.
func openArtifacts(ctx context.Context, cfg config.StorageConfig) (*artifact.Manager, repository.AllocationRepository, error) {
	journal, err := openJournal(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}

	manager, err := artifact.NewManager(cfg, journal, appLogger)
	if err != nil {
		journal.Close()
		return nil, nil, err
	}
	return manager, journal, nil
}

func newProvider(cfg config.ProviderConfig) (*ytdlp.Client, error) {
	return ytdlp.New(ytdlp.Config{
		BinaryPath:          cfg.BinaryPath,
		UserAgent:           cfg.UserAgent,
		PlayerClient:        cfg.PlayerClient,
		SocketTimeout:       cfg.SocketTimeout,
		ForceIPv4:           cfg.ForceIPv4,
		NoCheckCertificates: cfg.NoCheckCertificates,
	})
}
