package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cuemby/vordr/pkg/config"
	"github.com/cuemby/vordr/pkg/log"
	"github.com/cuemby/vordr/pkg/metrics"
	"github.com/cuemby/vordr/pkg/storage"
	"github.com/cuemby/vordr/pkg/volume"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	env := &environment{viper: config.New()}

	rootCmd := &cobra.Command{
		Use:   "vordr",
		Short: "Vordr - secure local volume management",
		Long: `Vordr manages named, directory-backed volumes under a sandboxed
data root. Names are validated before they reach the filesystem, and
every destructive operation re-checks that it stays inside the root.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Vordr version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&env.configFile, "config", "", "YAML config file")
	flags.String(config.KeyRoot, config.DefaultRoot, "Data root directory")
	flags.String(config.KeyDBPath, "", "Record store path (default <root>/vordr.db)")
	flags.String(config.KeyLogLevel, string(log.WarnLevel), "Log level (debug, info, warn, error)")
	flags.Bool(config.KeyLogJSON, false, "Write logs as JSON")
	flags.String(config.KeyMetricsTextfile, "", "Write Prometheus metrics to this file after each command")
	cobra.CheckErr(config.BindFlags(env.viper, flags))

	rootCmd.AddCommand(newVolumeCmd(env))
	rootCmd.AddCommand(newApplyCmd(env))

	return rootCmd
}

// environment resolves configuration lazily, after flags are parsed
type environment struct {
	viper      *viper.Viper
	configFile string
}

func (e *environment) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(e.viper, e.configFile)
	if err != nil {
		return nil, err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
		Output:     cmd.ErrOrStderr(),
	})
	return cfg, nil
}

// session is one command's view of the record store and lifecycle manager
type session struct {
	cfg     *config.Config
	store   *storage.BoltStore
	manager *volume.Manager
}

func (e *environment) open(cmd *cobra.Command) (*session, error) {
	cfg, err := e.load(cmd)
	if err != nil {
		return nil, err
	}
	return openSession(cfg)
}

func openSession(cfg *config.Config) (*session, error) {
	store, err := storage.NewBoltStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	mgr, err := volume.NewManager(volume.Config{Root: cfg.Root, Store: store})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &session{cfg: cfg, store: store, manager: mgr}, nil
}

// Close exports metrics when requested and releases the store
func (s *session) Close() error {
	if s.cfg.MetricsTextfile != "" {
		if err := metrics.NewCollector(s.store).Collect(); err != nil {
			log.Logger.Warn().Err(err).Msg("Failed to collect volume metrics")
		} else if err := metrics.WriteTextfile(s.cfg.MetricsTextfile); err != nil {
			log.Logger.Warn().Err(err).Str("path", s.cfg.MetricsTextfile).Msg("Failed to write metrics textfile")
		}
	}
	return s.store.Close()
}
