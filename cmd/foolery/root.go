package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fooleryhq/foolery/internal/backend"
	_ "github.com/fooleryhq/foolery/internal/backend/beadscli"
	_ "github.com/fooleryhq/foolery/internal/backend/jsonlstore"
	_ "github.com/fooleryhq/foolery/internal/backend/stub"
	"github.com/fooleryhq/foolery/internal/configfile"
	"github.com/fooleryhq/foolery/internal/telemetry"
)

var (
	fooleryDir  string
	backendFlag string
	actorFlag   string
	jsonOutput  bool
	verboseFlag bool

	cfg *configfile.Config
)

var rootCmd = &cobra.Command{
	Use:   "foolery",
	Short: "Workflow-aware bead tracking for agent orchestration",
	Long: `foolery tracks beads (units of agent work) through declarative workflow
profiles. It fronts a pluggable backend: a local JSONL file store, the bd
issue tracker, or a stub.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		if err := telemetry.Init(cmd.Context(), "foolery", Version); err != nil {
			slog.Warn("telemetry init failed", "error", err)
		}
		return loadConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.Shutdown(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&fooleryDir, "dir", "", "foolery data directory (default: nearest .foolery)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "backend adapter (jsonl|bd|stub)")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "actor recorded on new beads")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	viper.SetEnvPrefix("FOOLERY")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
}

func setupLogging() {
	level := slog.LevelWarn
	if verboseFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// resolveDir locates the foolery directory: --dir / FOOLERY_DIR if set,
// otherwise the nearest .foolery walking up from the working directory,
// otherwise ./.foolery.
func resolveDir() string {
	if d := viper.GetString("dir"); d != "" {
		return d
	}
	cwd, err := os.Getwd()
	if err != nil {
		return configfile.DirName
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, configfile.DirName)
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			return candidate
		}
		if dir == filepath.Dir(dir) {
			break
		}
	}
	return filepath.Join(cwd, configfile.DirName)
}

func loadConfig() error {
	dir := resolveDir()
	loaded, err := configfile.Load(dir)
	if err != nil {
		return err
	}
	if loaded == nil {
		loaded = configfile.DefaultConfig()
	}
	if v := viper.GetString("backend"); v != "" {
		loaded.Backend = v
	}
	if v := viper.GetString("actor"); v != "" {
		loaded.Actor = v
	}
	fooleryDir = dir
	cfg = loaded
	return nil
}

// openBackend constructs the configured backend wrapped with telemetry.
// Callers must Close it.
func openBackend() (backend.Backend, error) {
	b, err := backend.New(cfg.Backend, backend.Config{
		Dir:       fooleryDir,
		JSONLPath: cfg.JSONLPath(fooleryDir),
		BDBinary:  cfg.BDBinary,
		BDDBPath:  cfg.BDDBPath,
		Timeout:   cfg.Timeout(),
		Actor:     cfg.Actor,
		IDPrefix:  cfg.IDPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}
	return backend.Instrument(b), nil
}

// gateCap answers UNAVAILABLE for operations the backend does not support.
func gateCap(b backend.Backend, op string, supported bool) error {
	return backend.Gate(b.Name(), op, supported)
}
