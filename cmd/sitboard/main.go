package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/evielund/sitboard/internal/adapters/remote"
	"github.com/evielund/sitboard/internal/adapters/storage/sqlite"
	"github.com/evielund/sitboard/internal/app"
	"github.com/evielund/sitboard/internal/config"
	"github.com/evielund/sitboard/internal/domain"
	"github.com/evielund/sitboard/internal/platform"
	"github.com/evielund/sitboard/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := fang.Execute(context.Background(), newRootCommand(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// rootFlags holds the flag values shared by every subcommand.
type rootFlags struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// newRootCommand builds the sitboard command tree.
func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("SITBOARD_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultAppName := "sitboard"
	if envApp := strings.TrimSpace(os.Getenv("SITBOARD_APP_NAME")); envApp != "" {
		defaultAppName = envApp
	}

	root := &cobra.Command{
		Use:           "sitboard",
		Short:         "Terminal board client for the situation room",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd.Context(), flags, cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "path to sqlite database")
	root.PersistentFlags().StringVar(&flags.appName, "app", defaultAppName, "application name for config/data path resolution")
	root.PersistentFlags().BoolVar(&flags.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(newPathsCommand(flags))
	root.AddCommand(newSeedCommand(flags))
	return root
}

// runtime bundles the resolved startup state shared by the command flows.
type runtime struct {
	appName    string
	devMode    bool
	configPath string
	paths      platform.Paths
	cfg        config.Config
}

// resolveRuntime resolves paths and configuration from flags and environment.
func resolveRuntime(flags *rootFlags) (runtime, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: flags.appName,
		DevMode: flags.devMode,
	})
	if err != nil {
		return runtime{}, fmt.Errorf("resolve platform paths: %w", err)
	}

	configPath := flags.configPath
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("SITBOARD_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := flags.dbPath
	dbOverridden := strings.TrimSpace(dbPath) != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("SITBOARD_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return runtime{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	return runtime{
		appName:    flags.appName,
		devMode:    flags.devMode,
		configPath: configPath,
		paths:      paths,
		cfg:        cfg,
	}, nil
}

// runBoard starts the interactive board flow.
func runBoard(ctx context.Context, flags *rootFlags, stderr io.Writer) error {
	rt, err := resolveRuntime(flags)
	if err != nil {
		return err
	}

	logger, err := newRuntimeLogger(stderr, rt.appName, rt.cfg.Logging, rt.paths.LogPath)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	// Keep TUI rendering clean: runtime logs stay in the file sink while the board is active.
	logger.SetConsoleEnabled(false)
	defer func() {
		if closeErr := logger.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", rt.appName, "dev_mode", rt.devMode, "server_mode", rt.cfg.Server.Mode)
	logger.Debug("runtime paths resolved", "config_path", rt.configPath, "data_dir", rt.paths.DataDir, "db_path", rt.cfg.Database.Path)

	gateway, cleanup, err := openGateway(rt.cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := app.NewService(gateway, time.Now)
	m := tui.NewModel(
		svc,
		tui.WithFieldConfig(tui.FieldConfig{
			ShowPriority: rt.cfg.UI.ShowPriority,
			ShowDueDate:  rt.cfg.UI.ShowDueDate,
			ShowLabels:   rt.cfg.UI.ShowLabels,
		}),
		tui.WithPollInterval(time.Duration(rt.cfg.UI.PollSeconds)*time.Second),
		tui.WithColumnMinWidth(rt.cfg.UI.ColumnMinWidth),
		tui.WithKeyConfig(tui.KeyConfig{
			Grab:    rt.cfg.Keys.Grab,
			Cancel:  rt.cfg.Keys.Cancel,
			Refresh: rt.cfg.Keys.Refresh,
			Detail:  rt.cfg.Keys.Detail,
			Help:    rt.cfg.Keys.Help,
			Quit:    rt.cfg.Keys.Quit,
		}),
	)

	logger.Info("starting board program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("board program terminated with error", "err", err)
		return fmt.Errorf("run board program: %w", err)
	}
	logger.Info("board program complete")
	return nil
}

// openGateway opens the board gateway selected by the server mode.
func openGateway(cfg config.Config, logger *runtimeLogger) (app.Gateway, func(), error) {
	switch cfg.Server.Mode {
	case config.ServerModeRemote:
		logger.Info("connecting remote gateway", "base_url", cfg.Server.BaseURL)
		client, err := remote.NewClient(cfg.Server.BaseURL, &http.Client{
			Timeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			logger.Error("remote gateway setup failed", "base_url", cfg.Server.BaseURL, "err", err)
			return nil, nil, fmt.Errorf("connect remote gateway: %w", err)
		}
		return client, func() {}, nil
	case config.ServerModeLocal:
		logger.Info("opening sqlite gateway", "db_path", cfg.Database.Path)
		store, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
			return nil, nil, fmt.Errorf("open sqlite gateway: %w", err)
		}
		cleanup := func() {
			if closeErr := store.Close(); closeErr != nil {
				logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
			}
		}
		return store, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown server mode: %s", cfg.Server.Mode)
	}
}

// newPathsCommand builds the paths subcommand.
func newPathsCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveRuntime(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", rt.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", rt.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", rt.configPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", rt.paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", rt.cfg.Database.Path)
			_, _ = fmt.Fprintf(out, "log: %s\n", rt.paths.LogPath)
			return nil
		},
	}
}

// seedSpec describes one demo item created by the seed subcommand.
type seedSpec struct {
	columnKey string
	title     string
	priority  domain.Priority
	labels    []string
}

// seedSpecs stores a package-level helper value.
var seedSpecs = []seedSpec{
	{columnKey: "todo", title: "Triage overnight reports", priority: domain.PriorityHigh, labels: []string{"ops"}},
	{columnKey: "todo", title: "Draft rollout checklist", priority: domain.PriorityMedium, labels: []string{"planning"}},
	{columnKey: "todo", title: "Review access requests", priority: domain.PriorityLow, labels: nil},
	{columnKey: "in_progress", title: "Investigate queue latency", priority: domain.PriorityHigh, labels: []string{"ops", "urgent"}},
	{columnKey: "in_progress", title: "Update runbook links", priority: domain.PriorityLow, labels: []string{"docs"}},
	{columnKey: "done", title: "Rotate staging credentials", priority: domain.PriorityMedium, labels: nil},
}

// newSeedCommand builds the seed subcommand.
func newSeedCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate the local database with demo items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveRuntime(flags)
			if err != nil {
				return err
			}
			if rt.cfg.Server.Mode != config.ServerModeLocal {
				return fmt.Errorf("seed requires local server mode, configured mode is %q", rt.cfg.Server.Mode)
			}
			count, err := seedDemoItems(cmd.Context(), rt.cfg.Database.Path, uuid.NewString, time.Now)
			if err != nil {
				return fmt.Errorf("seed demo items: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items into %s\n", count, rt.cfg.Database.Path)
			return nil
		},
	}
}

// seedDemoItems inserts the demo board into the sqlite store.
func seedDemoItems(ctx context.Context, dbPath string, newID app.IDGenerator, now app.Clock) (int, error) {
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return 0, fmt.Errorf("open sqlite store: %w", err)
	}
	defer func() { _ = store.Close() }()

	// ListColumns seeds the stock columns on first use.
	if _, err := store.ListColumns(ctx); err != nil {
		return 0, fmt.Errorf("ensure columns: %w", err)
	}
	existing, err := store.ListItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("list items: %w", err)
	}
	positions := make(map[string]int)
	for _, item := range existing {
		if item.Position >= positions[item.ColumnKey] {
			positions[item.ColumnKey] = item.Position + 1
		}
	}

	created := 0
	for _, spec := range seedSpecs {
		item, err := domain.NewItem(domain.ItemInput{
			ID:        newID(),
			ColumnKey: spec.columnKey,
			Position:  positions[spec.columnKey],
			Title:     spec.title,
			Priority:  spec.priority,
			Labels:    spec.labels,
		}, now())
		if err != nil {
			return created, fmt.Errorf("build demo item %q: %w", spec.title, err)
		}
		if err := store.CreateItem(ctx, item); err != nil {
			return created, fmt.Errorf("create demo item %q: %w", spec.title, err)
		}
		positions[spec.columnKey]++
		created++
	}
	return created, nil
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
