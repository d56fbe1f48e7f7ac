package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ferrum-editor/ferrum/internal/cli"
	"github.com/ferrum-editor/ferrum/internal/config"
	"github.com/ferrum-editor/ferrum/internal/events"
	"github.com/ferrum-editor/ferrum/internal/journal"
	"github.com/ferrum-editor/ferrum/internal/keybinds"
	"github.com/ferrum-editor/ferrum/internal/logging"
	"github.com/ferrum-editor/ferrum/internal/server"
	"github.com/ferrum-editor/ferrum/internal/session"
	"github.com/ferrum-editor/ferrum/internal/store"
	"github.com/ferrum-editor/ferrum/internal/telemetry"
	"github.com/ferrum-editor/ferrum/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ferrum [path]",
	Short: "Ferrum - remote text editor",
	Long: `Ferrum edits text files that live behind a document store API.

Run without arguments to start the editor, or give a document path to open it.
Paths are relative to the remote volume ('notes/todo.md' opens 'C:/notes/todo.md').

Examples:
  ferrum                               # Start the editor
  ferrum notes/todo.md                 # Open a document
  ferrum open                          # Pick from recently opened documents
  ferrum serve --root ./docs           # Run a local document store
  ferrum cat notes/todo.md             # Print a document
  cat todo.md | ferrum save notes/todo.md
  ferrum config show -q editor         # Query the server config`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route := ""
		if len(args) > 0 {
			route = args[0]
		}
		return runTUI(route)
	},
}

var openCmd = &cobra.Command{
	Use:   "open [path]",
	Short: "Open a document, or pick one from the recent list",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return runTUI(args[0])
		}

		env, err := setup(false)
		if err != nil {
			return err
		}
		docs, err := env.journal.Recent(tui.RecentListLimit)
		env.close()
		if err != nil {
			return err
		}

		route, err := cli.PickDocument(docs)
		if errors.Is(err, cli.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		return runTUI(route)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document store API over a local directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a remote document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(false)
		if err != nil {
			return err
		}
		defer env.close()

		ctx, stop := signalContext()
		defer stop()
		opts := env.outputOptions()
		opts.Color = !flagNoColor && cli.IsTerminal(os.Stdout)
		return cli.Cat(ctx, env.client, args[0], opts)
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <path>",
	Short: "Write stdin (or --file) to a remote document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(false)
		if err != nil {
			return err
		}
		defer env.close()

		var in io.Reader = os.Stdin
		if flagSaveFile != "" {
			f, err := os.Open(flagSaveFile)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", flagSaveFile, err)
			}
			defer f.Close()
			in = f
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		path, err := session.ResolveRoutePath(args[0], env.settings.Volume)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()
		opts := env.outputOptions()
		opts.Color = !flagNoColor && cli.IsTerminal(os.Stdout)
		if err := cli.Save(ctx, env.client, path, bytes.NewReader(data), opts); err != nil {
			if jerr := env.journal.RecordSaveFailure(path, err); jerr != nil {
				env.logger.Warn("failed to journal save failure", zap.Error(jerr))
			}
			return err
		}
		if err := env.journal.RecordSave(path, len(data)); err != nil {
			env.logger.Warn("failed to journal save", zap.Error(err))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the server configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the server configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(false)
		if err != nil {
			return err
		}
		defer env.close()

		ctx, stop := signalContext()
		defer stop()
		return cli.ShowConfig(ctx, env.client, env.outputOptions())
	},
}

var sysinfoCmd = &cobra.Command{
	Use:   "sysinfo",
	Short: "Print one system telemetry sample from the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(false)
		if err != nil {
			return err
		}
		defer env.close()

		ctx, stop := signalContext()
		defer stop()
		opts := env.outputOptions()
		opts.Color = !flagNoColor && cli.IsTerminal(os.Stdout)
		return cli.SysInfo(ctx, env.client, opts)
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(false)
		if err != nil {
			return err
		}
		defer env.close()
		return cli.Recent(env.journal, flagRecentLimit, env.outputOptions())
	},
}

var keybindsCmd = &cobra.Command{
	Use:   "keybinds",
	Short: "Manage keybindings",
}

var keybindsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default keybindings to the config directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if _, err := os.Stat(config.KeybindsFile); err == nil && !flagForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", config.KeybindsFile)
		}
		if err := keybinds.CreateExampleConfig(config.KeybindsFile); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", config.KeybindsFile)
		return nil
	},
}

var keybindsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the keybindings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if _, err := keybinds.LoadOrDefault(config.KeybindsFile); err != nil {
			return err
		}
		fmt.Println("Keybindings OK")
		return nil
	},
}

// Global flags
var (
	flagAPI      string
	flagDemo     bool
	flagLogLevel string
	flagNoColor  bool
)

// Output flags
var (
	flagOutput string
	flagQuery  string
	flagStyle  string
)

var (
	flagServeRoot   string
	flagServeAddr   string
	flagServeConfig string

	flagSaveFile    string
	flagRecentLimit int
	flagForce       bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPI, "api", "", "Document store API URL (overrides settings)")
	rootCmd.PersistentFlags().BoolVar(&flagDemo, "demo", false, "Run without a backend using demo data")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	for _, c := range []*cobra.Command{configShowCmd, sysinfoCmd, recentCmd} {
		c.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (json/yaml/text)")
		c.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath expression or $(command) to filter the output")
	}
	catCmd.Flags().StringVar(&flagStyle, "style", "monokai", "Syntax highlighting style")

	serveCmd.Flags().StringVar(&flagServeRoot, "root", ".", "Directory to serve")
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", ":3001", "Listen address")
	serveCmd.Flags().StringVar(&flagServeConfig, "config", "", "Server config file (default ~/.ferrum/server/config.yaml)")

	saveCmd.Flags().StringVarP(&flagSaveFile, "file", "f", "", "Read content from file instead of stdin")
	recentCmd.Flags().IntVarP(&flagRecentLimit, "limit", "n", tui.RecentListLimit, "Maximum documents to list")
	keybindsInitCmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite an existing keybindings file")

	configCmd.AddCommand(configShowCmd)
	keybindsCmd.AddCommand(keybindsInitCmd, keybindsCheckCmd)
	rootCmd.AddCommand(openCmd, serveCmd, catCmd, saveCmd, configCmd, sysinfoCmd, recentCmd, keybindsCmd)
}

// environment holds what every client command needs
type environment struct {
	settings config.Settings
	client   *store.Client
	journal  *journal.Journal
	logger   *zap.Logger
}

func (e *environment) close() {
	if e.journal != nil {
		e.journal.Close()
	}
	logging.Sync()
}

func (e *environment) outputOptions() cli.Options {
	return cli.Options{
		Volume: e.settings.Volume,
		Output: flagOutput,
		Query:  flagQuery,
		Style:  flagStyle,
		Out:    os.Stdout,
	}
}

// setup loads settings, applies flag overrides and opens the client side.
// Interactive runs log to a file because the TUI owns the terminal.
func setup(interactive bool) (*environment, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	settings, err := config.LoadSettings(config.GetSettingsFilePath())
	if err != nil {
		return nil, err
	}
	if flagAPI != "" {
		settings.APIURL = flagAPI
	}
	if flagDemo {
		settings.Demo = true
	}
	if flagLogLevel != "" {
		settings.LogLevel = flagLogLevel
	}

	logCfg := logging.Config{Level: settings.LogLevel, Format: "console", OutputPath: "stderr"}
	if interactive {
		logCfg = logging.Config{Level: settings.LogLevel, Format: "json", OutputPath: config.LogFile}
	}
	if err := logging.Init(logCfg); err != nil {
		return nil, err
	}
	logger := logging.L()

	client := store.New(store.Options{
		BaseURL: settings.APIURL,
		Timeout: settings.Timeout(),
		Logger:  logger.Named("store"),
	})

	j, err := journal.Open(config.DatabasePath, settings.APIURL)
	if err != nil {
		return nil, err
	}

	return &environment{
		settings: settings,
		client:   client,
		journal:  j,
		logger:   logger,
	}, nil
}

// runTUI starts the interactive editor on route
func runTUI(route string) error {
	env, err := setup(true)
	if err != nil {
		return err
	}
	defer env.close()

	keys, err := keybinds.LoadOrDefault(config.KeybindsFile)
	if err != nil {
		return err
	}

	env.logger.Info("starting editor",
		zap.String("api", env.settings.APIURL),
		zap.Bool("demo", env.settings.Demo),
		zap.String("route", route))

	return tui.Run(tui.Options{
		Backend: env.client,
		Bus:     events.New(events.WithLogger(env.logger.Named("events"))),
		Journal: env.journal,
		Keys:    keys,
		Sampler: newSampler(env.settings, env.logger.Named("telemetry")),
		APIURL:  env.settings.APIURL,
		Volume:  env.settings.Volume,
		Route:   route,
		Demo:    env.settings.Demo,
		Logger:  env.logger.Named("tui"),
	})
}

func newSampler(settings config.Settings, logger *zap.Logger) telemetry.Sampler {
	if settings.Telemetry.Transport == "stream" {
		return &telemetry.StreamSampler{
			Interval: settings.PollInterval(),
			Logger:   logger,
		}
	}
	return &telemetry.PollSampler{
		Interval: settings.PollInterval(),
		Logger:   logger,
	}
}

// runServe runs the reference document store until interrupted
func runServe() error {
	if err := config.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	level := flagLogLevel
	if level == "" {
		level = "info"
	}
	if err := logging.Init(logging.Config{Level: level, Format: "console", OutputPath: "stderr"}); err != nil {
		return err
	}
	defer logging.Sync()

	configPath := flagServeConfig
	if configPath == "" {
		if err := os.MkdirAll(config.ServerStateDir, config.DirPermissions); err != nil {
			return fmt.Errorf("failed to create %s: %w", config.ServerStateDir, err)
		}
		configPath = filepath.Join(config.ServerStateDir, "config.yaml")
	}

	srv, err := server.New(server.Options{
		Root:       flagServeRoot,
		ConfigPath: configPath,
		Addr:       flagServeAddr,
		Logger:     logging.Named("server"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	logging.L().Debug("server config", zap.String("path", configPath))
	return srv.ListenAndServe(ctx)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
