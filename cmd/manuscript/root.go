package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yuanying/manuscript/internal/config"
	"github.com/yuanying/manuscript/internal/logging"
	"github.com/yuanying/manuscript/internal/store"
)

// app is the state shared by every subcommand once the root has loaded the
// configuration.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

type globalOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "manuscript",
		Short: "Write books in Markdown and publish them as EPUB, Markdown or PDF",
		Long: `manuscript keeps a book project (metadata and Markdown chapters) and
exports it as an EPUB 3 archive, a Markdown bundle or a PDF. EPUB files can
be imported back into a project.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file path (default: ~/.config/manuscript/config.toml)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (default: from config)")
	flags.String("log-format", "", "Log format: console, json (default: from config)")
	flags.BoolP("verbose", "v", false, "Enable debug logging (overrides --log-level)")

	cmd.AddCommand(
		newExportCmd(a),
		newImportCmd(a),
		newProjectCmd(a),
		newSuggestCmd(a),
	)
	return cmd
}

func readGlobalOptions(cmd *cobra.Command) (globalOptions, error) {
	flags := cmd.Flags()
	var opts globalOptions
	var err error
	if opts.ConfigPath, err = flags.GetString("config"); err != nil {
		return opts, err
	}
	if opts.LogLevel, err = flags.GetString("log-level"); err != nil {
		return opts, err
	}
	if opts.LogFormat, err = flags.GetString("log-format"); err != nil {
		return opts, err
	}
	if opts.Verbose, err = flags.GetBool("verbose"); err != nil {
		return opts, err
	}

	opts.LogLevel = strings.ToLower(strings.TrimSpace(opts.LogLevel))
	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return opts, fmt.Errorf("invalid --log-level %q: must be debug, info, warn, or error", opts.LogLevel)
	}
	opts.LogFormat = strings.ToLower(strings.TrimSpace(opts.LogFormat))
	switch opts.LogFormat {
	case "", "console", "json":
	default:
		return opts, fmt.Errorf("invalid --log-format %q: must be console or json", opts.LogFormat)
	}
	if opts.Verbose {
		opts.LogLevel = "debug"
	}
	return opts, nil
}

func (a *app) init(cmd *cobra.Command) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}

	cfg, path, exists, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Logging.Format = opts.LogFormat
	}

	logger, err := buildLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	logger.Debug("configuration loaded", zap.String("path", path), zap.Bool("exists", exists))
	return nil
}

func buildLogger(w io.Writer, level, format string) (*zap.Logger, error) {
	return logging.New(w, level, format)
}

func (a *app) openStore() (*store.Store, error) {
	s, err := store.Open(a.cfg.Store.Dir, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open project store: %w", err)
	}
	return s, nil
}
