package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/eventmerge/internal/config"
	"github.com/pfrederiksen/eventmerge/internal/logger"
	"github.com/pfrederiksen/eventmerge/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// serviceName tags every log line
const serviceName = "eventmerge"

// Version is reported by --version
var Version = "dev"

// rootOptions holds the persistent flags and the state derived from them
type rootOptions struct {
	envFile   string
	logLevel  string
	store     string
	locations string
	format    string
	verbose   bool

	cfg *config.Config
	log *logger.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "eventmerge",
		Short: "Merge scraped community events into one canonical store",
		Long: `A CLI tool to merge event listings scraped from several communities.
Duplicate listings of the same occurrence are collapsed, events already in the
store are never re-added, and informal venues are mapped onto location records.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", "", "Path to a .env file (default .env, overridden by "+config.EnvFileVar+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.store, "store", "", "Event store file (default from EVENTMERGE_STORE_PATH)")
	flags.StringVar(&opts.locations, "locations", "", "Location registry file (default from EVENTMERGE_LOCATIONS_PATH)")
	flags.StringVar(&opts.format, "format", "text", "Output format: text or json")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output and debug logging")

	cmd.AddCommand(
		newRunCmd(opts),
		newListCmd(opts),
		newStatsCmd(opts),
		newExportICSCmd(opts),
	)

	return cmd
}

// setup loads configuration, applies flag overrides and installs the logger
func (o *rootOptions) setup(cmd *cobra.Command) error {
	format := OutputFormat(strings.ToLower(o.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", o.format)
	}
	o.format = string(format)

	if _, err := config.LoadEnvFile(o.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.StorePath = o.store
	}
	if flags.Changed("locations") {
		cfg.LocationsPath = o.locations
	}
	switch {
	case flags.Changed("log-level"):
		cfg.LogLevel = o.logLevel
	case o.verbose:
		cfg.LogLevel = string(logger.LevelDebug)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	log, err := logger.NewForEnvironment(serviceName, cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	o.cfg = cfg
	o.log = log
	return nil
}

func (o *rootOptions) outputFormat() OutputFormat {
	return OutputFormat(o.format)
}

func (o *rootOptions) storage() (*storage.Storage, error) {
	store, err := storage.New(o.cfg.StorePath, o.cfg.LocationsPath)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	return execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
