// Package commands provides the CLI commands for fwbump.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abdul-hamid-achik/fwbump/internal/config"
	"github.com/abdul-hamid-achik/fwbump/internal/log"
	"github.com/abdul-hamid-achik/fwbump/internal/version"
)

var (
	// ErrNoFile is returned when neither an argument nor the config names
	// the version file.
	ErrNoFile = errors.New("no version file given; pass it as an argument or set 'file' in .fwbump.yaml")

	ErrLogHandlerFailed = errors.New("log handler failed")
)

// dateLayout is the layout accepted by --date.
const dateLayout = "2006-01-02"

// flagBindings maps config keys to the flag names that override them.
var flagBindings = map[string]string{
	config.KeyMajor:          "majorV",
	config.KeyMinor:          "minorV",
	config.KeyVerbose:        "verbose",
	config.KeyAnchor:         "anchor",
	config.KeyDryRun:         "dry-run",
	config.KeyJSON:           "json",
	config.KeyLegacyRevision: "legacy-revision",
	config.KeyLogLevel:       "log-level",
	config.KeyLogFormat:      "log-format",
}

// rootOptions carries the state shared by the root command and its
// subcommands for one execution.
type rootOptions struct {
	configFile  string
	date        string
	interactive bool

	v   *viper.Viper
	cfg *config.Config

	// now is the wall clock; replaced in tests.
	now func() time.Time
}

// clock returns the time source for the run, honouring --date.
func (o *rootOptions) clock() (func() time.Time, error) {
	if o.date == "" {
		return o.now, nil
	}
	t, err := time.ParseInLocation(dateLayout, o.date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", o.date, err)
	}
	return func() time.Time { return t }, nil
}

// NewRootCmd builds the fwbump command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{now: time.Now})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fwbump [file]",
		Short: "fwbump - date-based firmware version bumper",
		Long: `fwbump rewrites the firmware version recorded in a C header as four lines:

    #define FW_MAJOR_VERSION (x)
    #define FW_MINOR_VERSION (y)
    #define FW_VERSION_VERSION (yyddd)
    #define FW_REVISION_VERSION (z)

The date code is the two-digit year and the day of the year. Running fwbump
again on the same day bumps the revision; a new day resets it to 0. The new
version is printed as major.minor.yyddd.rev for build scripts to capture.

Examples:
  fwbump inc/version.h
  fwbump inc/version.h --majorV 3 --minorV 0
  fwbump inc/version.h --verbose --anchor RelaySource
  fwbump show inc/version.h --format yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.GetVersion(),
		RunE: func(cc *cobra.Command, args []string) error {
			return runBump(cc, args, opts)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default: .fwbump.yaml in the working directory)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("anchor", "", "Name of the repository root directory the file path is relative to")
	cmd.PersistentFlags().String("log-level", "warn", "Set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "text", "Set the log format (text, json)")

	cmd.Flags().Bool("verbose", false, "Print a success message before the version")
	cmd.Flags().Int("majorV", 0, "Set the major version instead of keeping the current one")
	cmd.Flags().Int("minorV", 0, "Set the minor version instead of keeping the current one")
	cmd.Flags().Bool("dry-run", false, "Compute and print the new version without writing the file")
	cmd.Flags().Bool("legacy-revision", false, "On a new day, use the carried over major/minor value as revision like older releases")
	cmd.Flags().StringVar(&opts.date, "date", "", "Use this date (YYYY-MM-DD) instead of today")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Prompt for the major and minor versions")

	cmd.PersistentPreRunE = func(cc *cobra.Command, _ []string) error {
		opts.v = config.New()
		if err := config.BindFlags(opts.v, cc.Flags(), flagBindings); err != nil {
			return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}

		cfg, err := config.Load(opts.v, opts.configFile)
		if err != nil {
			return err
		}
		opts.cfg = cfg

		h, err := log.CreateHandler(cc.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLogHandlerFailed, err)
		}
		slog.SetDefault(slog.New(h))

		slog.Debug("configuration loaded", "source", cfg.Source)
		return nil
	}

	cmd.AddCommand(newShowCmd(opts))

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
