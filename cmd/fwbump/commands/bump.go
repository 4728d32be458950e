package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/fwbump/pkg/fwversion"
	"github.com/abdul-hamid-achik/fwbump/pkg/workspace"
)

// SuccessMessage is printed before the version line with --verbose.
const SuccessMessage = "Version and revision updated successfully."

// ErrNotInteractive is returned for --interactive without a terminal.
var ErrNotInteractive = errors.New("--interactive requires a terminal on stdin")

// runForm runs a huh form; replaced in tests.
var runForm = func(f *huh.Form) error {
	return f.Run()
}

// stdinIsTerminal reports whether prompts can be shown; replaced in tests.
var stdinIsTerminal = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// resolveTarget picks the file from the argument or the config and applies
// the anchor directory.
func resolveTarget(args []string, opts *rootOptions) (string, error) {
	file := opts.cfg.File
	if len(args) > 0 {
		file = args[0]
	}
	if file == "" {
		return "", ErrNoFile
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	path := workspace.Resolve(cwd, opts.cfg.Anchor, file)
	slog.Debug("resolved version file", "file", file, "path", path, "anchor", opts.cfg.Anchor)
	return path, nil
}

func runBump(cmd *cobra.Command, args []string, opts *rootOptions) error {
	cfg := opts.cfg
	out := cmd.OutOrStdout()

	fail := func(err error) error {
		if cfg.JSON {
			printJSONError(out, err)
		}
		return err
	}

	path, err := resolveTarget(args, opts)
	if err != nil {
		return fail(err)
	}

	now, err := opts.clock()
	if err != nil {
		return fail(err)
	}

	rw := fwversion.Options{
		Major:                  cfg.Major,
		Minor:                  cfg.Minor,
		Now:                    now,
		DryRun:                 cfg.DryRun,
		LegacyRevisionFallback: cfg.LegacyRevisionFallback,
		Logger:                 slog.Default(),
	}

	if opts.interactive {
		if err := promptOverrides(path, &rw); err != nil {
			return fail(err)
		}
	}

	res, err := fwversion.Rewrite(path, rw)
	if err != nil {
		return fail(err)
	}

	if cfg.JSON {
		missing := make([]string, 0, len(res.Missing))
		for _, m := range res.Missing {
			missing = append(missing, m.Name())
		}
		printSuccess(out, BumpOutput{
			File:     res.Path,
			Version:  res.Version.String(),
			Major:    res.Version.Major,
			Minor:    res.Version.Minor,
			DateCode: res.Version.DateCode,
			Revision: res.Version.Revision,
			SameDay:  res.SameDay,
			Changed:  res.Changed,
			DryRun:   cfg.DryRun,
			Missing:  missing,
		})
		return nil
	}

	if cfg.Verbose {
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		if cfg.DryRun {
			fmt.Fprintln(out, yellow("Dry run, "+res.Path+" not modified."))
		} else {
			fmt.Fprintln(out, green(SuccessMessage))
		}
	}

	// The caller captures this line; keep it last and uncoloured.
	fmt.Fprintln(out, res.Version.String())
	return nil
}

// promptOverrides asks for the major and minor versions, prefilled with the
// configured overrides or the values currently in the file.
func promptOverrides(path string, rw *fwversion.Options) error {
	if !stdinIsTerminal() {
		return ErrNotInteractive
	}

	current, err := fwversion.Read(path)
	if err != nil && !errors.Is(err, fwversion.ErrMissingMarker) {
		return err
	}

	major := strconv.Itoa(current.Major)
	if rw.Major != nil {
		major = strconv.Itoa(*rw.Major)
	}
	minor := strconv.Itoa(current.Minor)
	if rw.Minor != nil {
		minor = strconv.Itoa(*rw.Minor)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Major version").
				Description(fmt.Sprintf("Currently %d", current.Major)).
				Value(&major).
				Validate(validateVersionPart),
			huh.NewInput().
				Title("Minor version").
				Description(fmt.Sprintf("Currently %d", current.Minor)).
				Value(&minor).
				Validate(validateVersionPart),
		),
	)
	if err := runForm(form); err != nil {
		return fmt.Errorf("prompt cancelled: %w", err)
	}

	rw.Major = overrideFromInput(major, current.Major, rw.Major)
	rw.Minor = overrideFromInput(minor, current.Minor, rw.Minor)
	return nil
}

// overrideFromInput returns nil when the answer keeps the current value and
// no override was configured, so the marker line is left as is.
func overrideFromInput(input string, current int, configured *int) *int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return configured
	}
	if n == current && configured == nil {
		return nil
	}
	return &n
}

func validateVersionPart(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
