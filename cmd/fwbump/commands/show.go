package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/fwbump/pkg/fwversion"
)

// Output formats accepted by show --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newShowCmd(opts *rootOptions) *cobra.Command {
	var format string
	var details bool

	cmd := &cobra.Command{
		Use:   "show [file]",
		Short: "Print the version recorded in a file",
		Long: `Print the version currently recorded in the version file without
modifying it.

Examples:
  fwbump show inc/version.h
  fwbump show inc/version.h --details
  fwbump show --format yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			if opts.cfg.JSON {
				format = formatJSON
			}
			return runShow(cc, args, opts, format, details)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&details, "details", false, "Show each part of the version in text output")

	return cmd
}

func runShow(cmd *cobra.Command, args []string, opts *rootOptions, format string, details bool) error {
	out := cmd.OutOrStdout()
	format = strings.ToLower(format)

	switch format {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format %q, want text, json or yaml", format)
	}

	path, err := resolveTarget(args, opts)
	if err != nil {
		if format == formatJSON {
			printJSONError(out, err)
		}
		return err
	}

	v, err := fwversion.Read(path)
	if err != nil {
		if format == formatJSON {
			printJSONError(out, err)
		}
		return err
	}

	now, err := opts.clock()
	if err != nil {
		return err
	}

	result := ShowOutput{
		File:     path,
		Version:  v.String(),
		Major:    v.Major,
		Minor:    v.Minor,
		DateCode: v.DateCode,
		Revision: v.Revision,
		Today:    v.DateCode == fwversion.DateCode(now()),
	}
	if d, err := fwversion.ParseDateCode(v.DateCode, time.Local); err == nil {
		result.Date = d.Format(dateLayout)
	}

	switch format {
	case formatJSON:
		printSuccess(out, result)
		return nil
	case formatYAML:
		return printYAML(out, result)
	}

	if !details {
		fmt.Fprintln(out, result.Version)
		return nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(out, "  File:     %s\n", result.File)
	fmt.Fprintf(out, "  Version:  %s\n", cyan(result.Version))
	fmt.Fprintf(out, "  Major:    %d\n", result.Major)
	fmt.Fprintf(out, "  Minor:    %d\n", result.Minor)
	if result.Date != "" {
		fmt.Fprintf(out, "  Date:     %s %s\n", result.DateCode, dim("("+result.Date+")"))
	} else {
		fmt.Fprintf(out, "  Date:     %s\n", result.DateCode)
	}
	fmt.Fprintf(out, "  Revision: %d\n", result.Revision)
	if result.Today {
		fmt.Fprintf(out, "  %s Dated today; the next bump increments the revision\n", green("✓"))
	}
	return nil
}
