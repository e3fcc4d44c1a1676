package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/jward/semantic/internal/metrics"
)

var (
	pathColor = color.New(color.Bold)
	ruleColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	okColor   = color.New(color.FgGreen)
)

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputResult writes a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "%s %s\n", errColor.Sprint("Error:"), err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

func outputResultText(w io.Writer, result CLIResult) error {
	switch r := result.Results.(type) {
	case CLIReport:
		formatReportText(w, r)
	case []CLIFinding:
		formatFindingsText(w, r)
	case CLIIndexSummary:
		formatSummaryText(w, r)
	case []CLIGraph:
		for _, g := range r {
			io.WriteString(w, g.DOT)
		}
	default:
		return fmt.Errorf("no text format for %T", result.Results)
	}
	return nil
}

// formatReportText prints the analysis of one file as aligned tables.
func formatReportText(w io.Writer, r CLIReport) {
	fmt.Fprintf(w, "%s (%s)\n\n", pathColor.Sprint(r.File), r.SourceType)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCOPE\tPARENT\tKIND\tFLAGS\tLINE")
	for _, s := range r.Scopes {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\n", s.ID, s.Parent, s.Kind, s.Flags, s.Line)
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tFLAGS\tSCOPE\tREFS\tLINE:COL")
	for _, s := range r.Symbols {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d:%d\n", s.ID, s.Name, s.Flags, s.Scope, s.RefCount, s.Line, s.Col)
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REF\tNAME\tFLAGS\tSYMBOL\tLINE:COL")
	for _, ref := range r.References {
		target := "global"
		if ref.Symbol != 0 {
			target = fmt.Sprintf("%d", ref.Symbol)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d:%d\n", ref.ID, ref.Name, ref.Flags, target, ref.Line, ref.Col)
	}
	tw.Flush()

	if len(r.Globals) > 0 {
		fmt.Fprintf(w, "\nGlobals: %s\n", strings.Join(r.Globals, ", "))
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(w, "%s:%d:%d: %s %s\n", r.File, d.Line, d.Col, errColor.Sprint(d.Kind), d.Message)
	}
	for _, u := range r.Unreachable {
		fmt.Fprintf(w, "%s:%d:%d: unreachable %s\n", r.File, u.Line, u.Col, u.Kind)
	}
}

// formatFindingsText prints one "file:line:col: rule message" line per
// finding and a closing count.
func formatFindingsText(w io.Writer, fs []CLIFinding) {
	for _, f := range fs {
		fmt.Fprintf(w, "%s:%d:%d: %s %s\n",
			pathColor.Sprint(f.File), f.Line, f.Col, ruleColor.Sprint(f.Rule), f.Message)
	}
	if len(fs) == 0 {
		fmt.Fprintln(w, okColor.Sprint("no findings"))
		return
	}
	noun := "findings"
	if len(fs) == 1 {
		noun = "finding"
	}
	fmt.Fprintln(w, errColor.Sprintf("%d %s", len(fs), noun))
}

// formatSummaryText prints an index run summary.
func formatSummaryText(w io.Writer, s CLIIndexSummary) {
	fmt.Fprintf(w, "Indexed %s in %dms\n", s.Root, s.DurationMS)
	fmt.Fprintf(w, "Files: %d indexed, %d skipped, %d failed\n",
		s.Files[metrics.OutcomeIndexed], s.Files[metrics.OutcomeSkipped], s.Files[metrics.OutcomeFailed])
	if len(s.Rows) > 0 {
		tables := make([]string, 0, len(s.Rows))
		for t := range s.Rows {
			tables = append(tables, t)
		}
		slices.Sort(tables)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, t := range tables {
			fmt.Fprintf(tw, "  %s\t%d\n", t, s.Rows[t])
		}
		tw.Flush()
	}
	fmt.Fprintf(w, "Database: %s\n", s.Database)
}
