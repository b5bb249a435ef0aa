package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
)

var (
	colorOK      = color.New(color.FgGreen)
	colorFailed  = color.New(color.FgRed, color.Bold)
	colorPending = color.New(color.FgYellow)
	colorDim     = color.New(color.Faint)
)

// printTable writes one line per repository: source, fork state, release,
// mirror and errors. Colors follow color.NoColor, so they are dropped when w
// is not a terminal.
func printTable(w io.Writer, summary *model.OperationSummary) {
	width := len("SOURCE")
	for _, r := range summary.Records {
		width = max(width, len(r.Source.String()))
	}

	fmt.Fprintf(w, "%-*s  %-10s  %-8s  %s\n", width, "SOURCE", "FORK", "RELEASE", "MIRROR")
	for _, r := range summary.Records {
		state := stateColor(r).Sprintf("%-10s", r.ForkState)

		release := "-"
		switch {
		case r.ReleaseCreated:
			release = "created"
		case r.Release != "":
			release = "exists"
		}

		mirror := "-"
		if r.Import != nil {
			mirror = r.Import.ProjectURL
			if !r.Import.Created {
				mirror += " (existing)"
			}
		}

		fmt.Fprintf(w, "%-*s  %s  %-8s  %s\n", width, r.Source.String(), state, release, mirror)
		if len(r.Errors) > 0 {
			colorFailed.Fprintf(w, "%*s  %s\n", width, "", strings.Join(r.Errors, "; "))
		}
	}

	total := len(summary.Records)
	failed := summary.FailedCount()
	line := fmt.Sprintf("%d repositories, %d succeeded, %d failed", total, total-failed, failed)
	if failed > 0 {
		colorFailed.Fprintln(w, line)
	} else {
		colorOK.Fprintln(w, line)
	}
	if summary.Signature != "" {
		colorDim.Fprintf(w, "signature %s\n", summary.Signature)
	}
}

func stateColor(r *model.RepositoryRecord) *color.Color {
	switch {
	case !r.Failed():
		return colorOK
	case !r.ForkState.IsTerminal() || r.ForkState == model.ForkStateReady:
		return colorPending
	default:
		return colorFailed
	}
}
