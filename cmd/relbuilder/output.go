package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"git.home.luguber.info/inful/relbuilder/internal/history"
	"git.home.luguber.info/inful/relbuilder/internal/pipeline"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorStatus(status string, colorize bool) string {
	if !colorize {
		return status
	}
	switch status {
	case pipeline.StatusCompleted, pipeline.StepSuccess:
		return ansiGreen + status + ansiReset
	case pipeline.StatusFailed:
		return ansiRed + status + ansiReset
	default:
		return status
	}
}

// printReport renders a one-shot run summary to stdout.
func printReport(report *pipeline.Report) {
	colorize := shouldColorize(os.Stdout)

	fmt.Printf("Run %s (%s): %s in %s\n",
		report.RunID, report.Pipeline,
		colorStatus(report.Status, colorize),
		report.Duration().Round(time.Millisecond))

	if len(report.Steps) > 0 {
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"Step", "Status", "Exit", "Attempts", "Duration"})
		for _, s := range report.Steps {
			tw.AppendRow(table.Row{
				s.Name,
				colorStatus(s.Status, colorize),
				s.ExitCode,
				s.Attempts,
				s.Duration.Round(time.Millisecond),
			})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
			{Number: 5, Align: text.AlignRight},
		})
		tw.Render()
	}

	for _, b := range report.Bundles {
		fmt.Printf("Bundle %s: %s (%d files, %d bytes)\n", b.Name, b.Path, b.Files, b.Size)
	}
	for _, rec := range report.Published {
		fmt.Printf("Published %s: sha256 %s\n", rec.Bundle, rec.Hash)
	}
	if report.Error != "" {
		fmt.Printf("Error: %s\n", report.Error)
	}
}

// printHistory renders recent runs as a table.
func printHistory(w io.Writer, runs []history.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}

	colorize := shouldColorize(w)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Run", "Pipeline", "Trigger", "Status", "Started", "Duration"})
	for _, r := range runs {
		duration := ""
		if !r.CompletedAt.IsZero() {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		tw.AppendRow(table.Row{
			shortID(r.ID),
			r.Pipeline,
			r.Trigger,
			colorStatus(r.Status, colorize),
			r.StartedAt.Format("2006-01-02 15:04:05"),
			duration,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
	})
	tw.Render()
}

// printEvents renders one run's event timeline as a table.
func printEvents(w io.Writer, evs []history.Event) {
	colorize := shouldColorize(w)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Time", "Event", "Detail"})
	for _, ev := range evs {
		tw.AppendRow(table.Row{
			ev.Timestamp.Format("2006-01-02 15:04:05"),
			ev.Type,
			eventDetail(ev, colorize),
		})
	}
	tw.Render()
}

// eventDetail summarizes an event payload for display.
func eventDetail(ev history.Event, colorize bool) string {
	if len(ev.Payload) == 0 {
		return ""
	}
	var step pipeline.StepResult
	if err := json.Unmarshal(ev.Payload, &step); err == nil && step.Name != "" {
		detail := fmt.Sprintf("%s: %s", step.Name, colorStatus(step.Status, colorize))
		if step.Status == pipeline.StepFailed {
			detail += fmt.Sprintf(" (exit %d after %d attempt(s))", step.ExitCode, step.Attempts)
		}
		return detail
	}
	return string(ev.Payload)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
