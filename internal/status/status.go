// Package status provides formatted stage/severity progress lines for
// long-running ingestion runs.
package status

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Severity of a status line.
type Severity int

const (
	Info Severity = iota
	Start
	Success
	Warning
	Error
)

var severitySymbols = map[Severity]string{
	Info:    "➡️",
	Start:   "🔄",
	Success: "✅",
	Warning: "⚠️",
	Error:   "❌",
}

// boxWidth is the width of the run-summary box.
const boxWidth = 60

// Reporter writes timestamped status lines identifying stage, message, and
// severity. Every pipeline stage reports through one of these; a nil-safe
// zero value is not provided — construct with NewReporter.
type Reporter struct {
	out io.Writer
	now func() time.Time
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out, now: time.Now}
}

//nolint:errcheck // writing progress to stdout; errors are not recoverable
func (r *Reporter) emit(sev Severity, stage, format string, args ...any) {
	ts := r.now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(r.out, "%s %s %s: %s\n", ts, severitySymbols[sev], stage, msg)
}

// Startf reports the beginning of a stage.
func (r *Reporter) Startf(stage, format string, args ...any) {
	r.emit(Start, stage, format, args...)
}

// Successf reports a completed stage.
func (r *Reporter) Successf(stage, format string, args ...any) {
	r.emit(Success, stage, format, args...)
}

// Warnf reports a recoverable problem.
func (r *Reporter) Warnf(stage, format string, args ...any) {
	r.emit(Warning, stage, format, args...)
}

// Errorf reports a terminal problem for the current item.
func (r *Reporter) Errorf(stage, format string, args ...any) {
	r.emit(Error, stage, format, args...)
}

// Infof reports neutral progress.
func (r *Reporter) Infof(stage, format string, args ...any) {
	r.emit(Info, stage, format, args...)
}

// Summary prints the run-ending aggregate counts.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (r *Reporter) Summary(works, chapters, failures int) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(r.out, "┌%s┐\n", border)
	fmt.Fprintf(r.out, "│ %-*s │\n", boxWidth-4, "RUN SUMMARY")
	fmt.Fprintf(r.out, "├%s┤\n", border)
	fmt.Fprintf(r.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("Works processed:   %d", works))
	fmt.Fprintf(r.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("Chapters added:    %d", chapters))
	fmt.Fprintf(r.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("Failures recorded: %d", failures))
	fmt.Fprintf(r.out, "└%s┘\n", border)
}
