// Package ui prints human-facing progress and results to stderr. Machine
// output (tables, JSON, manifests) is written by the report package; this
// package only narrates.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled status lines. It is safe for concurrent use.
type Printer struct {
	w  io.Writer
	mu sync.Mutex
	// inProgress is set while a \r progress line is on screen.
	inProgress bool
}

// New returns a Printer writing to stderr.
func New() *Printer {
	return &Printer{w: os.Stderr}
}

// NewWithWriter returns a Printer writing to w.
func NewWithWriter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inProgress {
		fmt.Fprintln(p.w)
		p.inProgress = false
	}
	fmt.Fprintf(p.w, format, args...)
}

// Banner prints the tool name and version.
func (p *Printer) Banner(version string) {
	title := lipgloss.JoinHorizontal(lipgloss.Bottom,
		"HUBSCAN  ", styleMuted.Render("protein interaction hub analysis "+version))
	p.printf("%s\n", styleBanner.Render(title))
}

// Stage announces the start of a pipeline phase.
func (p *Printer) Stage(name string) {
	p.printf("%s %s%s\n", styleHeading.Render(iconWorking), name, styleMuted.Render("..."))
}

// StageDone reports a finished phase with its duration and an optional detail.
func (p *Printer) StageDone(name string, d time.Duration, detail string) {
	line := fmt.Sprintf("%s %s %s", styleSuccess.Render(iconDone), name,
		styleMuted.Render(fmt.Sprintf("(%s)", FormatDuration(d))))
	if detail != "" {
		line += " " + detail
	}
	p.printf("%s\n", line)
}

// ProgressLine formats a progress line without styling. Exported for tests.
func ProgressLine(label string, done, total int) string {
	pct := 100.0
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}
	const width = 30
	filled := int(pct / 100 * width)
	return fmt.Sprintf("%s [%s%s] %5.1f%% (%d/%d)", label,
		strings.Repeat("=", filled), strings.Repeat(" ", width-filled), pct, done, total)
}

// Progress overwrites the current line with a progress bar. The line is
// closed with a newline once done reaches total.
func (p *Printer) Progress(label string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\r%s   ", styleHeading.Render(ProgressLine(label, done, total)))
	p.inProgress = done < total
	if !p.inProgress {
		fmt.Fprintln(p.w)
	}
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	p.printf("%s %s\n", styleDanger.Render("error:"), msg)
}

// Warn prints a warning.
func (p *Printer) Warn(msg string) {
	p.printf("%s %s\n", styleAccent.Render("warning:"), msg)
}

// Info prints a de-emphasized message.
func (p *Printer) Info(msg string) {
	p.printf("%s\n", styleMuted.Render(msg))
}

// Success prints a completion message.
func (p *Printer) Success(msg string) {
	p.printf("%s %s\n", styleSuccess.Render(iconDone), msg)
}

// Failure prints a failure message without the error prefix.
func (p *Printer) Failure(msg string) {
	p.printf("%s %s\n", styleDanger.Render(iconFailed), msg)
}

// Block prints a pre-rendered multi-line text, such as a report view.
func (p *Printer) Block(text string) {
	p.printf("%s\n", strings.TrimRight(text, "\n"))
}

// FormatDuration renders d with a precision suited to its magnitude.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
