// Package output renders command results to the console with a consistent
// color profile and TTY handling.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/ui/style"
)

// ColorProfile returns the color profile for w.
// NO_COLOR and writers that are not terminals get Ascii.
func ColorProfile(w io.Writer) termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	f, ok := w.(*os.File)
	if !ok {
		return termenv.Ascii
	}
	return termenv.NewOutput(f).EnvColorProfile()
}

// Printer writes labelled result lines.
type Printer struct {
	w       io.Writer
	valid   lipgloss.Style
	invalid lipgloss.Style
	done    lipgloss.Style
	muted   lipgloss.Style
	warn    lipgloss.Style
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w, termenv.WithProfile(ColorProfile(w)))
	return &Printer{
		w:       w,
		valid:   r.NewStyle().Foreground(style.Green).Bold(true),
		invalid: r.NewStyle().Foreground(style.Red).Bold(true),
		done:    r.NewStyle().Foreground(style.Accent).Bold(true),
		muted:   r.NewStyle().Foreground(style.Muted),
		warn:    r.NewStyle().Foreground(style.Yellow).Bold(true),
	}
}

// Valid prints a resolved repository.
func (p *Printer) Valid(repo string) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", p.valid.Render("Valid:"), repo)
}

// Invalid prints a repository that could not be resolved.
func (p *Printer) Invalid(repo string) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", p.invalid.Render("Invalid:"), repo)
}

// Event prints one resolution event.
func (p *Printer) Event(ev domain.Event) {
	if ev.Kind == domain.EventValid {
		p.Valid(ev.Record.RepoName)
		return
	}
	p.Invalid(ev.Record.RepoName)
}

// Downloaded prints the files materialized for repo.
func (p *Printer) Downloaded(repo string, files []domain.MaterializedFile) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", p.done.Render("Downloaded:"), repo)
	for _, f := range files {
		icon := style.Check
		if f.Status == domain.FileUnchanged {
			icon = style.Tilde
		}
		_, _ = fmt.Fprintf(p.w, "  %s %s\n", icon, f.Path)
	}
}

// Cycle prints a dependency path that loops back on itself.
func (p *Printer) Cycle(path []string) {
	line := ""
	for i, repo := range path {
		if i > 0 {
			line += " " + style.Arrow + " "
		}
		line += repo
	}
	_, _ = fmt.Fprintf(p.w, "%s %s\n", p.warn.Render("Cycle:"), p.muted.Render(line))
}

// Message prints a muted informational line.
func (p *Printer) Message(msg string) {
	_, _ = fmt.Fprintln(p.w, p.muted.Render(msg))
}
