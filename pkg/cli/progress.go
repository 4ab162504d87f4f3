package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ProgressBar renders a single-line countdown bar. On a terminal it redraws
// in place with a carriage return; on pipes it prints only the final line.
type ProgressBar struct {
	w     io.Writer
	bar   progress.Model
	label lipgloss.Style
	total time.Duration
	tty   bool
}

// NewProgressBar creates a bar for a wait of the given total duration.
func NewProgressBar(w io.Writer, total time.Duration) *ProgressBar {
	return &ProgressBar{
		w:     w,
		bar:   progress.New(progress.WithGradient("#00AA00", "#CCCC00"), progress.WithWidth(40), progress.WithoutPercentage()),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		total: total,
		tty:   IsTerminal(w),
	}
}

// Update redraws the bar for the elapsed time.
func (p *ProgressBar) Update(elapsed time.Duration) {
	if !p.tty {
		return
	}
	fmt.Fprintf(p.w, "\r%s %s", p.bar.ViewAs(p.fraction(elapsed)), p.label.Render(p.message(elapsed)))
}

// Finish draws the completed bar and ends the line.
func (p *ProgressBar) Finish() {
	if p.tty {
		fmt.Fprintf(p.w, "\r%s %s\n", p.bar.ViewAs(1), p.label.Render("Done"))
		return
	}
	fmt.Fprintf(p.w, "waited %s: Done\n", p.total)
}

func (p *ProgressBar) fraction(elapsed time.Duration) float64 {
	if p.total <= 0 {
		return 1
	}
	f := float64(elapsed) / float64(p.total)
	if f > 1 {
		return 1
	}
	return f
}

func (p *ProgressBar) message(elapsed time.Duration) string {
	remaining := p.total - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("Timeout %ds\t%ds total", int(remaining.Round(time.Second)/time.Second), int(p.total/time.Second))
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
