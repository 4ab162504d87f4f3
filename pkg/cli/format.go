// Package cli provides shared terminal formatting helpers for vtg.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

func wrap(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + "\033[0m"
}

// Green wraps s in ANSI green. Returns s unchanged when NO_COLOR is set.
func Green(s string) string { return wrap("\033[32m", s) }

// Yellow wraps s in ANSI yellow. Returns s unchanged when NO_COLOR is set.
func Yellow(s string) string { return wrap("\033[33m", s) }

// Red wraps s in ANSI red. Returns s unchanged when NO_COLOR is set.
func Red(s string) string { return wrap("\033[31m", s) }

// Blue wraps s in ANSI blue. Returns s unchanged when NO_COLOR is set.
func Blue(s string) string { return wrap("\033[34m", s) }

// Bold wraps s in ANSI bold. Returns s unchanged when NO_COLOR is set.
func Bold(s string) string { return wrap("\033[1m", s) }

// Dim wraps s in ANSI dim. Returns s unchanged when NO_COLOR is set.
func Dim(s string) string { return wrap("\033[2m", s) }

// Warnln prints an operator-facing warning line.
func Warnln(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", Yellow("[WARN]"), fmt.Sprintf(format, args...))
}

// Helpln prints a remediation hint that follows a warning.
func Helpln(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", Blue("[HELPER]"), fmt.Sprintf(format, args...))
}

// ThickSeparator returns a full-width separator used between tests.
func ThickSeparator() string {
	return strings.Repeat("=", 80)
}

// DotPad pads name with dots to the given width.
// Example: DotPad("1.1", 10) → "1.1 ......"
func DotPad(name string, width int) string {
	w := runewidth.StringWidth(name)
	if width <= 0 || w >= width-1 {
		return name
	}
	dots := width - w - 1
	return name + " " + strings.Repeat(".", dots)
}
