// Package ui provides terminal output helpers for karton. Colors are
// disabled when NO_COLOR is set or the output is not a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgCyan)
)

// Success prints a green message to stderr.
func Success(format string, args ...interface{}) {
	successColor.Fprintf(os.Stderr, format, args...)
}

// Warning prints a yellow message to stderr.
func Warning(format string, args ...interface{}) {
	warningColor.Fprintf(os.Stderr, format, args...)
}

// Error prints err to w. Multi-line messages, such as definition errors
// carrying a source excerpt, keep only their first line highlighted.
func Error(w io.Writer, err error) {
	first, rest, found := strings.Cut(err.Error(), "\n")
	errorColor.Fprintf(w, "Error: %s", first)
	if found {
		rest = "\n" + rest
	}
	fmt.Fprintf(w, "%s\n", rest)
}

// Header prints a section title to w.
func Header(w io.Writer, title string) {
	headerColor.Fprintf(w, "== %s ==\n", title)
}
