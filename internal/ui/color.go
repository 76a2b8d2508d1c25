// Package ui provides colored console output for CI logs.
//
// When running inside a GitHub Actions job, warnings and errors are emitted
// as workflow annotations (::warning::, ::error::) so they surface in the
// run summary; elsewhere they print as plain colored lines.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	// Colors
	Red    = color.New(color.FgRed)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
)

// inActions reports whether the process runs inside a GitHub Actions job.
func inActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Success prints a green success message with checkmark.
func Success(format string, args ...any) {
	Green.Printf("✓ "+format+"\n", args...)
}

// Info prints a blue info message.
func Info(format string, args ...any) {
	Blue.Printf(format+"\n", args...)
}

// Header prints a bold header.
func Header(format string, args ...any) {
	Bold.Printf(format+"\n", args...)
}

// Step prints a numbered step in cyan.
func Step(n int, format string, args ...any) {
	Cyan.Printf("[%d] ", n)
	fmt.Printf(format+"\n", args...)
}

// Warning prints a yellow warning message, annotated under GitHub Actions.
func Warning(format string, args ...any) {
	if inActions() {
		fmt.Printf("::warning::"+format+"\n", args...)
		return
	}
	Yellow.Printf("⚠ "+format+"\n", args...)
}

// Error prints an error to stderr, annotated under GitHub Actions.
func Error(format string, args ...any) {
	if inActions() {
		fmt.Fprintf(os.Stderr, "::error::"+format+"\n", args...)
		return
	}
	Red.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Fatal prints an error to stderr and exits.
func Fatal(format string, args ...any) {
	Error(format, args...)
	os.Exit(1)
}
