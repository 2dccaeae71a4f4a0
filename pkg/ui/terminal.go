package ui

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

var quietMode atomic.Bool

// SetQuietMode suppresses all output except errors
func SetQuietMode(quiet bool) {
	quietMode.Store(quiet)
}

// IsQuietMode reports whether quiet mode is enabled
func IsQuietMode() bool {
	return quietMode.Load()
}

// PrintError prints an error message in red to stderr.
// Errors are printed even in quiet mode.
func PrintError(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, Red(fmt.Sprintf(format, args...)))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Println(Green(msg))
}

// PrintInfo prints a labeled info message in cyan
func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(format string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	fmt.Println(Yellow(fmt.Sprintf(format, args...)))
}

// PrintVerbose prints a dim per-item notice, shown only when verbose
// progress is enabled. Purely observational, never affects control flow.
func PrintVerbose(enabled bool, format string, args ...interface{}) {
	if !enabled || IsQuietMode() {
		return
	}
	fmt.Println(Dim(fmt.Sprintf(format, args...)))
}
