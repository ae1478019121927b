// Package display renders schedules and countdowns for the terminal.
//
// Colors use raw ANSI escape codes. They are disabled when NO_COLOR is set
// (https://no-color.org/) or when stdout is not a terminal.
package display

import (
	"os"
)

// ANSI escape codes for styling.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

var enabled = shouldEnable()

func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return isTerminal(os.Stdout)
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// SetEnabled overrides the auto-detected color state, e.g. for --json.
func SetEnabled(b bool) {
	enabled = b
}

func Enabled() bool {
	return enabled
}

func paint(text string, codes ...string) string {
	if !enabled || len(codes) == 0 {
		return text
	}
	var prefix string
	for _, c := range codes {
		prefix += c
	}
	return prefix + text + reset
}

// Heading styles table headers and titles.
func Heading(text string) string { return paint(text, bold) }

// Muted styles prayers that have passed and secondary text.
func Muted(text string) string { return paint(text, dim) }

// Highlight styles the upcoming prayer.
func Highlight(text string) string { return paint(text, bold, cyan) }

// Fasting styles the fasting window markers and progress.
func Fasting(text string) string { return paint(text, yellow) }

// Success styles the iftar message once the fast is complete.
func Success(text string) string { return paint(text, bold, green) }
