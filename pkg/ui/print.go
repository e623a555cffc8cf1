// Package ui holds the terminal output helpers for the CLI.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgWhite, color.Bold)
)

// SetNoColor disables ANSI colors in all helpers.
func SetNoColor(disabled bool) {
	color.NoColor = disabled
}

// PrintSuccess prints a green line to stdout.
func PrintSuccess(format string, args ...interface{}) {
	successColor.Printf(format+"\n", args...)
}

// PrintError prints a red line to stderr.
func PrintError(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, format+"\n", args...)
}

// PrintWarning prints a yellow line to stdout.
func PrintWarning(format string, args ...interface{}) {
	warnColor.Printf(format+"\n", args...)
}

// PrintInfo prints a cyan line to stdout.
func PrintInfo(format string, args ...interface{}) {
	infoColor.Printf(format+"\n", args...)
}

// PrintHeader prints a bold section heading.
func PrintHeader(format string, args ...interface{}) {
	headerColor.Printf(format+"\n", args...)
}

// PrintKeyValue prints an aligned "key: value" row.
func PrintKeyValue(key string, value interface{}) {
	fmt.Printf("  %-18s %v\n", key+":", value)
}
