package creds

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptSecret reads a value from the terminal without echoing it.
// When stdin is not a terminal it falls back to a plain line read so
// piped input still works.
func PromptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return PromptLine("")
}

// PromptLine reads one echoed line from stdin.
func PromptLine(label string) (string, error) {
	if label != "" {
		fmt.Fprintf(os.Stderr, "%s: ", label)
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
