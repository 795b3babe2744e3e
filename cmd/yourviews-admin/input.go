// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptLine prints prompt and reads one trimmed line. A final line
// without a newline still counts.
func promptLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt+": "); err != nil {
		return "", err
	}
	line, err := in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// terminalPassword reads a password from stdin without echo. Piped input
// falls back to reading a plain line.
func terminalPassword(in *bufio.Reader, out io.Writer) func() (string, error) {
	return func() (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return promptLine(in, out, "Password")
		}

		fmt.Fprint(out, "Password: ")
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
}
