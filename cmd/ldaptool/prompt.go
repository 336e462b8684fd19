package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"tc2diag/internal/directory"
)

// promptUsername asks for the username on the terminal.
func promptUsername(in *os.File, out *os.File) string {
	fmt.Fprint(out, "Username: ")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

// promptPassword reads the password without echo when stdin is a terminal,
// falling back to a plain line read for piped input. Both the raw input and
// the whitespace-trimmed form are kept; the bind sequence retries with the
// raw value when trimming changed it.
func promptPassword(in *os.File, out *os.File) (password, raw string, err error) {
	fmt.Fprint(out, "Password: ")

	if term.IsTerminal(int(in.Fd())) {
		bytes, rerr := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if rerr != nil {
			return "", "", fmt.Errorf("reading password: %w", rerr)
		}
		raw = string(bytes)
	} else {
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return "", "", scanner.Err()
		}
		raw = scanner.Text()
	}

	return strings.TrimSpace(raw), raw, nil
}

// promptCredentials collects username and password for one CLI run.
func promptCredentials(cfg *Config) (directory.Credentials, error) {
	username := cfg.Username
	if username == "" {
		username = promptUsername(os.Stdin, os.Stdout)
	}
	password, raw, err := promptPassword(os.Stdin, os.Stdout)
	if err != nil {
		return directory.Credentials{}, err
	}
	return directory.Credentials{Username: username, Password: password, RawPassword: raw}, nil
}
