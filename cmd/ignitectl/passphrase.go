package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// promptPassphrase reads a passphrase from the controlling terminal
// without echoing it. When confirm is true the operator is asked twice
// and the call fails if the two entries disagree, the same two-entry
// ritual the original ignition-key creation flow requires before a
// passphrase is ever used to wrap material.
func promptPassphrase(prompt string, confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; cannot prompt for a passphrase")
	}

	first, err := readOnce(fd, prompt)
	if err != nil {
		return "", err
	}
	if !confirm {
		return first, nil
	}

	second, err := readOnce(fd, "Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

func readOnce(fd int, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(data), nil
}
