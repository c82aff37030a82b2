// Command adduser registers a credential in the configured backend.
//
// Usage:
//
//	adduser <username>
//
// The password is read from the terminal without echo, or from the first
// line of stdin when stdin is not a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/hongminglow/valentine-be/internal/auth"
	"github.com/hongminglow/valentine-be/internal/config"
	"github.com/hongminglow/valentine-be/internal/logging"
	"github.com/hongminglow/valentine-be/internal/storage/backend"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "adduser:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin *os.File, stderr io.Writer) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return errors.New("usage: adduser <username>")
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.AuthMode() != auth.ModeEnforced {
		return errors.New("DATABASE_URL is not set; nothing to register users into")
	}
	logger := logging.New(stderr, cfg.LogLevel)

	password, err := readPassword(stdin, stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer store.Close()

	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	authn, err := auth.NewAuthenticator(auth.ModeEnforced, store, hasher, logger)
	if err != nil {
		return err
	}
	user, err := authn.Create(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "registered %s (id=%d)\n", user.Username, user.ID)
	return nil
}

func readPassword(stdin *os.File, prompt io.Writer) (string, error) {
	fd := int(stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
