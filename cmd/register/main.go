package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"finance-client/internal/api"
	"finance-client/internal/config"
	"finance-client/internal/logging"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	apiURL := fs.String("api", cfg.APIBaseURL, "Finance backend base URL")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var missing []string
	if strings.TrimSpace(*username) == "" {
		missing = append(missing, "user")
	}
	if strings.TrimSpace(*email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		fmt.Fprintln(stdout, "Usage: register -user <username> -email <email> [-password <password>] [-api <url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	client := api.NewClient(*apiURL, cfg.RequestTimeout, nil, logger)

	msg, err := client.Register(context.Background(), strings.TrimSpace(*username), strings.TrimSpace(*email), password)
	if err != nil {
		if reason := api.ServerMessage(err); reason != "" {
			return fmt.Errorf("registration failed: %s", reason)
		}
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintln(stdout, msg)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
