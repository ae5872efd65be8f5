package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"finance-client/internal/api"
	"finance-client/internal/auth"
	"finance-client/internal/config"
	"finance-client/internal/logging"
	"finance-client/internal/resource"
	"finance-client/internal/storage"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const usage = `Usage: finance [-db <path>] [-api <url>] <command> [flags]

Commands:
  login -user <username> [-password <password>]
  logout
  status
  transactions [list]
  transactions add -text <text> -amount <amount> [-kind expense|income] [-category <category>]
  investments [list]
  investments add -symbol <symbol> -shares <shares> [-type <type>]
  investments refresh [-id <id>]
  investments risk -id <id>
  investments allocation
  summary
  charts
  progress`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the data layer a single command runs against.
type app struct {
	cfg          *config.Config
	db           *storage.DB
	session      *auth.Store
	gateway      *api.Client
	transactions *resource.Transactions
	investments  *resource.Investments
	charts       *resource.Charts
	gamification *resource.Gamification
	stdin        io.Reader
	stdout       io.Writer
	log          *logrus.Entry
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("finance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprintln(stderr, usage) }

	dbPath := fs.String("db", cfg.DBPath, "Path to the session database")
	apiURL := fs.String("api", cfg.APIBaseURL, "Finance backend base URL")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stdout, usage)
		return fmt.Errorf("missing command")
	}
	cfg.DBPath = *dbPath
	cfg.APIBaseURL = *apiURL
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.db.Close()

	command, rest := fs.Arg(0), fs.Args()[1:]
	a.log.WithField("command", command).Debug("Running command")

	switch command {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "status":
		return a.status()
	case "transactions":
		return a.transactionsCmd(ctx, rest)
	case "investments":
		return a.investmentsCmd(ctx, rest)
	case "summary":
		return a.summary(ctx)
	case "charts":
		return a.chartsCmd(ctx)
	case "progress":
		return a.progress(ctx)
	default:
		fmt.Fprintln(stdout, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func newApp(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	session := auth.NewStore(db, logger)
	if err := session.Init(ctx); err != nil {
		logging.For(logger, logging.ComponentCLI).WithError(err).Warn("Starting logged out")
	}

	gateway := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, session, logger)
	transactions := resource.NewTransactions(gateway, session, logger)

	return &app{
		cfg:          cfg,
		db:           db,
		session:      session,
		gateway:      gateway,
		transactions: transactions,
		investments:  resource.NewInvestments(gateway, session, transactions, logger),
		charts:       resource.NewCharts(gateway, logger),
		gamification: resource.NewGamification(gateway, logger),
		stdin:        stdin,
		stdout:       stdout,
		log:          logging.For(logger, logging.ComponentCLI),
	}, nil
}

// subcommand parses flags for one command, writing usage errors to stdout.
func (a *app) subcommand(name string, args []string, define func(fs *flag.FlagSet)) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	define(fs)
	return fs.Parse(args)
}

// failure turns a hook error into the message the hook recorded.
func failure(err error, msg string) error {
	var verr *resource.ValidationError
	if errors.As(err, &verr) || msg == "" {
		return err
	}
	return errors.New(msg)
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
