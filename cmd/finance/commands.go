package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"finance-client/internal/api"
	"finance-client/internal/models"
	"finance-client/internal/summary"
)

func (a *app) login(ctx context.Context, args []string) error {
	var username, password string
	if err := a.subcommand("login", args, func(fs *flag.FlagSet) {
		fs.StringVar(&username, "user", "", "Username")
		fs.StringVar(&password, "password", "", "Password (optional, will prompt if omitted)")
	}); err != nil {
		return err
	}
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("missing required flags: user")
	}

	if password == "" {
		fmt.Fprint(a.stdout, "Password: ")
		var err error
		password, err = readPassword(a.stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(a.stdout)
	}

	res, err := a.gateway.Login(ctx, username, password)
	if err != nil {
		if msg := api.ServerMessage(err); msg != "" {
			return errors.New(msg)
		}
		return errors.New("Login failed. Check credentials.")
	}
	if err := a.session.Login(ctx, res.Token, res.Username); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Logged in as %s\n", res.Username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Logged out")
	return nil
}

func (a *app) status() error {
	s := a.session.Session()
	if !s.IsAuthenticated() {
		fmt.Fprintln(a.stdout, "Not logged in")
		return nil
	}

	fmt.Fprintf(a.stdout, "Logged in as %s\n", s.Username)
	switch exp := s.ExpiresAt(); {
	case exp.IsZero():
	case exp.Before(time.Now()):
		fmt.Fprintf(a.stdout, "Token expired at %s\n", exp.Format(time.RFC3339))
	default:
		fmt.Fprintf(a.stdout, "Token expires at %s\n", exp.Format(time.RFC3339))
	}
	fmt.Fprintf(a.stdout, "Backend: %s\n", a.gateway.BaseURL())
	return nil
}

func (a *app) transactionsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		return a.listTransactions(ctx)
	}
	if args[0] != "add" {
		return fmt.Errorf("unknown transactions command %q", args[0])
	}

	in := models.TransactionInput{}
	var kind string
	if err := a.subcommand("transactions add", args[1:], func(fs *flag.FlagSet) {
		fs.StringVar(&in.Text, "text", "", "Description")
		fs.Float64Var(&in.Amount, "amount", 0, "Amount as a positive number")
		fs.StringVar(&kind, "kind", string(models.KindExpense), "expense or income")
		fs.StringVar(&in.Category, "category", models.Categories[0], "One of "+strings.Join(models.Categories, ", "))
	}); err != nil {
		return err
	}
	in.Kind = models.Kind(kind)

	created, err := a.transactions.Add(ctx, in)
	if err != nil {
		return failure(err, a.transactions.State().Err)
	}
	fmt.Fprintf(a.stdout, "Logged %s %s (%s)\n", created.Text, summary.FormatSigned(a.cfg.CurrencySymbol, created.Amount), created.Category)
	return nil
}

func (a *app) listTransactions(ctx context.Context) error {
	if err := a.transactions.FetchAll(ctx); err != nil {
		return failure(err, a.transactions.State().Err)
	}
	items := a.transactions.State().Items
	sym := a.cfg.CurrencySymbol

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tTEXT\tAMOUNT")
	for _, t := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Date, t.Category, t.Text, summary.FormatSigned(sym, t.Amount))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	totals := summary.Transactions(items)
	fmt.Fprintf(a.stdout, "\nBalance: %s  Income: %s  Expense: %s\n",
		formatBalance(sym, totals.Balance), summary.FormatMoney(sym, totals.Income), summary.FormatMoney(sym, totals.Expense))
	return nil
}

func (a *app) investmentsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		return a.listInvestments(ctx)
	}

	switch args[0] {
	case "refresh":
		return a.refreshInvestments(ctx, args[1:])
	case "risk":
		return a.investmentRisk(ctx, args[1:])
	case "allocation":
		return a.allocation(ctx)
	case "add":
	default:
		return fmt.Errorf("unknown investments command %q", args[0])
	}

	in := models.InvestmentInput{}
	if err := a.subcommand("investments add", args[1:], func(fs *flag.FlagSet) {
		fs.StringVar(&in.Symbol, "symbol", "", "Ticker symbol")
		fs.Float64Var(&in.Shares, "shares", 0, "Number of shares")
		fs.StringVar(&in.Type, "type", models.InvestmentTypes[0], "One of "+strings.Join(models.InvestmentTypes, ", "))
	}); err != nil {
		return err
	}

	created, err := a.investments.Add(ctx, in)
	if err != nil {
		return failure(err, a.investments.State().Err)
	}
	fmt.Fprintf(a.stdout, "Bought %g %s worth %s\n", created.Shares, created.Symbol,
		summary.FormatMoney(a.cfg.CurrencySymbol, summary.DisplayValue(created)))
	return nil
}

func (a *app) listInvestments(ctx context.Context) error {
	if err := a.investments.FetchAll(ctx); err != nil {
		return failure(err, a.investments.State().Err)
	}
	// Available funds come from the ledger; a failure there is not fatal.
	if err := a.transactions.FetchAll(ctx); err != nil {
		a.log.WithError(err).Debug("Available funds unavailable")
	}
	return a.printPortfolio()
}

// refreshInvestments re-quotes every holding, or only the one named by -id.
func (a *app) refreshInvestments(ctx context.Context, args []string) error {
	var id int64
	if err := a.subcommand("investments refresh", args, func(fs *flag.FlagSet) {
		fs.Int64Var(&id, "id", 0, "Refresh only this holding")
	}); err != nil {
		return err
	}

	if id == 0 {
		if err := a.investments.RefreshAll(ctx); err != nil {
			return failure(err, a.investments.State().Err)
		}
		fmt.Fprintf(a.stdout, "Refreshed %d holdings\n", len(a.investments.State().Items))
		return a.printPortfolio()
	}

	if err := a.investments.FetchAll(ctx); err != nil {
		return failure(err, a.investments.State().Err)
	}
	if err := a.investments.Refresh(ctx, id); err != nil {
		return failure(err, a.investments.State().Err)
	}
	for _, inv := range a.investments.State().Items {
		if inv.ID == id {
			fmt.Fprintf(a.stdout, "Refreshed %s: %s (P/L %s)\n", inv.Symbol,
				summary.FormatMoney(a.cfg.CurrencySymbol, summary.DisplayValue(inv)),
				summary.FormatSigned(a.cfg.CurrencySymbol, summary.ProfitLoss(inv)))
		}
	}
	return nil
}

func (a *app) investmentRisk(ctx context.Context, args []string) error {
	var id int64
	if err := a.subcommand("investments risk", args, func(fs *flag.FlagSet) {
		fs.Int64Var(&id, "id", 0, "Holding to assess")
	}); err != nil {
		return err
	}
	if id <= 0 {
		return fmt.Errorf("missing required flags: id")
	}
	if err := a.investments.FetchAll(ctx); err != nil {
		return failure(err, a.investments.State().Err)
	}

	level, err := a.investments.Risk(ctx, id)
	if err != nil {
		if msg := api.ServerMessage(err); msg != "" {
			return errors.New(msg)
		}
		return failure(err, "Could not assess risk for this investment.")
	}
	fmt.Fprintf(a.stdout, "Risk level: %s\n", level)
	return nil
}

func (a *app) allocation(ctx context.Context) error {
	values, err := a.investments.Allocation(ctx)
	if err != nil {
		return failure(err, "Failed to load allocation")
	}
	symbols := make([]string, 0, len(values))
	var total float64
	for symbol, v := range values {
		symbols = append(symbols, symbol)
		total += v
	}
	sort.Strings(symbols)

	sym := a.cfg.CurrencySymbol
	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tVALUE\tSHARE")
	for _, symbol := range symbols {
		share := 0.0
		if total > 0 {
			share = values[symbol] / total * 100
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f%%\n", symbol, summary.FormatMoney(sym, values[symbol]), share)
	}
	return w.Flush()
}

func (a *app) printPortfolio() error {
	items := a.investments.State().Items
	sym := a.cfg.CurrencySymbol

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tTYPE\tSHARES\tPRICE\tVALUE\tP/L\tRISK")
	for _, inv := range items {
		price := "N/A"
		if p, ok := summary.DisplayPrice(inv); ok {
			price = summary.FormatMoney(sym, p)
		}
		risk := inv.RiskLevel
		if risk == "" {
			risk = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%g\t%s\t%s\t%s\t%s\n", inv.ID, inv.Symbol, inv.Type, inv.Shares, price,
			summary.FormatMoney(sym, summary.DisplayValue(inv)), summary.FormatSigned(sym, summary.ProfitLoss(inv)), risk)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	totals := summary.Portfolio(items)
	fmt.Fprintf(a.stdout, "\nHoldings: %d  Value: %s  P/L: %s\n", totals.Count,
		summary.FormatMoney(sym, totals.Value), summary.FormatSigned(sym, totals.ProfitLoss))
	fmt.Fprintf(a.stdout, "Available funds: %s\n", formatBalance(sym, a.investments.AvailableFunds()))
	return nil
}

func (a *app) summary(ctx context.Context) error {
	if err := a.transactions.FetchAll(ctx); err != nil {
		return failure(err, a.transactions.State().Err)
	}
	if err := a.investments.FetchAll(ctx); err != nil {
		return failure(err, a.investments.State().Err)
	}
	sym := a.cfg.CurrencySymbol

	ledger := summary.Transactions(a.transactions.State().Items)
	portfolio := summary.Portfolio(a.investments.State().Items)
	fmt.Fprintf(a.stdout, "Balance:   %s\n", formatBalance(sym, ledger.Balance))
	fmt.Fprintf(a.stdout, "Income:    %s\n", summary.FormatMoney(sym, ledger.Income))
	fmt.Fprintf(a.stdout, "Expense:   %s\n", summary.FormatMoney(sym, ledger.Expense))
	fmt.Fprintf(a.stdout, "Portfolio: %s (%d holdings, P/L %s)\n",
		summary.FormatMoney(sym, portfolio.Value), portfolio.Count, summary.FormatSigned(sym, portfolio.ProfitLoss))

	// The backend's own totals are informational.
	if totals, err := a.investments.Summary(ctx); err == nil {
		if v, ok := totals["totalValue"]; ok {
			fmt.Fprintf(a.stdout, "Backend portfolio value: %s\n", summary.FormatMoney(sym, v))
		}
	} else {
		a.log.WithError(err).Debug("Portfolio summary unavailable")
	}
	return nil
}

func (a *app) chartsCmd(ctx context.Context) error {
	if err := a.charts.Load(ctx); err != nil {
		return failure(err, a.charts.State().Err)
	}
	data := a.charts.State().Data
	sym := a.cfg.CurrencySymbol

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSE\tNET\tSAVINGS RATE")
	rates := make(map[string]float64, len(data.Savings))
	for _, s := range data.Savings {
		rates[s.Month] = s.SavingsRate
	}
	for _, m := range data.Monthly {
		rate := "-"
		if r, ok := rates[m.Month]; ok {
			rate = fmt.Sprintf("%.2f%%", r)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.Month,
			summary.FormatMoney(sym, m.Income), summary.FormatMoney(sym, m.Expense), summary.FormatSigned(sym, m.Savings), rate)
	}
	fmt.Fprintln(w, "\t\t\t\t")
	fmt.Fprintln(w, "CATEGORY\tSPENT\tSHARE\t\t")
	for _, c := range data.Categories {
		fmt.Fprintf(w, "%s\t%s\t%.2f%%\t\t\n", c.Category, summary.FormatMoney(sym, c.Amount), c.Percentage)
	}
	return w.Flush()
}

func (a *app) progress(ctx context.Context) error {
	if err := a.gamification.Load(ctx); err != nil {
		return failure(err, a.gamification.State().Err)
	}
	data := a.gamification.State().Data

	fmt.Fprintf(a.stdout, "Level %d  Points: %d  (%d to next level)\n",
		data.Progress.Level, data.Points, data.Progress.PointsToNextLevel)
	fmt.Fprintf(a.stdout, "Achievements: %d/%d\n", data.Unlocked(), len(data.Achievements))

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	for _, ach := range data.Achievements {
		mark := "[ ]"
		if ach.Unlocked {
			mark = "[x]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, ach.Name, ach.Description, ach.DateUnlocked)
	}
	return w.Flush()
}

// formatBalance shows a minus sign for a negative balance and no sign otherwise.
func formatBalance(symbol string, v float64) string {
	if v < 0 {
		return summary.FormatSigned(symbol, v)
	}
	return summary.FormatMoney(symbol, v)
}
