package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/mmeshcher/bank-client/internal/api"
	"github.com/mmeshcher/bank-client/internal/app"
	"github.com/mmeshcher/bank-client/internal/model"
	"github.com/mmeshcher/bank-client/internal/money"
	"github.com/mmeshcher/bank-client/internal/session"
)

type cli struct {
	gateway  api.Gateway
	sessions *session.Manager
	mode     app.Mode
	stdin    io.Reader
	out      io.Writer
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, c *cli, args []string) error
}

// usageError означает неверные аргументы команды, а не отказ API.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

var commands = []command{
	{name: "register", usage: "register -c <client code> -n <name> -p <password> [--password-confirm p] [--city c] [--status s] [--age n]", run: runRegister},
	{name: "login", usage: "login -c <client code> -p <password>", run: runLogin},
	{name: "me", usage: "me", run: runMe},
	{name: "logout", usage: "logout", run: runLogout},
	{name: "profile", usage: "profile", run: runProfile},
	{name: "balance", usage: "balance", run: runBalance},
	{name: "transactions", usage: "transactions [--param key=value ...]", run: runTransactions},
	{name: "create-transaction", usage: "create-transaction --amount n --category c --description d [--type credit|debit] [--date d] [--json]", run: runCreateTransaction},
	{name: "transfers", usage: "transfers [--param key=value ...]", run: runTransfers},
	{name: "create-transfer", usage: "create-transfer --amount n --recipient r --account a [--type t] [--description d] [--json]", run: runCreateTransfer},
	{name: "push", usage: "push latest|generate", run: runPush},
	{name: "recommendation", usage: "recommendation [client code]", run: runRecommendation},
	{name: "download-pushes", usage: "download-pushes [-o file]", run: runDownloadPushes},
}

func lookup(name string) (command, bool) {
	i := slices.IndexFunc(commands, func(c command) bool { return c.name == name })
	if i < 0 {
		return command{}, false
	}
	return commands[i], true
}

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return &usageError{err: err}
	}
	return nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, usagef("--amount is required")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, usagef("invalid amount %q", raw)
	}
	return amount, nil
}

// parseParams переводит пары key=value в параметры запроса без изменений.
func parseParams(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, usagef("param %q must look like key=value", pair)
		}
		params.Add(key, value)
	}
	return params, nil
}

func runRegister(ctx context.Context, c *cli, args []string) error {
	var (
		in  model.RegisterInput
		age int
	)
	fs := newFlags("register")
	fs.StringVarP(&in.ClientCode, "client-code", "c", "", "client code")
	fs.StringVarP(&in.Name, "name", "n", "", "full name")
	fs.StringVarP(&in.Password, "password", "p", "", "password")
	fs.StringVar(&in.PasswordConfirm, "password-confirm", "", "password confirmation (defaults to --password)")
	fs.StringVar(&in.City, "city", "", "city")
	fs.StringVar(&in.Status, "status", "", "client status")
	fs.IntVar(&age, "age", 0, "age")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if in.PasswordConfirm == "" {
		in.PasswordConfirm = in.Password
	}
	if age > 0 {
		in.Age = &age
	}

	sess, err := c.gateway.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "registered and signed in as %s (%s)\n", sess.User.Name, sess.User.ClientCode)
	return nil
}

func runLogin(ctx context.Context, c *cli, args []string) error {
	var code, password string
	fs := newFlags("login")
	fs.StringVarP(&code, "client-code", "c", "", "client code")
	fs.StringVarP(&password, "password", "p", "", "password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if code == "" && password == "" && fs.NArg() == 2 {
		code, password = fs.Arg(0), fs.Arg(1)
	}

	sess, err := c.gateway.Login(ctx, code, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed in as %s (%s)\n", sess.User.Name, sess.User.ClientCode)
	if c.mode == app.ModeMock {
		fmt.Fprintln(c.out, "in-memory backend: the session lasts until this process exits")
	}
	return nil
}

func runMe(ctx context.Context, c *cli, args []string) error {
	user, err := c.gateway.CurrentUser(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Client code:\t%s\n", user.ClientCode)
	fmt.Fprintf(tw, "Name:\t%s\n", user.Name)
	if user.Status != "" {
		fmt.Fprintf(tw, "Status:\t%s\n", user.Status)
	}
	if user.City != "" {
		fmt.Fprintf(tw, "City:\t%s\n", user.City)
	}
	if user.Age != nil {
		fmt.Fprintf(tw, "Age:\t%d\n", *user.Age)
	}
	return tw.Flush()
}

func runLogout(ctx context.Context, c *cli, args []string) error {
	c.gateway.Logout(ctx)
	fmt.Fprintln(c.out, "signed out")
	return nil
}

func runProfile(ctx context.Context, c *cli, args []string) error {
	p, err := c.gateway.Profile(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "Age:\t%d\n", p.Age)
	fmt.Fprintf(tw, "Status:\t%s\n", p.Status)
	fmt.Fprintf(tw, "City:\t%s\n", p.City)
	fmt.Fprintf(tw, "Average balance:\t%s\n", money.Format(p.AverageBalance, money.DefaultCurrency))

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s:\t%s\n", k, extraValue(p.Extra[k]))
	}
	return tw.Flush()
}

func extraValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func runBalance(ctx context.Context, c *cli, args []string) error {
	b, err := c.gateway.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, money.Format(b.CurrentBalance, b.Currency))
	if b.LastUpdated != "" {
		fmt.Fprintf(c.out, "updated %s\n", b.LastUpdated)
	}
	return nil
}

func runTransactions(ctx context.Context, c *cli, args []string) error {
	var pairs []string
	fs := newFlags("transactions")
	fs.StringArrayVarP(&pairs, "param", "p", nil, "query parameter key=value, passed as is")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	params, err := parseParams(pairs)
	if err != nil {
		return err
	}

	txs, err := c.gateway.Transactions(ctx, params)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Fprintln(c.out, "no transactions")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tCATEGORY\tSTATUS\tAMOUNT\t")
	for _, tx := range txs {
		amount := money.Format(tx.Amount, money.DefaultCurrency)
		if tx.Flow() == model.FlowIn {
			amount = "+" + amount
		}
		if tx.TypeConflict() {
			amount += " (type: " + string(tx.Type) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", tx.Date, tx.Description, tx.Category, tx.Status, amount)
	}
	return tw.Flush()
}

func runCreateTransaction(ctx context.Context, c *cli, args []string) error {
	var (
		in     model.TransactionInput
		amount string
		typ    string
		asJSON bool
	)
	fs := newFlags("create-transaction")
	fs.StringVar(&amount, "amount", "", "amount")
	fs.StringVar(&typ, "type", "", "credit or debit")
	fs.StringVar(&in.Category, "category", "", "category")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.StringVar(&in.Date, "date", "", "date")
	fs.StringVar(&in.ClientCode, "client-code", "", "client code")
	fs.BoolVar(&asJSON, "json", false, "send application/json instead of multipart/form-data")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	value, err := parseAmount(amount)
	if err != nil {
		return err
	}
	in.Amount = value
	in.Type = model.TransactionType(strings.ToLower(typ))

	create := c.gateway.CreateTransaction
	if asJSON {
		create = c.gateway.CreateTransactionJSON
	}
	created, err := create(ctx, in)
	if err != nil {
		return err
	}

	if tx := created.Record; tx != nil {
		fmt.Fprintf(c.out, "transaction %s: %s %s\n", tx.ID, tx.Category, money.Format(tx.Amount, money.DefaultCurrency))
	}
	if created.Message != "" {
		fmt.Fprintln(c.out, created.Message)
	}
	return nil
}

func runTransfers(ctx context.Context, c *cli, args []string) error {
	var pairs []string
	fs := newFlags("transfers")
	fs.StringArrayVarP(&pairs, "param", "p", nil, "query parameter key=value, passed as is")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	params, err := parseParams(pairs)
	if err != nil {
		return err
	}

	transfers, err := c.gateway.Transfers(ctx, params)
	if err != nil {
		return err
	}
	if len(transfers) == 0 {
		fmt.Fprintln(c.out, "no transfers")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDIRECTION\tRECIPIENT\tACCOUNT\tSTATUS\tAMOUNT\t")
	for _, tr := range transfers {
		amount := money.Format(tr.Amount, money.DefaultCurrency)
		if tr.Direction() == model.DirectionIncoming {
			amount = "+" + amount
		} else {
			amount = "-" + amount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n", tr.Date, tr.Direction(), tr.Recipient, tr.RecipientAccount, tr.Status, amount)
	}
	return tw.Flush()
}

func runCreateTransfer(ctx context.Context, c *cli, args []string) error {
	var (
		in     model.TransferInput
		amount string
		typ    string
		asJSON bool
	)
	fs := newFlags("create-transfer")
	fs.StringVar(&typ, "type", string(model.TransferOutgoing), "transfer type")
	fs.StringVar(&amount, "amount", "", "amount")
	fs.StringVar(&in.Recipient, "recipient", "", "recipient name")
	fs.StringVar(&in.RecipientAccount, "account", "", "recipient account or card number")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.BoolVar(&asJSON, "json", false, "send application/json instead of multipart/form-data")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	value, err := parseAmount(amount)
	if err != nil {
		return err
	}
	in.Amount = value
	in.Type = model.TransferType(strings.ToLower(typ))

	create := c.gateway.CreateTransfer
	if asJSON {
		create = c.gateway.CreateTransferJSON
	}
	created, err := create(ctx, in)
	if err != nil {
		return err
	}

	if tr := created.Record; tr != nil {
		fmt.Fprintf(c.out, "transfer %s to %s: %s (%s)\n", tr.ID, tr.Recipient, money.Format(tr.Amount, money.DefaultCurrency), tr.Status)
	}
	if created.Message != "" {
		fmt.Fprintln(c.out, created.Message)
	}
	return nil
}

func runPush(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		return usagef("expected latest or generate")
	}

	var (
		push *model.PushNotification
		err  error
	)
	switch args[0] {
	case "latest":
		push, err = c.gateway.LatestPush(ctx)
	case "generate":
		push, err = c.gateway.GeneratePush(ctx)
	default:
		return usagef("unknown push action %q", args[0])
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "[%s] %s\n", push.CreatedAt, push.Message)
	return nil
}

func runRecommendation(ctx context.Context, c *cli, args []string) error {
	var code string
	switch len(args) {
	case 0:
		sess, ok := c.sessions.Session(ctx)
		if !ok {
			return usagef("client code is required when not signed in")
		}
		code = sess.User.ClientCode
	case 1:
		code = args[0]
	default:
		return usagef("too many arguments")
	}

	rec, err := c.gateway.Recommendation(ctx, code)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s (%s)\n%s\n", rec.ProductName, rec.Category, rec.PushText)
	return nil
}

func runDownloadPushes(ctx context.Context, c *cli, args []string) error {
	var output string
	fs := newFlags("download-pushes")
	fs.StringVarP(&output, "output", "o", "", "output file (defaults to the server-provided name)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	dl, err := c.gateway.DownloadPushes(ctx)
	if err != nil {
		return err
	}
	if output == "" {
		output = dl.Filename
	}

	if output == "-" {
		_, err := c.out.Write(dl.Data)
		return err
	}
	if err := os.WriteFile(output, dl.Data, 0o644); err != nil {
		return fmt.Errorf("save pushes: %w", err)
	}
	fmt.Fprintf(c.out, "saved %d bytes to %s\n", len(dl.Data), output)
	return nil
}
