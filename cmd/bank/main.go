// Package main — консольный клиент банковского API.
//
// Использование:
//
//	bank [flags] <command> [command flags]
//
// Без API_BASE_URL клиент работает с бэкендом в памяти. Его токены живут до конца
// процесса, поэтому несколько команд подряд удобнее выполнять через bank shell.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/apierror"
	"github.com/mmeshcher/bank-client/internal/app"
	"github.com/mmeshcher/bank-client/internal/config"
	"github.com/mmeshcher/bank-client/internal/logger"
	"github.com/mmeshcher/bank-client/internal/session"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Parse("bank", args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if len(cfg.Args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer func() { _ = log.Sync() }()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close app", zap.Error(err))
		}
	}()

	unsubscribe := a.Sessions.Subscribe(func(e session.ExpiredEvent) {
		fmt.Fprintf(stderr, "session expired (%s): please run `bank login`\n", e.Reason)
	})
	defer unsubscribe()

	c := &cli{
		gateway:  a.Gateway,
		sessions: a.Sessions,
		mode:     a.Mode,
		stdin:    stdin,
		out:      stdout,
	}

	if cfg.Args[0] == "shell" {
		return c.shell(ctx, stderr)
	}
	return c.exec(ctx, cfg.Args, stderr)
}

// exec выполняет одну команду и переводит ошибку в код выхода.
func (c *cli) exec(ctx context.Context, args []string, stderr io.Writer) int {
	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		printUsage(stderr)
		return exitUsage
	}

	if err := cmd.run(ctx, c, args[1:]); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "%s: %v\nusage: bank %s\n", cmd.name, usageErr.err, cmd.usage)
			return exitUsage
		}
		fmt.Fprintln(stderr, "error:", describe(err))
		return exitError
	}
	return exitOK
}

// shell читает команды построчно и выполняет их на одном шлюзе.
func (c *cli) shell(ctx context.Context, stderr io.Writer) int {
	scanner := bufio.NewScanner(c.stdin)
	status := exitOK
	for scanner.Scan() {
		if ctx.Err() != nil {
			return exitError
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			break
		}
		if code := c.exec(ctx, fields, stderr); code != exitOK {
			status = code
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	return status
}

func describe(err error) string {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: bank [flags] <command> [command flags]")
	fmt.Fprintln(w, "commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %s\n", cmd.usage)
	}
	fmt.Fprintln(w, "  shell  (reads commands from stdin)")
}
