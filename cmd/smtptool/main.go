package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tc2diag/internal/common/envfile"
	"tc2diag/internal/common/logger"
	"tc2diag/internal/common/runlog"
	"tc2diag/internal/common/version"
)

// Exit codes of the SMTP test tool.
const (
	exitOK         = 0
	exitDependency = 1
	exitValidation = 2
	exitSendFailed = 3
)

// runError pairs an error with the process exit code it maps to.
type runError struct {
	code int
	err  error
}

func (e *runError) Error() string { return e.err.Error() }
func (e *runError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := parseFlags(args)
	if err != nil {
		return exitDependency
	}

	if cfg.ShowVersion {
		fmt.Printf("smtptool %s - TC2 diagnostic toolkit\n", version.Get())
		return exitOK
	}

	opLog := logger.Setup(cfg.Verbose, cfg.LogLevel)

	env, err := envfile.Load(cfg.EnvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read env file %s: %v\n", cfg.EnvPath, err)
		return exitDependency
	}
	if err := cfg.applyEnv(env); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitDependency
	}

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.WebMode {
		if err := serveWeb(ctx, cfg, opLog); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitDependency
		}
		return exitOK
	}

	recipient := cfg.To
	if recipient == "" {
		recipient = promptRecipient(os.Stdin, os.Stdout)
	}

	audit, err := logger.NewCSVAudit("smtptool", "send")
	if err != nil {
		opLog.Warn("audit log unavailable", "error", err)
	} else {
		defer audit.Close()
		if empty, _ := audit.IsEmpty(); empty {
			audit.WriteHeader(auditColumns)
		}
		fmt.Printf("Audit log: %s\n", audit.Path())
	}

	log := runlog.New(os.Stdout)
	if err := sendRun(ctx, cfg, recipient, log, opLog, audit); err != nil {
		var rerr *runError
		if errors.As(err, &rerr) {
			return rerr.code
		}
		return exitSendFailed
	}
	return exitOK
}

// promptRecipient asks for the recipient address on the terminal.
func promptRecipient(in *os.File, out *os.File) string {
	fmt.Fprint(out, "Recipient address: ")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

// signalContext cancels on SIGINT/SIGTERM so a hung relay connection can be
// abandoned from the terminal.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down")
		cancel()
	}()
	return ctx, cancel
}
