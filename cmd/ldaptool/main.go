package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tc2diag/internal/common/envfile"
	"tc2diag/internal/common/logger"
	"tc2diag/internal/common/runlog"
	"tc2diag/internal/common/version"
	"tc2diag/internal/directory"
)

// Exit codes of the LDAP bind test tool.
const (
	exitOK         = 0
	exitDependency = 1
	exitAuthFailed = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := parseFlags(args)
	if err != nil {
		return exitDependency
	}

	if cfg.ShowVersion {
		fmt.Printf("ldaptool %s - TC2 diagnostic toolkit\n", version.Get())
		return exitOK
	}

	opLog := logger.Setup(cfg.Verbose, cfg.LogLevel)

	env, err := envfile.Load(cfg.EnvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read env file %s: %v\n", cfg.EnvPath, err)
		return exitDependency
	}
	cfg.applyEnv(env)

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.WebMode {
		if err := serveWeb(ctx, cfg, opLog); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitDependency
		}
		return exitOK
	}

	creds, err := promptCredentials(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitDependency
	}

	audit, err := logger.NewCSVAudit("ldaptool", "bind")
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
	auth := directory.NewAuthenticator(&cfg.Directory)
	ok, err := bindRun(cfg, auth, creds, log, opLog, audit)
	if err != nil {
		var miss *missingInputError
		if errors.As(err, &miss) {
			return exitDependency
		}
		return exitAuthFailed
	}
	if !ok {
		return exitAuthFailed
	}
	return exitOK
}

// signalContext cancels on SIGINT/SIGTERM so web mode can shut down cleanly.
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
