package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
)

type globalOptions struct {
	Debug   bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogFile string `long:"log-file" env:"LOG_FILE" description:"Write logs to this file in addition to stderr"`
}

var (
	opts   globalOptions
	appCtx context.Context
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	appCtx = ctx

	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		setupLogger()
		return command.Execute(args)
	}

	registerCatalogCommands(parser)
	registerAcquireCommands(parser)
	registerStatsCommand(parser)
	registerShardDBCommand(parser)
	registerServeCommand(parser)

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				return
			}
			// go-flags already printed the usage error.
			os.Exit(1)
		}
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger() {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			slog.Error("Failed to open log file, logging to stderr only", "path", opts.LogFile, "error", err)
		} else {
			w = io.MultiWriter(os.Stderr, f)
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
