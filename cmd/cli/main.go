package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/isobench/internal/app"
	"github.com/vk/isobench/internal/cli"
	"github.com/vk/isobench/internal/config"
	"github.com/vk/isobench/internal/hcl_adapter"
)

// main is the entrypoint for the isobench application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	loader := hcl_adapter.NewLoader(appConfig.Vars)
	benchApp, err := app.NewApp(outW, appConfig, loader)
	if err != nil {
		return &cli.ExitError{Code: 1, Message: fmt.Sprintf("A critical startup error occurred: %v", err)}
	}

	err = benchApp.Run(ctx)
	if errors.Is(err, config.ErrInvalidConfig) {
		return &cli.ExitError{Code: 1, Message: fmt.Sprintf("A configuration error occurred: %v", err)}
	}
	return err
}
