package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/cli"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "vstats:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

func run() error {
	// A missing .env is normal; settings then come from the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Error loading .env file", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return cli.WrapExitError(cli.ExitCommandError, "invalid configuration", err)
	}

	return cli.NewRootCommand(*cfg).Execute()
}
