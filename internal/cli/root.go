package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhubafrica/points-service/config"
	"github.com/jhubafrica/points-service/internal/app"
	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
)

// Exit codes for jhubctl.
const (
	ExitSuccess      = 0
	ExitInconsistent = 1 // validation found problems, or some corrections failed
	ExitCommandError = 2
)

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// GetExitCode returns ExitCommandError for errors that carry no code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

type RootOptions struct {
	ConfigPath string
	Compact    bool
}

// Opener returns the consistency use case for the configured store and a
// function that releases it.
type Opener func(ctx context.Context, opts *RootOptions) (*usecase.ConsistencyUseCase, func(), error)

// OpenFromConfig loads config from opts.ConfigPath and wires the store the
// way the server does. Logs go to stderr so stdout stays JSON.
func OpenFromConfig(ctx context.Context, opts *RootOptions) (*usecase.ConsistencyUseCase, func(), error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	appLog := logger.NewRollbarLogger(log.New(os.Stderr, "", log.LstdFlags), logger.Options{
		Token: cfg.RollbarToken,
		Env:   cfg.AppEnv,
	})
	a, err := app.New(ctx, cfg, appLog)
	if err != nil {
		return nil, nil, err
	}
	return a.Consistency, func() {
		a.Close(context.Background())
		appLog.Flush()
	}, nil
}

func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = OpenFromConfig
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "jhubctl",
		Short:         "Audit and repair JHUB points data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", ".", "directory holding app.env or .env")
	cmd.PersistentFlags().BoolVar(&opts.Compact, "compact", false, "print single-line JSON")

	run := func(fn func(ctx context.Context, uc *usecase.ConsistencyUseCase, args []string) (interface{}, error)) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			uc, closeFn, err := open(ctx, opts)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Err: err}
			}
			defer closeFn()

			out, err := fn(ctx, uc, args)
			if out != nil {
				if werr := writeJSON(c.OutOrStdout(), out, opts.Compact); werr != nil {
					return &ExitError{Code: ExitCommandError, Err: werr}
				}
			}
			return err
		}
	}

	cmd.AddCommand(newValidateCommand(run))
	cmd.AddCommand(newCorrectUserCommand(run))
	cmd.AddCommand(newCorrectAllCommand(run))
	cmd.AddCommand(newAutoCorrectCommand(run))
	cmd.AddCommand(newCleanupCommand(run))
	return cmd
}

func writeJSON(w io.Writer, v interface{}, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
