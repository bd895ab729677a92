// Package cli implements ignitectl, a terminal client for the employee
// service built on the same store and form flows as the web front end.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ignite/internal/config"
	"ignite/internal/employee"
	"ignite/internal/employeeapi"
	"ignite/internal/flash"
	"ignite/internal/form"
	"ignite/internal/logging"
	"ignite/internal/store"
)

// session keys the notifications of a single command run.
const session = "ignitectl"

// Options holds the streams commands read from and write to.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type app struct {
	opts     Options
	baseURL  string
	logLevel string

	cfg   config.App
	log   zerolog.Logger
	api   *employeeapi.Client
	store *store.Store
	notes *flash.InMemory
}

// NewRootCmd builds the ignitectl command tree.
func NewRootCmd(opts Options) *cobra.Command {
	a := &app{opts: opts}
	cmd := &cobra.Command{
		Use:           "ignitectl",
		Short:         "Manage employee records from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}
	cmd.SetIn(opts.In)
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.Err)

	cmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "employee service base URL (overrides EMPLOYEE_API_BASE_URL)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "error", "log level")

	cmd.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newPingCmd(a),
	)
	return cmd
}

func (a *app) init() error {
	cfg, err := config.LoadWith(map[string]string{"EMPLOYEE_API_BASE_URL": a.baseURL})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.NewWithWriter(zerolog.ConsoleWriter{Out: a.opts.Err, NoColor: true}, "ignitectl", a.logLevel)
	a.api = employeeapi.New(cfg.EmployeeAPIBaseURL, employeeapi.WithLogger(a.log))
	a.store = store.New(a.api, a.log)
	a.notes = flash.NewInMemory(16, time.Hour)
	return nil
}

// printNotes writes and clears the notifications raised by the form flows.
func (a *app) printNotes(ctx context.Context) {
	msgs, err := a.notes.Drain(ctx, session)
	if err != nil {
		return
	}
	for _, m := range msgs {
		fmt.Fprintln(a.opts.Out, renderNote(m))
	}
}

// runForm runs an interactive huh form on the command streams.
func (a *app) runForm(ctx context.Context, f *huh.Form) error {
	return f.WithInput(a.opts.In).WithOutput(a.opts.Out).RunWithContext(ctx)
}

// Execute runs ignitectl against the process streams and returns the exit code.
func Execute(ctx context.Context) int {
	err := NewRootCmd(Options{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}).ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if !errors.Is(err, huh.ErrUserAborted) {
		fmt.Fprintln(os.Stderr, styles.Error.Render("✗ "+form.Describe(err)))
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var (
		cerr *config.ConfigurationError
		verr *employee.ValidationError
	)
	switch {
	case errors.As(err, &cerr):
		return 2
	case errors.As(err, &verr):
		return 3
	case errors.Is(err, huh.ErrUserAborted), errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
