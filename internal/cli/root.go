// Package cli implements reviewctl, a command line front end for the
// review book. It works against a local store or a running API server.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

const (
	ExitSuccess      = 0
	ExitNotice       = 1
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

const (
	noticeUpdate = "select a review before updating"
	noticeDelete = "select a review before deleting"
)

type options struct {
	server  string
	file    string
	policy  string
	jsonOut bool
}

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErr(format string, a ...any) error {
	return &exitError{code: ExitUsageError, err: fmt.Errorf(format, a...)}
}

func noticeErr(msg string) error {
	return &exitError{code: ExitNotice, err: errors.New(msg)}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "reviewctl",
		Short:         "Manage restaurant reviews",
		Long:          "reviewctl lists, adds, updates, deletes and imports restaurant reviews in a local store or through the reviews API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.server, "server", "", "base URL of a reviews API; empty uses the local store")
	pf.StringVar(&o.file, "file", "", "review file to use (forces the file store)")
	pf.StringVar(&o.policy, "policy", "", "error policy for store failures: best-effort or fail-fast")
	pf.BoolVar(&o.jsonOut, "json", false, "print JSON instead of a table")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: ExitUsageError, err: err}
	})

	root.AddCommand(
		newListCmd(o),
		newAddCmd(o),
		newUpdateCmd(o),
		newDeleteCmd(o),
		newImportCmd(o),
		newVersionCmd(),
	)
	return root
}

// Run executes reviewctl with os.Args and returns the process exit code.
func Run() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitRuntimeError
}

// exactArgs is cobra.ExactArgs with a usage exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &exitError{code: ExitUsageError, err: err}
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return &exitError{code: ExitUsageError, err: err}
		}
		return nil
	}
}
