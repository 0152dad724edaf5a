package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// usageError marks mistakes in how the command was called. They exit 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, a ...any) error {
	return usageError{err: fmt.Errorf(format, a...)}
}

type notFoundError struct {
	id string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("no todo matches %q", e.id)
}

type ambiguousError struct {
	id      string
	matches []string
}

func (e ambiguousError) Error() string {
	return fmt.Sprintf("%q matches %d todos; use more characters", e.id, len(e.matches))
}

// ExitCode maps an error returned by the root command to a process exit
// status: 0 ok, 1 runtime error, 2 usage error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var (
		ue usageError
		nf notFoundError
		ae ambiguousError
	)
	if errors.As(err, &ue) || errors.As(err, &nf) || errors.As(err, &ae) {
		return 2
	}
	return 1
}

// usageArgs turns an argument validator's complaint into a usage error.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}
