package command

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/helm-preview/helm-preview/internal/runner"
)

// CLI carries the output streams and collaborators shared by all commands.
type CLI struct {
	Out io.Writer
	Err io.Writer

	// NewRunner builds the runner used to shell out to helm and kubectl.
	NewRunner func(timeout time.Duration) runner.Runner
}

// NewCLI creates a CLI writing to the process streams and running real binaries.
func NewCLI() *CLI {
	return &CLI{
		Out: os.Stdout,
		Err: os.Stderr,
		NewRunner: func(timeout time.Duration) runner.Runner {
			return runner.NewExecRunner(timeout)
		},
	}
}

// ExitError ends the process with Code. A nil Err exits without a message.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func Highlight(format string, a ...any) string {
	return color.RGB(50, 108, 229).Sprintf(format, a...)
}

func ExactArgsWithUsage(number int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == number {
			return nil
		}
		_ = cmd.Usage()
		if number == 1 {
			return fmt.Errorf("requires exactly 1 argument")
		}
		return fmt.Errorf("requires exactly %d arguments", number)
	}
}
