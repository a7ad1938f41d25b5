package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
	"sigs.k8s.io/release-utils/version"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "helm-preview",
		Short: color.RGB(50, 108, 229).Sprintf("helm-preview <subcommand> [args]") + "\n" +
			"Semantic, noise-filtered, risk-aware diffs for Helm upgrades",
		Long: color.RGB(50, 108, 229).Sprintf("Usage: helm-preview <subcommand> [args]\n\n") +
			"helm-preview compares the manifest of a deployed Helm release with the\n" +
			"manifest an upgrade would apply. Server-managed noise is filtered out,\n" +
			"equivalent values are not reported, and every change is checked against\n" +
			"risk rules such as immutable fields and resource deletion.\n",
		Version:       version.GetVersionInfo().GitVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				_ = cmd.Help()
			}
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true

	// klog flags (-v, --vmodule, ...) are shared by every subcommand
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)
	return cmd
}

func setCobraUsageTemplate(cmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleHeading", color.RGB(50, 108, 229).SprintFunc())
	usageTemplate := cmd.UsageTemplate()
	usageTemplate = strings.NewReplacer(
		`Usage:`, `{{StyleHeading "Usage:"}}`,
		`Examples:`, `{{StyleHeading "Examples:"}}`,
		`Available Commands:`, `{{StyleHeading "Available Commands:"}}`,
		`Additional Commands:`, `{{StyleHeading "Additional Commands:"}}`,
		`Flags:`, `{{StyleHeading "Options:"}}`,
		`Global Flags:`, `{{StyleHeading "Global Options:"}}`,
	).Replace(usageTemplate)
	cmd.SetUsageTemplate(usageTemplate)
}

// AddCommands registers all subcommands to the root command.
func AddCommands(root *cobra.Command, cli *CLI) {
	root.AddCommand(
		NewDiffCommand(cli),
		NewVersionCommand(cli),
	)
}

func Execute() {
	rootCmd := NewRootCommand()
	setCobraUsageTemplate(rootCmd)
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Disable color output if NO_COLOR is set in the environment
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		color.NoColor = true
	}

	cli := NewCLI()
	AddCommands(rootCmd, cli)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	klog.Flush()

	os.Exit(ExitCode(err, cli.Err))
}

// ExitCode reports err on w and returns the process exit code for it.
func ExitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(w, "%v\n", exitErr.Err)
		}
		return exitErr.Code
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}
