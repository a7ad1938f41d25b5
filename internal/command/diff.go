package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/helm-preview/helm-preview/internal/alerting"
	"github.com/helm-preview/helm-preview/internal/analysis"
	"github.com/helm-preview/helm-preview/internal/config"
	"github.com/helm-preview/helm-preview/internal/filter"
	"github.com/helm-preview/helm-preview/internal/helm"
	"github.com/helm-preview/helm-preview/internal/kubectl"
	"github.com/helm-preview/helm-preview/internal/model"
	"github.com/helm-preview/helm-preview/internal/preview"
	"github.com/helm-preview/helm-preview/internal/render"
)

const (
	OutputTerminal = "terminal"
	OutputJSON     = "json"
)

// DiffOptions holds the flags of the diff command.
type DiffOptions struct {
	Namespace    string
	ValuesFiles  []string
	SetValues    []string
	ChartVersion string
	ServerSide   bool
	ShowAll      bool
	Output       string
	IgnorePaths  []string
	ExcludeKinds []string
	Kubeconfig   string
	KubeContext  string
	NoColor      bool
	RiskOnly     bool
	ConfigFile   string
	FailOn       severityValue
}

func NewDiffCommand(cli *CLI) *cobra.Command {
	opts := &DiffOptions{Output: OutputTerminal}

	cmd := &cobra.Command{
		Use:   "diff RELEASE CHART",
		Short: "Preview the diff of a Helm upgrade",
		Long: Highlight("helm-preview diff") + "\n\n" +
			"Compare the manifest of the deployed RELEASE with the manifest an\n" +
			"upgrade to CHART would apply, and report every meaningful change\n" +
			"together with its risk.\n",
		Example: "  helm-preview diff web ./charts/web -n apps -f values-prod.yaml\n" +
			"  helm-preview diff web bitnami/nginx --version 15.0.0 --server-side -o json\n" +
			"  helm-preview diff web ./charts/web --fail-on danger",
		Args: ExactArgsWithUsage(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return opts.Run(cmd.Context(), cli, args[0], args[1])
		},
	}

	addDiffFlags(cmd.Flags(), opts)
	return cmd
}

func addDiffFlags(fs *pflag.FlagSet, opts *DiffOptions) {
	fs.StringVarP(&opts.Namespace, "namespace", "n", "", "Kubernetes namespace of the release")
	fs.StringArrayVarP(&opts.ValuesFiles, "values", "f", nil, "Values file (can be repeated)")
	fs.StringArrayVar(&opts.SetValues, "set", nil, "Set values on the command line, key=val (can be repeated)")
	fs.StringVar(&opts.ChartVersion, "version", "", "Chart version constraint")
	fs.BoolVar(&opts.ServerSide, "server-side", false, "Diff against a server-side dry run of every rendered resource")
	fs.BoolVar(&opts.ShowAll, "show-all", false, "Disable noise filtering")
	fs.StringVarP(&opts.Output, "output", "o", OutputTerminal, "Output format. One of: (terminal | json)")
	fs.StringArrayVar(&opts.IgnorePaths, "ignore-path", nil, "Additional dot-path to ignore (can be repeated)")
	fs.StringArrayVar(&opts.ExcludeKinds, "exclude-kind", nil, "Kind pattern to leave out of the report, * and ? wildcards allowed (can be repeated)")
	fs.StringVar(&opts.Kubeconfig, "kubeconfig", "", "Path to the kubeconfig file")
	fs.StringVar(&opts.KubeContext, "kube-context", "", "Kubeconfig context to use")
	fs.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&opts.RiskOnly, "risk-only", false, "Only show resources with warning or danger risks")
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to a helm-preview configuration file")
	fs.Var(&opts.FailOn, "fail-on", "Exit with status 2 when a risk reaches this severity. One of: (warning | danger)")
}

// Validate checks flag values that do not need the cluster.
func (o *DiffOptions) Validate() error {
	switch o.Output {
	case OutputTerminal, OutputJSON:
	default:
		return fmt.Errorf("invalid output format %q, must be one of: terminal, json", o.Output)
	}
	return nil
}

// Config resolves the effective configuration: environment, then the
// config file, then flags.
func (o *DiffOptions) Config() (*config.Config, error) {
	cfg := config.LoadConfig()
	if o.ConfigFile != "" {
		if err := cfg.LoadFile(o.ConfigFile); err != nil {
			return nil, err
		}
	}

	if o.Namespace != "" {
		cfg.Namespace = o.Namespace
	}
	if o.Kubeconfig != "" {
		cfg.Kubeconfig = config.ExpandHome(o.Kubeconfig)
	}
	if o.KubeContext != "" {
		cfg.KubeContext = o.KubeContext
	}
	if o.NoColor {
		cfg.NoColor = true
	}
	cfg.IgnorePaths = append(cfg.IgnorePaths, o.IgnorePaths...)
	if len(o.ExcludeKinds) > 0 {
		cfg.Exclude = cfg.Exclude.Merge(&filter.Exclude{KindPatterns: o.ExcludeKinds})
	}
	return cfg, nil
}

// Run previews the upgrade of release to chart and writes the report.
func (o *DiffOptions) Run(ctx context.Context, cli *CLI, release, chart string) error {
	cfg, err := o.Config()
	if err != nil {
		return err
	}

	r := cli.NewRunner(cfg.Timeout)
	helmClient := helm.NewClient(r, helm.Options{
		Kubeconfig:  cfg.Kubeconfig,
		KubeContext: cfg.KubeContext,
	})
	kubectlClient := kubectl.NewClient(r, kubectl.Options{
		Kubeconfig:  cfg.Kubeconfig,
		KubeContext: cfg.KubeContext,
	})
	analyzer := analysis.NewAnalyzer(analysis.Options{
		ShowAll:         o.ShowAll,
		IgnorePaths:     cfg.IgnorePaths,
		ListSortKeys:    cfg.ListSortKeys,
		ImmutableFields: cfg.ImmutableFields,
		Exclude:         cfg.Exclude,
		Release:         release,
		Concurrency:     cfg.Concurrency,
	})

	report, err := preview.New(helmClient, kubectlClient, analyzer).Run(ctx, preview.Request{
		Release:   release,
		Chart:     chart,
		Namespace: cfg.Namespace,
		Upgrade: helm.UpgradeOptions{
			ValuesFiles: o.ValuesFiles,
			SetValues:   o.SetValues,
			Version:     o.ChartVersion,
		},
		ServerSide: o.ServerSide,
	})
	if err != nil {
		return err
	}

	switch o.Output {
	case OutputJSON:
		err = render.JSON(cli.Out, report, o.RiskOnly)
	default:
		err = render.Terminal(cli.Out, report, render.Options{
			NoColor:  cfg.NoColor,
			RiskOnly: o.RiskOnly,
			ShowAll:  o.ShowAll,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	notify(ctx, cfg.AlertConfig, &alerting.Notification{
		Release:   release,
		Namespace: cfg.Namespace,
		Chart:     chart,
		Report:    report,
	})

	if o.FailOn.set && len(report.Entries) > 0 && report.MaxSeverity() >= o.FailOn.severity {
		return &ExitError{
			Code: 2,
			Err:  fmt.Errorf("release %s/%s: upgrade reaches severity %s", cfg.Namespace, release, report.MaxSeverity()),
		}
	}
	return nil
}

// notify delivers n to the configured alert channels. Delivery failures are
// logged and never fail the preview.
func notify(ctx context.Context, cfg *alerting.Config, n *alerting.Notification) {
	if cfg == nil {
		return
	}
	router, err := alerting.NewRouter(cfg)
	if err != nil {
		klog.Warningf("Failed to initialize alerting: %v, continuing without alerts", err)
		return
	}
	if err := router.Notify(ctx, n); err != nil {
		klog.Warningf("Failed to deliver alerts: %v", err)
	}
}

// severityValue is a pflag.Value accepting "warning" or "danger".
type severityValue struct {
	severity model.Severity
	set      bool
}

func (v *severityValue) String() string {
	if !v.set {
		return ""
	}
	return v.severity.String()
}

func (v *severityValue) Set(s string) error {
	severity, err := model.ParseSeverity(s)
	if err != nil || severity == model.SeveritySafe {
		return fmt.Errorf("must be one of: warning, danger")
	}
	v.severity = severity
	v.set = true
	return nil
}

func (v *severityValue) Type() string {
	return "severity"
}
