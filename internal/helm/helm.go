package helm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"k8s.io/klog/v2"

	"github.com/helm-preview/helm-preview/internal/runner"
)

// Options selects the cluster helm talks to.
type Options struct {
	Binary      string // Defaults to "helm"
	Kubeconfig  string
	KubeContext string
}

// UpgradeOptions are the chart inputs of a dry-run upgrade.
type UpgradeOptions struct {
	ValuesFiles []string
	SetValues   []string
	Version     string
}

// Client shells out to the helm CLI.
type Client struct {
	runner runner.Runner
	opts   Options
}

// NewClient creates a helm client.
func NewClient(r runner.Runner, opts Options) *Client {
	if opts.Binary == "" {
		opts.Binary = "helm"
	}
	return &Client{runner: r, opts: opts}
}

// GetManifest returns the manifest of the deployed release.
func (c *Client) GetManifest(ctx context.Context, release, namespace string) (string, error) {
	args := append([]string{"get", "manifest", release, "-n", namespace}, c.kubeFlags()...)

	out, err := c.runner.Run(ctx, "", c.opts.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("failed to get manifest of release %s: %w", release, err)
	}

	klog.V(2).Infof("Fetched live manifest of release %s/%s (%d bytes)", namespace, release, len(out))
	return out, nil
}

// RenderUpgrade renders the manifest an upgrade of release to chart would apply.
func (c *Client) RenderUpgrade(ctx context.Context, release, chart, namespace string, opts UpgradeOptions) (string, error) {
	args := []string{"upgrade", release, chart, "--dry-run", "-n", namespace}
	for _, f := range opts.ValuesFiles {
		args = append(args, "-f", f)
	}
	for _, v := range opts.SetValues {
		args = append(args, "--set", v)
	}
	if opts.Version != "" {
		args = append(args, "--version", opts.Version)
	}
	args = append(args, c.kubeFlags()...)

	out, err := c.runner.Run(ctx, "", c.opts.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("failed to render upgrade of release %s: %w", release, err)
	}

	klog.V(2).Infof("Rendered upgrade of release %s/%s with chart %s", namespace, release, chart)
	return StripNonManifest(out), nil
}

func (c *Client) kubeFlags() []string {
	var flags []string
	if c.opts.Kubeconfig != "" {
		flags = append(flags, "--kubeconfig", c.opts.Kubeconfig)
	}
	if c.opts.KubeContext != "" {
		flags = append(flags, "--kube-context", c.opts.KubeContext)
	}
	return flags
}

var (
	manifestHeader = regexp.MustCompile(`(?m)^MANIFEST:[ \t]*\r?\n`)
	notesHeader    = regexp.MustCompile(`(?m)^NOTES:[ \t]*\r?\n`)
)

// StripNonManifest keeps the MANIFEST section of helm dry-run output, dropping
// the release banner, HOOKS and NOTES. Output without a MANIFEST header is
// kept from the start.
func StripNonManifest(output string) string {
	if loc := manifestHeader.FindStringIndex(output); loc != nil {
		output = output[loc[1]:]
	}
	if loc := notesHeader.FindStringIndex(output); loc != nil {
		output = output[:loc[0]]
	}
	return strings.TrimSpace(output) + "\n"
}
