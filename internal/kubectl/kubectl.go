package kubectl

import (
	"context"
	"fmt"

	"github.com/helm-preview/helm-preview/internal/runner"
)

// Options selects the cluster kubectl talks to.
type Options struct {
	Binary      string // Defaults to "kubectl"
	Kubeconfig  string
	KubeContext string
}

// Client shells out to the kubectl CLI.
type Client struct {
	runner runner.Runner
	opts   Options
}

// NewClient creates a kubectl client.
func NewClient(r runner.Runner, opts Options) *Client {
	if opts.Binary == "" {
		opts.Binary = "kubectl"
	}
	return &Client{runner: r, opts: opts}
}

// ApplyDryRun submits manifest to the API server as a server-side dry run
// and returns the object as admission and defaulting would persist it.
func (c *Client) ApplyDryRun(ctx context.Context, manifest, namespace string) (string, error) {
	args := []string{"apply", "--dry-run=server", "-o", "yaml", "-n", namespace, "-f", "-"}
	if c.opts.Kubeconfig != "" {
		args = append(args, "--kubeconfig", c.opts.Kubeconfig)
	}
	if c.opts.KubeContext != "" {
		args = append(args, "--context", c.opts.KubeContext)
	}

	out, err := c.runner.Run(ctx, manifest, c.opts.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("failed to run server-side dry run: %w", err)
	}
	return out, nil
}
