package preview

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	"github.com/helm-preview/helm-preview/internal/analysis"
	"github.com/helm-preview/helm-preview/internal/helm"
	"github.com/helm-preview/helm-preview/internal/manifest"
	"github.com/helm-preview/helm-preview/internal/model"
)

// ManifestSource provides the live and the upgraded manifest of a release.
type ManifestSource interface {
	GetManifest(ctx context.Context, release, namespace string) (string, error)
	RenderUpgrade(ctx context.Context, release, chart, namespace string, opts helm.UpgradeOptions) (string, error)
}

// DryRunner submits a single manifest for a server-side dry run.
type DryRunner interface {
	ApplyDryRun(ctx context.Context, manifest, namespace string) (string, error)
}

// Request describes one preview.
type Request struct {
	Release   string
	Chart     string
	Namespace string
	Upgrade   helm.UpgradeOptions

	// ServerSide replaces each rendered resource with the object returned by
	// a server-side dry run, so defaulting and admission mutations are diffed too.
	ServerSide bool
}

// Previewer runs the preview flow: fetch, render, optionally dry-run, analyze.
type Previewer struct {
	source   ManifestSource
	dryRun   DryRunner
	analyzer *analysis.Analyzer
}

// New creates a Previewer. dryRun may be nil when server-side mode is never used.
func New(source ManifestSource, dryRun DryRunner, analyzer *analysis.Analyzer) *Previewer {
	return &Previewer{source: source, dryRun: dryRun, analyzer: analyzer}
}

// Run previews req. Failing to fetch the live release or to render the
// upgrade aborts the run; a failed dry run of one resource does not.
func (p *Previewer) Run(ctx context.Context, req Request) (*model.Report, error) {
	namespace := req.Namespace
	if namespace == "" {
		namespace = manifest.DefaultNamespace
	}

	live, err := p.source.GetManifest(ctx, req.Release, namespace)
	if err != nil {
		return nil, err
	}
	liveResources := manifest.Parse(live, namespace)

	rendered, err := p.source.RenderUpgrade(ctx, req.Release, req.Chart, namespace, req.Upgrade)
	if err != nil {
		return nil, err
	}
	upgradeResources := manifest.Parse(rendered, namespace)

	klog.V(1).Infof("Release %s/%s: %d live and %d rendered resources", namespace, req.Release, len(liveResources), len(upgradeResources))

	if req.ServerSide {
		if p.dryRun == nil {
			return nil, fmt.Errorf("server-side dry run requested but no dry runner is configured")
		}
		upgradeResources = p.applyServerSide(ctx, upgradeResources, namespace)
	}

	return p.analyzer.Analyze(ctx, liveResources, upgradeResources)
}

// applyServerSide dry-runs resources one at a time. A resource whose dry run
// fails or returns nothing is kept as rendered.
func (p *Previewer) applyServerSide(ctx context.Context, resources []*model.Resource, namespace string) []*model.Resource {
	result := make([]*model.Resource, 0, len(resources))

	for _, r := range resources {
		data, err := yaml.Marshal(r.Body)
		if err != nil {
			klog.Warningf("Failed to encode %s for server-side dry run, keeping rendered version: %v", r.Key(), err)
			result = append(result, r)
			continue
		}

		out, err := p.dryRun.ApplyDryRun(ctx, string(data), namespace)
		if err != nil {
			klog.Warningf("Server-side dry run failed for %s, keeping rendered version: %v", r.Key(), err)
			result = append(result, r)
			continue
		}

		mutated := manifest.Parse(out, namespace)
		if len(mutated) == 0 {
			klog.Warningf("Server-side dry run returned no object for %s, keeping rendered version", r.Key())
			result = append(result, r)
			continue
		}

		result = append(result, mutated[0])
	}

	return result
}
