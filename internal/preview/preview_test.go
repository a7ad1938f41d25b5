package preview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helm-preview/helm-preview/internal/analysis"
	"github.com/helm-preview/helm-preview/internal/helm"
	"github.com/helm-preview/helm-preview/internal/model"
	"github.com/helm-preview/helm-preview/internal/runner"
)

type fakeSource struct {
	live      string
	rendered  string
	liveErr   error
	renderErr error
	namespace string
	upgrade   helm.UpgradeOptions
}

func (f *fakeSource) GetManifest(_ context.Context, _ string, namespace string) (string, error) {
	f.namespace = namespace
	return f.live, f.liveErr
}

func (f *fakeSource) RenderUpgrade(_ context.Context, _, _, _ string, opts helm.UpgradeOptions) (string, error) {
	f.upgrade = opts
	return f.rendered, f.renderErr
}

type fakeDryRunner struct {
	inputs  []string
	respond func(manifest string) (string, error)
}

func (f *fakeDryRunner) ApplyDryRun(_ context.Context, manifest, _ string) (string, error) {
	f.inputs = append(f.inputs, manifest)
	return f.respond(manifest)
}

const liveManifest = `
apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
data:
  mode: fast
`

const renderedManifest = `
apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
data:
  mode: slow
---
apiVersion: v1
kind: Service
metadata:
  name: web
spec:
  ports:
  - port: 80
`

func TestPreviewer_Run(t *testing.T) {
	source := &fakeSource{live: liveManifest, rendered: renderedManifest}
	p := New(source, nil, analysis.NewAnalyzer(analysis.Options{}))

	report, err := p.Run(context.Background(), Request{
		Release: "web",
		Chart:   "./chart",
		Upgrade: helm.UpgradeOptions{SetValues: []string{"mode=slow"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "default", source.namespace)
	assert.Equal(t, []string{"mode=slow"}, source.upgrade.SetValues)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, model.StatusChanged, report.Entries[0].Record.Status)
	assert.Equal(t, model.StatusAdded, report.Entries[1].Record.Status)
}

func TestPreviewer_FatalErrors(t *testing.T) {
	runErr := &runner.RunError{Cmd: []string{"helm"}, ExitCode: 1, Stderr: "boom"}

	for name, source := range map[string]*fakeSource{
		"live":   {liveErr: runErr},
		"render": {live: liveManifest, renderErr: runErr},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(source, nil, analysis.NewAnalyzer(analysis.Options{})).Run(context.Background(), Request{Release: "web"})

			var got *runner.RunError
			require.True(t, errors.As(err, &got))
		})
	}
}

func TestPreviewer_ServerSide(t *testing.T) {
	source := &fakeSource{live: liveManifest, rendered: renderedManifest}
	dryRun := &fakeDryRunner{respond: func(m string) (string, error) {
		if strings.Contains(m, "Service") {
			// Defaulting by the API server
			return m + "  clusterIP: 10.0.0.1\n", nil
		}
		return "", &runner.RunError{ExitCode: 1, Stderr: "admission webhook denied"}
	}}

	report, err := New(source, dryRun, analysis.NewAnalyzer(analysis.Options{})).Run(context.Background(), Request{
		Release:    "web",
		ServerSide: true,
	})
	require.NoError(t, err)
	require.Len(t, dryRun.inputs, 2)
	assert.Contains(t, dryRun.inputs[0], "kind: ConfigMap")

	// The failed dry run kept the rendered ConfigMap
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "data.mode", report.Entries[0].Record.Changes[0].Path)
	assert.Equal(t, "slow", report.Entries[0].Record.Changes[0].NewValue)
}

func TestPreviewer_ServerSideEmptyOutputFallsBack(t *testing.T) {
	source := &fakeSource{live: liveManifest, rendered: liveManifest}
	dryRun := &fakeDryRunner{respond: func(string) (string, error) { return "", nil }}

	report, err := New(source, dryRun, analysis.NewAnalyzer(analysis.Options{})).Run(context.Background(), Request{
		Release:    "web",
		ServerSide: true,
	})
	require.NoError(t, err)
	assert.Empty(t, report.Entries)
	assert.Equal(t, 1, report.Unchanged)
}

func TestPreviewer_ServerSideWithoutDryRunner(t *testing.T) {
	source := &fakeSource{live: liveManifest, rendered: liveManifest}

	_, err := New(source, nil, analysis.NewAnalyzer(analysis.Options{})).Run(context.Background(), Request{ServerSide: true})
	require.Error(t, err)
}
